package datagen

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"modelbench/internal/dist"
)

// HousingConfig controls the housing price inference generator, which
// replays a California-housing training CSV as scored inference traffic.
type HousingConfig struct {
	InputCSV   string
	OutputDir  string
	Seed       uint64
	PastDays   int
	FutureDays int
}

// DefaultHousingConfig returns the standard ±90 day setup.
func DefaultHousingConfig(inputCSV, outputDir string) HousingConfig {
	return HousingConfig{
		InputCSV:   inputCSV,
		OutputDir:  outputDir,
		Seed:       42,
		PastDays:   90,
		FutureDays: 90,
	}
}

// HousingStats summarizes a housing generator run.
type HousingStats struct {
	Rows          int
	Partitions    int
	MeanActual    float64
	MeanPredicted float64
	MeanAbsError  float64
	DateRange     string
}

// housingBlock is one row of the training CSV.
type housingBlock struct {
	longitude      string
	latitude       string
	medianAge      float64
	totalRooms     int64
	totalBedrooms  int64
	population     float64
	households     int64
	medianIncome   float64
	houseValue     float64
	oceanProximity string
}

func readHousingCSV(path string) ([]housingBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open housing csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read housing csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("housing csv %s has no data rows", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, name := range records[0] {
		idx[name] = i
	}
	for _, required := range []string{"median_house_value", "median_income", "housing_median_age",
		"total_rooms", "population", "ocean_proximity"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("housing csv missing column %q", required)
		}
	}

	parseFloat := func(row []string, col string) float64 {
		i, ok := idx[col]
		if !ok || row[i] == "" {
			return 0
		}
		v, _ := strconv.ParseFloat(row[i], 64)
		return v
	}
	field := func(row []string, col string) string {
		if i, ok := idx[col]; ok {
			return row[i]
		}
		return ""
	}

	blocks := make([]housingBlock, 0, len(records)-1)
	for _, row := range records[1:] {
		blocks = append(blocks, housingBlock{
			longitude:      field(row, "longitude"),
			latitude:       field(row, "latitude"),
			medianAge:      parseFloat(row, "housing_median_age"),
			totalRooms:     int64(parseFloat(row, "total_rooms")),
			totalBedrooms:  int64(parseFloat(row, "total_bedrooms")),
			population:     parseFloat(row, "population"),
			households:     int64(parseFloat(row, "households")),
			medianIncome:   parseFloat(row, "median_income"),
			houseValue:     parseFloat(row, "median_house_value"),
			oceanProximity: field(row, "ocean_proximity"),
		})
	}
	return blocks, nil
}

func oceanMult(proximity string) float64 {
	switch proximity {
	case "NEAR BAY":
		return 1.05
	case "INLAND":
		return 0.95
	case "ISLAND":
		return 1.10
	case "NEAR OCEAN":
		return 1.03
	default: // <1H OCEAN
		return 1.02
	}
}

var housingHeader = []string{
	"timestamp", "house_id", "actual_house_value", "predicted_house_value",
	"longitude", "latitude", "housing_median_age", "total_rooms",
	"total_bedrooms", "population", "households", "median_income",
	"ocean_proximity",
}

// GenerateHousing replays the training CSV as date-partitioned inference
// CSVs with a simulated prediction per block: feature-driven multipliers
// over the true value, noise, and a blend back towards the truth.
func GenerateHousing(ctx context.Context, cfg HousingConfig, logger *zap.Logger) (*HousingStats, error) {
	w, err := ResolveWindow("", "", cfg.PastDays, cfg.FutureDays, time.Now())
	if err != nil {
		return nil, err
	}
	blocks, err := readHousingCSV(cfg.InputCSV)
	if err != nil {
		return nil, err
	}

	s := dist.New(cfg.Seed)
	timestamps := spreadTimestamps(s, w, len(blocks))

	stats := &HousingStats{DateRange: w.String()}
	byDate := make(map[string][][]string)

	for i, b := range blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		actual := b.houseValue

		incomeMult := 0.8 + b.medianIncome/15.0*0.4
		ageMult := 0.9 + b.medianAge/52.0*0.2
		roomsMult := 0.95 + min(1.0, float64(b.totalRooms)/40000.0)*0.1
		popMult := 0.98 + min(1.0, b.population/4000.0)*0.04

		model := actual * incomeMult * ageMult * roomsMult * popMult * oceanMult(b.oceanProximity)
		model *= s.Normal(1.0, 0.08)

		corr := s.Uniform(0.75, 0.90)
		predicted := actual*corr + model*(1-corr)
		predicted = dist.Clamp(predicted, actual*0.5, actual*2.0)
		predicted = roundTo(predicted, 100)

		ts := timestamps[i]
		date := ts.Format("2006-01-02")
		byDate[date] = append(byDate[date], []string{
			ts.Format(time.RFC3339),
			strconv.Itoa(i + 1),
			strconv.FormatFloat(actual, 'f', -1, 64),
			strconv.FormatFloat(predicted, 'f', -1, 64),
			b.longitude,
			b.latitude,
			strconv.FormatFloat(b.medianAge, 'f', -1, 64),
			strconv.FormatInt(b.totalRooms, 10),
			strconv.FormatInt(b.totalBedrooms, 10),
			strconv.FormatFloat(b.population, 'f', -1, 64),
			strconv.FormatInt(b.households, 10),
			strconv.FormatFloat(b.medianIncome, 'f', -1, 64),
			b.oceanProximity,
		})

		stats.Rows++
		stats.MeanActual += actual
		stats.MeanPredicted += predicted
		diff := actual - predicted
		if diff < 0 {
			diff = -diff
		}
		stats.MeanAbsError += diff
	}

	if stats.Rows > 0 {
		n := float64(stats.Rows)
		stats.MeanActual /= n
		stats.MeanPredicted /= n
		stats.MeanAbsError /= n
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	for _, date := range dates {
		if _, err := writeCSVPartition(cfg.OutputDir, date, housingHeader, byDate[date]); err != nil {
			return nil, err
		}
	}
	stats.Partitions = len(dates)

	logger.Info("Housing price dataset generated",
		zap.String("range", stats.DateRange),
		zap.Int("rows", stats.Rows),
		zap.Float64("mean_abs_error", stats.MeanAbsError),
		zap.Int("partitions", stats.Partitions))
	return stats, nil
}
