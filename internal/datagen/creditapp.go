package datagen

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"modelbench/internal/dist"
)

// TabularConfig covers the sample-count generators (credit application,
// loan amount): a fixed number of rows spread across the window.
type TabularConfig struct {
	OutputDir  string
	NSamples   int
	Seed       uint64
	PastDays   int
	FutureDays int
}

// DefaultTabularConfig returns the standard 1000-row, ±90 day setup.
func DefaultTabularConfig(outputDir string) TabularConfig {
	return TabularConfig{
		OutputDir:  outputDir,
		NSamples:   1000,
		Seed:       42,
		PastDays:   90,
		FutureDays: 90,
	}
}

// TabularStats summarizes a sample-count generator run.
type TabularStats struct {
	Rows          int
	Partitions    int
	PositiveRate  float64
	PredictedRate float64
	DateRange     string
}

var (
	appRegions        = []string{"Region_North", "Region_South", "Region_East", "Region_West"}
	appRegionProbs    = []float64{0.3, 0.25, 0.25, 0.2}
	employmentStatus  = []string{"Employed", "Self-employed", "Unemployed", "Retired"}
	employmentProbs   = []float64{0.6, 0.15, 0.15, 0.1}
	creditAppColumns  = []parquetColumn{
		{Name: "partition_date", Kind: kindDate},
		{Name: "timestamp", Kind: kindTimestampMicros},
		{Name: "application_id", Kind: kindInt64},
		{Name: "region", Kind: kindString},
		{Name: "actual_label", Kind: kindInt64},
		{Name: "predicted_label", Kind: kindInt64},
		{Name: "predicted_probability", Kind: kindDouble},
		{Name: "is_valid_application", Kind: kindInt64},
		{Name: "credit_score", Kind: kindInt64},
		{Name: "annual_income", Kind: kindInt64},
		{Name: "age", Kind: kindInt64},
		{Name: "employment_status", Kind: kindString},
		{Name: "years_at_job", Kind: kindInt64},
		{Name: "debt_to_income_ratio", Kind: kindDouble},
		{Name: "num_credit_cards", Kind: kindInt64},
		{Name: "years_credit_history", Kind: kindInt64},
	}
)

// applicantProfile is the feature base shared by the credit application
// and loan amount generators.
type applicantProfile struct {
	region        string
	creditScore   int
	annualIncome  int
	age           int
	employment    string
	yearsAtJob    int
	dti           float64
	numCards      int
	yearsHistory  int
}

func sampleApplicant(s *dist.Sampler) applicantProfile {
	p := applicantProfile{}
	p.region = s.Choice(appRegions, appRegionProbs)
	p.creditScore = dist.ClampInt(int(s.Normal(650, 100)), 300, 850)
	p.annualIncome = dist.ClampInt(int(s.LogNormal(10.5, 0.8)), 20000, 200000)
	p.age = dist.ClampInt(int(s.Gamma(2, 15)), 18, 75)
	p.employment = s.Choice(employmentStatus, employmentProbs)
	p.yearsAtJob = dist.ClampInt(int(float64(p.age)*s.Uniform(0.1, 0.4)), 0, 40)
	if p.employment == "Unemployed" || p.employment == "Retired" {
		p.yearsAtJob = 0
	}
	p.dti = dist.Clamp(s.Beta(2, 5)*0.8+(1-float64(p.annualIncome)/200000)*0.2, 0, 0.8)
	p.numCards = dist.ClampInt(int(float64(p.creditScore-300)/550*8+float64(s.Poisson(2))), 0, 10)
	p.yearsHistory = dist.ClampInt(int(float64(p.age-18)+s.Normal(0, 3)), 0, 50)
	return p
}

func (p applicantProfile) employmentFactor() float64 {
	switch p.employment {
	case "Employed":
		return 1.0
	case "Self-employed":
		return 0.8
	default:
		return 0.5
	}
}

// spreadTimestamps assigns row i to day i mod totalDays with a random
// time of day, so every partition in the window is populated.
func spreadTimestamps(s *dist.Sampler, w Window, n int) []time.Time {
	totalDays := w.Days()
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		day := w.Start.AddDate(0, 0, i%totalDays)
		out[i] = day.
			Add(time.Duration(s.IntN(24)) * time.Hour).
			Add(time.Duration(s.IntN(60)) * time.Minute).
			Add(time.Duration(s.IntN(60)) * time.Second)
	}
	return out
}

// writeDailyParquet groups rows by partition date and writes one parquet
// file per day. Rows carry their date under the "partition_date" key as
// int32 days since epoch; dates are recovered for directory naming via
// the parallel dates slice.
func writeDailyParquet(dir string, cols []parquetColumn, rows []map[string]any, dates []string) (int, error) {
	byDate := make(map[string][]map[string]any)
	for i, row := range rows {
		byDate[dates[i]] = append(byDate[dates[i]], row)
	}
	keys := make([]string, 0, len(byDate))
	for k := range byDate {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, date := range keys {
		if _, err := writeParquetPartition(dir, date, cols, byDate[date]); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// GenerateCreditApp writes the credit card application dataset: binary
// approval decisions with regional bias baked in for discrimination
// metrics, partitioned one parquet file per day.
func GenerateCreditApp(ctx context.Context, cfg TabularConfig, logger *zap.Logger) (*TabularStats, error) {
	w, err := ResolveWindow("", "", cfg.PastDays, cfg.FutureDays, time.Now())
	if err != nil {
		return nil, err
	}
	s := dist.New(cfg.Seed)

	rows := make([]map[string]any, 0, cfg.NSamples)
	dates := make([]string, 0, cfg.NSamples)
	stats := &TabularStats{DateRange: w.String()}

	timestamps := spreadTimestamps(s, w, cfg.NSamples)

	for i := 0; i < cfg.NSamples; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := sampleApplicant(s)

		// Ground truth approval, weighted towards creditworthiness with
		// engineered regional differences.
		approvalProb := float64(p.creditScore-300)/550*0.4 +
			min(1.0, float64(p.annualIncome)/100000)*0.2 +
			(1.0-p.dti)*0.15 +
			p.employmentFactor()*0.15 +
			min(1.0, float64(p.yearsHistory)/10)*0.1
		switch p.region {
		case "Region_North":
			approvalProb *= 1.1
		case "Region_South":
			approvalProb *= 0.9
		case "Region_East":
			approvalProb *= 1.05
		}
		approvalProb = dist.Clamp(approvalProb, 0.05, 0.95)
		actual := 0
		if s.Bernoulli(approvalProb) {
			actual = 1
		}

		// Model probability: the same signals under different weights,
		// plus noise and a learned regional bias, blended with the label.
		modelProb := float64(p.creditScore-300)/550*0.35 +
			min(1.0, float64(p.annualIncome)/100000)*0.25 +
			(1.0-p.dti)*0.2 +
			p.employmentFactor()*0.1 +
			min(1.0, float64(p.yearsHistory)/10)*0.1
		modelProb += s.Normal(0, 0.1)
		switch p.region {
		case "Region_North":
			modelProb *= 1.08
		case "Region_South":
			modelProb *= 0.92
		}
		if actual == 1 {
			modelProb = modelProb*0.7 + s.Beta(6, 2)*0.3
		} else {
			modelProb = modelProb*0.7 + s.Beta(2, 6)*0.3
		}
		modelProb = dist.Clamp(modelProb, 0.01, 0.99)

		predicted := 0
		if modelProb >= 0.5 {
			predicted = 1
		}
		isValid := 1
		if s.Bernoulli(0.01) {
			isValid = 0
		}

		ts := timestamps[i]
		date := ts.Format("2006-01-02")
		rows = append(rows, map[string]any{
			"partition_date":        daysSinceEpoch(ts),
			"timestamp":             ts.UnixMicro(),
			"application_id":        int64(i + 1),
			"region":                p.region,
			"actual_label":          int64(actual),
			"predicted_label":       int64(predicted),
			"predicted_probability": modelProb,
			"is_valid_application":  int64(isValid),
			"credit_score":          int64(p.creditScore),
			"annual_income":         int64(p.annualIncome),
			"age":                   int64(p.age),
			"employment_status":     p.employment,
			"years_at_job":          int64(p.yearsAtJob),
			"debt_to_income_ratio":  p.dti,
			"num_credit_cards":      int64(p.numCards),
			"years_credit_history":  int64(p.yearsHistory),
		})
		dates = append(dates, date)

		stats.Rows++
		stats.PositiveRate += float64(actual)
		stats.PredictedRate += float64(predicted)
	}

	if stats.Rows > 0 {
		stats.PositiveRate /= float64(stats.Rows)
		stats.PredictedRate /= float64(stats.Rows)
	}

	parts, err := writeDailyParquet(cfg.OutputDir, creditAppColumns, rows, dates)
	if err != nil {
		return nil, err
	}
	stats.Partitions = parts

	logger.Info("Credit application dataset generated",
		zap.String("range", stats.DateRange),
		zap.Int("rows", stats.Rows),
		zap.Float64("approval_rate", stats.PositiveRate),
		zap.Int("partitions", stats.Partitions))
	return stats, nil
}
