package datagen

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"modelbench/internal/dist"
)

// FraudConfig controls the card-fraud transaction generator.
type FraudConfig struct {
	OutputDir  string
	StartDate  string
	EndDate    string
	PastDays   int
	FutureDays int
	PerHour    int
	Seed       uint64
}

// DefaultFraudConfig returns the standard ±90 day, 60 txn/hour setup.
func DefaultFraudConfig(outputDir string) FraudConfig {
	return FraudConfig{
		OutputDir:  outputDir,
		PastDays:   90,
		FutureDays: 90,
		PerHour:    60,
		Seed:       42,
	}
}

// FraudRecord is one simulated card transaction with the model's fraud
// score alongside the ground truth.
type FraudRecord struct {
	Timestamp          string  `json:"timestamp"`
	TxnID              string  `json:"txn_id"`
	AccountID          string  `json:"account_id"`
	CustomerID         string  `json:"customer_id"`
	IsFraud            int     `json:"is_fraud"`
	FraudScore         float64 `json:"fraud_score"`
	FraudPred          int     `json:"fraud_pred"`
	RulesEngineFlag    int     `json:"rules_engine_flag"`
	RiskRank           int     `json:"risk_rank"`
	CustomerSegment    string  `json:"customer_segment"`
	Channel            string  `json:"channel"`
	Region             string  `json:"region"`
	TxnAmount          float64 `json:"txn_amount"`
	DistanceFromHomeKm float64 `json:"distance_from_home_km"`
	MerchantRiskScore  float64 `json:"merchant_risk_score"`
	DigitalEngagement  float64 `json:"digital_engagement"`
	TenureMonths       int     `json:"tenure_months"`
}

// FraudStats summarizes a generator run.
type FraudStats struct {
	TotalTransactions int
	TotalFraud        int
	FilesCreated      int
	FraudRate         float64
	DateRange         string
}

var (
	fraudSegments     = []string{"new_to_bank", "established", "small_business"}
	fraudSegmentProbs = []float64{0.15, 0.70, 0.15}
	fraudChannels     = []string{"ecom", "in_store", "atm"}
	fraudChannelProbs = []float64{0.60, 0.35, 0.05}
	fraudRegions      = []string{"W", "NE", "MW", "S"}
	fraudRegionProbs  = []float64{0.25, 0.25, 0.25, 0.25}
)

// GenerateFraud writes hourly JSON partitions of simulated card
// transactions under cfg.OutputDir using the layout
// year=YYYY/month=MM/day=DD/inferences_hour=HH.json.
func GenerateFraud(ctx context.Context, cfg FraudConfig, logger *zap.Logger) (*FraudStats, error) {
	w, err := ResolveWindow(cfg.StartDate, cfg.EndDate, cfg.PastDays, cfg.FutureDays, time.Now())
	if err != nil {
		return nil, err
	}
	return generateFraudWindow(ctx, cfg, w, logger)
}

// GenerateFraudReference writes the baseline slice: the first
// referenceDays days of the same window, under a separate directory.
func GenerateFraudReference(ctx context.Context, cfg FraudConfig, referenceDays int, logger *zap.Logger) (*FraudStats, error) {
	w, err := ResolveWindow(cfg.StartDate, cfg.EndDate, cfg.PastDays, cfg.FutureDays, time.Now())
	if err != nil {
		return nil, err
	}
	return generateFraudWindow(ctx, cfg, w.Reference(referenceDays), logger)
}

func generateFraudWindow(ctx context.Context, cfg FraudConfig, w Window, logger *zap.Logger) (*FraudStats, error) {
	s := dist.New(cfg.Seed)

	// Account and customer pools are drawn once up front so the same IDs
	// recur across the whole window.
	accountIDs := make([]string, 1000)
	for i := range accountIDs {
		accountIDs[i] = fmt.Sprintf("acct_%d", s.IntRange(10000, 50001))
	}
	customerIDs := make([]string, 2000)
	for i := range customerIDs {
		customerIDs[i] = fmt.Sprintf("cust_%d", s.IntRange(10000, 30001))
	}

	stats := &FraudStats{DateRange: w.String()}

	// Hours run to the end date's midnight inclusive, so the final day
	// carries only its hour-00 partition.
	for hourDt := w.Start; !hourDt.After(w.End); hourDt = hourDt.Add(time.Hour) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		records := make([]FraudRecord, 0, cfg.PerHour)
		for i := 0; i < cfg.PerHour; i++ {
			rec := sampleFraudTxn(s, hourDt, i, accountIDs, customerIDs)
			records = append(records, rec)
			stats.TotalTransactions++
			if rec.IsFraud == 1 {
				stats.TotalFraud++
			}
		}

		if _, err := writeHourlyJSON(cfg.OutputDir, hourDt.Year(), int(hourDt.Month()), hourDt.Day(), hourDt.Hour(), records); err != nil {
			return nil, err
		}
		stats.FilesCreated++
	}

	if stats.TotalTransactions > 0 {
		stats.FraudRate = float64(stats.TotalFraud) / float64(stats.TotalTransactions)
	}
	logger.Info("Card fraud dataset generated",
		zap.String("range", stats.DateRange),
		zap.Int("transactions", stats.TotalTransactions),
		zap.Float64("fraud_rate", stats.FraudRate),
		zap.Int("files", stats.FilesCreated))
	return stats, nil
}

func sampleFraudTxn(s *dist.Sampler, ts time.Time, index int, accountIDs, customerIDs []string) FraudRecord {
	segment := s.Choice(fraudSegments, fraudSegmentProbs)
	channel := s.Choice(fraudChannels, fraudChannelProbs)
	region := s.Choice(fraudRegions, fraudRegionProbs)

	txnAmount := dist.Clamp(round(s.LogNormal(3.0, 0.8), 2), 1.0, 10000.0)

	// Fraudulent transactions skew further from home.
	distanceKm := round(s.Exponential(10.0), 2)
	if distanceKm > 1000.0 {
		distanceKm = 1000.0
	}

	merchantRisk := round(s.Beta(2, 8), 4)

	engagement := round(s.Gamma(2, 2), 2)
	if engagement > 10.0 {
		engagement = 10.0
	}

	var tenure int
	switch segment {
	case "new_to_bank":
		tenure = s.IntRange(0, 12)
	case "small_business":
		tenure = s.IntRange(12, 120)
	default:
		tenure = s.IntRange(6, 120)
	}

	fraudProb := 0.05
	if segment == "new_to_bank" {
		fraudProb *= 1.5
	}
	if txnAmount > 500 {
		fraudProb *= 1.3
	}
	if distanceKm > 50 {
		fraudProb *= 1.4
	}
	if merchantRisk > 0.5 {
		fraudProb *= 1.2
	}
	if channel == "atm" {
		fraudProb *= 1.3
	}
	if fraudProb > 0.30 {
		fraudProb = 0.30
	}

	isFraud := 0
	if s.Bernoulli(fraudProb) {
		isFraud = 1
	}

	// The score correlates with the label but keeps a noise floor so the
	// simulated model misses some fraud and flags some clean traffic.
	var score float64
	if isFraud == 1 {
		score = s.Beta(3, 7)*0.4 + s.Beta(6, 2)*0.6
	} else {
		score = s.Beta(2, 8)*0.7 + s.Beta(3, 7)*0.3
	}
	score = dist.Clamp(round(score, 6), 0.0, 1.0)

	pred := 0
	if score >= 0.5 {
		pred = 1
	}

	rulesFlag := 0
	if txnAmount > 200 && distanceKm > 30 {
		rulesFlag = 1
	}

	var riskRank int
	switch {
	case score < 0.1:
		riskRank = 1
	case score < 0.2:
		riskRank = 2
	case score < 0.4:
		riskRank = 3
	case score < 0.6:
		riskRank = 4
	default:
		riskRank = 5
	}

	return FraudRecord{
		Timestamp:          ts.Format(time.RFC3339),
		TxnID:              RecordID(ts, index),
		AccountID:          accountIDs[s.IntN(len(accountIDs))],
		CustomerID:         customerIDs[s.IntN(len(customerIDs))],
		IsFraud:            isFraud,
		FraudScore:         score,
		FraudPred:          pred,
		RulesEngineFlag:    rulesFlag,
		RiskRank:           riskRank,
		CustomerSegment:    segment,
		Channel:            channel,
		Region:             region,
		TxnAmount:          txnAmount,
		DistanceFromHomeKm: distanceKm,
		MerchantRiskScore:  merchantRisk,
		DigitalEngagement:  engagement,
		TenureMonths:       tenure,
	}
}
