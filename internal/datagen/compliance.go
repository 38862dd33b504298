package datagen

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"modelbench/internal/dist"
)

// Country risk tiers, each sorted so list ordering stays deterministic.
var (
	lowRiskCountries    = []string{"AU", "CA", "CH", "DE", "FR", "GB", "JP", "NL", "SG", "US"}
	mediumRiskCountries = []string{"AE", "BR", "CN", "MX", "PK", "TH", "TR", "UA"}
	highRiskCountries   = []string{"BY", "IR", "KP", "MM", "NG", "RU", "SY", "VE"}

	sanctionsSet = map[string]bool{"BY": true, "IR": true, "KP": true, "SY": true}

	mediumRiskSet = toSet(mediumRiskCountries)
	highRiskSet   = toSet(highRiskCountries)
)

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

// complianceLabels is the multi-label vocabulary, in column order.
var complianceLabels = []string{"AML", "STRUCTURING", "SANCTIONS", "PEP", "HIGH_RISK_COUNTRY", "UNUSUAL_PATTERN"}

var (
	complianceSegments     = []string{"retail", "corporate", "private_banking", "wealth_management"}
	complianceSegmentProbs = []float64{0.60, 0.25, 0.10, 0.05}
	complianceChannels     = []string{"wire", "ach", "swift", "internal", "cash_deposit"}

	complianceChannelProbs = map[string][]float64{
		"retail":            {0.10, 0.50, 0.05, 0.25, 0.10},
		"corporate":         {0.35, 0.35, 0.20, 0.10, 0.00},
		"private_banking":   {0.45, 0.15, 0.35, 0.05, 0.00},
		"wealth_management": {0.40, 0.10, 0.45, 0.05, 0.00},
	}

	// Fraction of country picks per risk tier: low, medium, high.
	countryWeights = map[string][3]float64{
		"retail":            {0.85, 0.12, 0.03},
		"corporate":         {0.75, 0.18, 0.07},
		"private_banking":   {0.65, 0.22, 0.13},
		"wealth_management": {0.60, 0.25, 0.15},
	}

	// Log-normal mean of the amount by segment (ln dollars).
	amountLogMean = map[string]float64{
		"retail":            6.5,  // ~$665 median
		"corporate":         9.0,  // ~$8,100 median
		"private_banking":   10.5, // ~$36,000 median
		"wealth_management": 11.0, // ~$60,000 median
	}
)

var complianceColumns = func() []parquetColumn {
	cols := []parquetColumn{
		{Name: "timestamp", Kind: kindTimestampMicros},
		{Name: "transaction_id", Kind: kindString},
		{Name: "account_id", Kind: kindString},
		{Name: "customer_segment", Kind: kindString},
		{Name: "channel", Kind: kindString},
		{Name: "sender_country", Kind: kindString},
		{Name: "receiver_country", Kind: kindString},
		{Name: "transaction_amount", Kind: kindDouble},
		{Name: "account_age_months", Kind: kindInt64},
		{Name: "transaction_frequency_7d", Kind: kindInt64},
		{Name: "ground_truth_labels", Kind: kindStringList},
		{Name: "predicted_labels", Kind: kindStringList},
	}
	for _, label := range complianceLabels {
		cols = append(cols, parquetColumn{Name: "pred_prob_" + label, Kind: kindDouble})
	}
	return cols
}()

// DefaultComplianceConfig returns the standard ±90 day, 50 txn/hour
// setup.
func DefaultComplianceConfig(outputDir string) HourlyConfig {
	return HourlyConfig{
		OutputDir:  outputDir,
		PastDays:   90,
		FutureDays: 90,
		PerHour:    50,
		Seed:       42,
	}
}

// ComplianceStats summarizes a compliance alert run.
type ComplianceStats struct {
	TotalTransactions int
	LabelCounts       map[string]int
	FilesCreated      int
	DateRange         string
}

// LabelRate returns the prevalence of a label over the run.
func (s *ComplianceStats) LabelRate(label string) float64 {
	if s.TotalTransactions == 0 {
		return 0
	}
	return float64(s.LabelCounts[label]) / float64(s.TotalTransactions)
}

// complianceAccount is one member of the fixed customer base; its
// properties stay constant for the whole window.
type complianceAccount struct {
	id       string
	segment  string
	age      int // months
	baseFreq int // 7-day transaction baseline
}

// countryProbs spreads each tier's weight uniformly across its members,
// ordered low | medium | high.
func countryProbs(segment string) ([]string, []float64) {
	w := countryWeights[segment]
	countries := make([]string, 0, len(lowRiskCountries)+len(mediumRiskCountries)+len(highRiskCountries))
	probs := make([]float64, 0, cap(countries))
	for _, c := range lowRiskCountries {
		countries = append(countries, c)
		probs = append(probs, w[0]/float64(len(lowRiskCountries)))
	}
	for _, c := range mediumRiskCountries {
		countries = append(countries, c)
		probs = append(probs, w[1]/float64(len(mediumRiskCountries)))
	}
	for _, c := range highRiskCountries {
		countries = append(countries, c)
		probs = append(probs, w[2]/float64(len(highRiskCountries)))
	}
	return countries, probs
}

// groundTruthProbs computes the probability each compliance label applies
// to a transaction, keyed in complianceLabels order.
func groundTruthProbs(amount float64, senderCountry, receiverCountry, segment, channel string,
	accountAge, txnFreq7d, baseFreq int) map[string]float64 {

	involvesHighRisk := highRiskSet[senderCountry] || highRiskSet[receiverCountry]
	involvesMediumRisk := mediumRiskSet[senderCountry] || mediumRiskSet[receiverCountry]
	involvesSanctions := sanctionsSet[senderCountry] || sanctionsSet[receiverCountry]

	// AML: large cross-border volumes, high-risk jurisdictions, frequency.
	aml := 0.03
	if amount > 50000 {
		aml *= 1.8
	}
	if involvesHighRisk {
		aml *= 2.5
	}
	if txnFreq7d > 10 {
		aml *= 1.5
	}
	if segment == "private_banking" || segment == "wealth_management" {
		aml *= 1.3
	}

	// STRUCTURING: amounts just below the $10k CTR reporting threshold.
	structuring := 0.02
	if amount >= 8000 && amount <= 9999 {
		structuring *= 8.0
	}
	if txnFreq7d > 5 {
		structuring *= 2.0
	}
	if channel == "cash_deposit" || channel == "ach" {
		structuring *= 1.5
	}

	sanctions := 0.01
	if involvesSanctions {
		sanctions *= 20.0
	} else if involvesHighRisk {
		sanctions *= 3.0
	}

	pep := map[string]float64{
		"retail": 0.01, "corporate": 0.03,
		"private_banking": 0.08, "wealth_management": 0.12,
	}[segment]
	if amount > 100000 {
		pep *= 1.5
	}

	var hrisk float64
	switch {
	case involvesHighRisk:
		hrisk = 0.80
	case involvesMediumRisk:
		hrisk = 0.30
	default:
		hrisk = 0.04
	}

	// UNUSUAL_PATTERN: new account with high activity, or a frequency
	// spike over the account's own baseline.
	unusual := 0.04
	if accountAge < 3 && txnFreq7d > 3 {
		unusual *= 4.0
	} else if txnFreq7d > baseFreq*3+1 {
		unusual *= 3.0
	}
	if accountAge < 12 && amount > 20000 {
		unusual *= 1.8
	}

	return map[string]float64{
		"AML":               min(aml, 0.40),
		"STRUCTURING":       min(structuring, 0.35),
		"SANCTIONS":         min(sanctions, 0.55),
		"PEP":               min(pep, 0.30),
		"HIGH_RISK_COUNTRY": min(hrisk, 0.90),
		"UNUSUAL_PATTERN":   min(unusual, 0.50),
	}
}

// GenerateCompliance writes the multi-label compliance alert dataset as
// daily parquet partitions with per-label confidence scores and label
// arrays.
func GenerateCompliance(ctx context.Context, cfg HourlyConfig, logger *zap.Logger) (*ComplianceStats, error) {
	w, err := ResolveWindow(cfg.StartDate, cfg.EndDate, cfg.PastDays, cfg.FutureDays, time.Now())
	if err != nil {
		return nil, err
	}
	return generateComplianceWindow(ctx, cfg, w, logger)
}

// GenerateComplianceReference writes the baseline slice of the window.
func GenerateComplianceReference(ctx context.Context, cfg HourlyConfig, referenceDays int, logger *zap.Logger) (*ComplianceStats, error) {
	w, err := ResolveWindow(cfg.StartDate, cfg.EndDate, cfg.PastDays, cfg.FutureDays, time.Now())
	if err != nil {
		return nil, err
	}
	return generateComplianceWindow(ctx, cfg, w.Reference(referenceDays), logger)
}

func generateComplianceWindow(ctx context.Context, cfg HourlyConfig, w Window, logger *zap.Logger) (*ComplianceStats, error) {
	s := dist.New(cfg.Seed)

	accountNums := s.SampleWithoutReplacement(100000, 999999, 500)
	accounts := make([]complianceAccount, len(accountNums))
	for i, n := range accountNums {
		accounts[i] = complianceAccount{
			id:       fmt.Sprintf("acct_%06d", n),
			segment:  s.Choice(complianceSegments, complianceSegmentProbs),
			age:      s.IntRange(1, 241),
			baseFreq: s.Poisson(5),
		}
	}

	stats := &ComplianceStats{
		LabelCounts: make(map[string]int, len(complianceLabels)),
		DateRange:   w.String(),
	}

	byDate := make(map[string][]map[string]any)
	var dateOrder []string

	// End date's midnight is the last emitted hour, matching the hourly
	// fraud generator.
	for hourDt := w.Start; !hourDt.After(w.End); hourDt = hourDt.Add(time.Hour) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		date := hourDt.Format("2006-01-02")
		if _, ok := byDate[date]; !ok {
			dateOrder = append(dateOrder, date)
			byDate[date] = nil
		}

		for i := 0; i < cfg.PerHour; i++ {
			acct := accounts[s.IntN(len(accounts))]

			channel := complianceChannels[s.ChoiceIndex(complianceChannelProbs[acct.segment])]
			countries, probs := countryProbs(acct.segment)
			senderCountry := countries[s.ChoiceIndex(probs)]
			receiverCountry := countries[s.ChoiceIndex(probs)]
			amount := round(min(s.LogNormal(amountLogMean[acct.segment], 1.2), 10000000.0), 2)
			txnFreq7d := int(s.Normal(float64(acct.baseFreq), 2))
			if txnFreq7d < 0 {
				txnFreq7d = 0
			}

			gtProb := groundTruthProbs(amount, senderCountry, receiverCountry,
				acct.segment, channel, acct.age, txnFreq7d, acct.baseFreq)

			var gtLabels []string
			for _, label := range complianceLabels {
				if s.Bernoulli(gtProb[label]) {
					gtLabels = append(gtLabels, label)
				}
			}
			sort.Strings(gtLabels)
			gtSet := toSet(gtLabels)

			// Confidence correlates with the truth but stays imperfect:
			// positive labels pull from Beta(5,3), negatives from Beta(2,8).
			predScores := make(map[string]float64, len(complianceLabels))
			var predLabels []string
			for _, label := range complianceLabels {
				var score float64
				if gtSet[label] {
					score = gtProb[label]*0.4 + s.Beta(5, 3)*0.6
				} else {
					score = gtProb[label]*0.4 + s.Beta(2, 8)*0.6
				}
				score = round(dist.Clamp(score, 0.0, 1.0), 6)
				predScores[label] = score
				if score >= 0.5 {
					predLabels = append(predLabels, label)
				}
			}
			sort.Strings(predLabels)

			if gtLabels == nil {
				gtLabels = []string{}
			}
			if predLabels == nil {
				predLabels = []string{}
			}

			row := map[string]any{
				"timestamp":                hourDt.UnixMicro(),
				"transaction_id":           RecordID(hourDt, i),
				"account_id":               acct.id,
				"customer_segment":         acct.segment,
				"channel":                  channel,
				"sender_country":           senderCountry,
				"receiver_country":         receiverCountry,
				"transaction_amount":       amount,
				"account_age_months":       int64(acct.age),
				"transaction_frequency_7d": int64(txnFreq7d),
				"ground_truth_labels":      gtLabels,
				"predicted_labels":         predLabels,
			}
			for _, label := range complianceLabels {
				row["pred_prob_"+label] = predScores[label]
			}
			byDate[date] = append(byDate[date], row)

			stats.TotalTransactions++
			for _, label := range gtLabels {
				stats.LabelCounts[label]++
			}
		}
	}

	for _, date := range dateOrder {
		if _, err := writeParquetPartition(cfg.OutputDir, date, complianceColumns, byDate[date]); err != nil {
			return nil, err
		}
		stats.FilesCreated++
	}

	logger.Info("Compliance alert dataset generated",
		zap.String("range", stats.DateRange),
		zap.Int("transactions", stats.TotalTransactions),
		zap.Int("files", stats.FilesCreated))
	return stats, nil
}
