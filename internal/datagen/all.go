package datagen

import (
	"context"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dataset directory names under the base output directory. The platform
// connector prefixes mirror these.
const (
	FraudDatasetDir       = "ccb-card-fraud"
	CreditAppDatasetDir   = "cc-application"
	LoanDatasetDir        = "loan-amount"
	HousingDatasetDir     = "housing-price"
	TxnCategoryDatasetDir = "multi-class-txn-category"
	ComplianceDatasetDir  = "multi-label-compliance"

	referenceSuffix = "-reference"
)

// AllConfig drives the generate-all run.
type AllConfig struct {
	BaseDir       string
	HousingCSV    string // optional; housing is skipped when empty
	Seed          uint64
	PastDays      int
	FutureDays    int
	ReferenceDays int
	Concurrency   int
}

// DefaultAllConfig returns the standard full-suite setup.
func DefaultAllConfig(baseDir string) AllConfig {
	return AllConfig{
		BaseDir:       baseDir,
		Seed:          42,
		PastDays:      90,
		FutureDays:    90,
		ReferenceDays: 14,
		Concurrency:   4,
	}
}

// AllStats aggregates per-dataset run statistics.
type AllStats struct {
	Fraud          *FraudStats
	FraudRef       *FraudStats
	CreditApp      *TabularStats
	Loan           *LoanStats
	Housing        *HousingStats
	TxnCategory    *TxnCategoryStats
	TxnCategoryRef *TxnCategoryStats
	Compliance     *ComplianceStats
	ComplianceRef  *ComplianceStats
}

// GenerateAll runs every generator, plus the three reference variants,
// with bounded concurrency. Each generator owns its own seeded sampler so
// parallel execution cannot perturb determinism.
func GenerateAll(ctx context.Context, cfg AllConfig, logger *zap.Logger) (*AllStats, error) {
	stats := &AllStats{}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)

	fraudCfg := DefaultFraudConfig(filepath.Join(cfg.BaseDir, FraudDatasetDir))
	fraudCfg.Seed = cfg.Seed
	fraudCfg.PastDays = cfg.PastDays
	fraudCfg.FutureDays = cfg.FutureDays
	g.Go(func() error {
		s, err := GenerateFraud(ctx, fraudCfg, logger)
		stats.Fraud = s
		return err
	})
	g.Go(func() error {
		refCfg := fraudCfg
		refCfg.OutputDir = filepath.Join(cfg.BaseDir, FraudDatasetDir+referenceSuffix)
		s, err := GenerateFraudReference(ctx, refCfg, cfg.ReferenceDays, logger)
		stats.FraudRef = s
		return err
	})

	tabCfg := DefaultTabularConfig(filepath.Join(cfg.BaseDir, CreditAppDatasetDir))
	tabCfg.Seed = cfg.Seed
	tabCfg.PastDays = cfg.PastDays
	tabCfg.FutureDays = cfg.FutureDays
	g.Go(func() error {
		s, err := GenerateCreditApp(ctx, tabCfg, logger)
		stats.CreditApp = s
		return err
	})
	g.Go(func() error {
		loanCfg := tabCfg
		loanCfg.OutputDir = filepath.Join(cfg.BaseDir, LoanDatasetDir)
		s, err := GenerateLoan(ctx, loanCfg, logger)
		stats.Loan = s
		return err
	})

	if cfg.HousingCSV != "" {
		g.Go(func() error {
			housingCfg := DefaultHousingConfig(cfg.HousingCSV, filepath.Join(cfg.BaseDir, HousingDatasetDir))
			housingCfg.Seed = cfg.Seed
			housingCfg.PastDays = cfg.PastDays
			housingCfg.FutureDays = cfg.FutureDays
			s, err := GenerateHousing(ctx, housingCfg, logger)
			stats.Housing = s
			return err
		})
	}

	txnCfg := DefaultTxnCategoryConfig(filepath.Join(cfg.BaseDir, TxnCategoryDatasetDir))
	txnCfg.Seed = cfg.Seed
	txnCfg.PastDays = cfg.PastDays
	txnCfg.FutureDays = cfg.FutureDays
	g.Go(func() error {
		s, err := GenerateTxnCategory(ctx, txnCfg, logger)
		stats.TxnCategory = s
		return err
	})
	g.Go(func() error {
		refCfg := txnCfg
		refCfg.OutputDir = filepath.Join(cfg.BaseDir, TxnCategoryDatasetDir+referenceSuffix)
		s, err := GenerateTxnCategoryReference(ctx, refCfg, cfg.ReferenceDays, logger)
		stats.TxnCategoryRef = s
		return err
	})

	compCfg := DefaultComplianceConfig(filepath.Join(cfg.BaseDir, ComplianceDatasetDir))
	compCfg.Seed = cfg.Seed
	compCfg.PastDays = cfg.PastDays
	compCfg.FutureDays = cfg.FutureDays
	g.Go(func() error {
		s, err := GenerateCompliance(ctx, compCfg, logger)
		stats.Compliance = s
		return err
	})
	g.Go(func() error {
		refCfg := compCfg
		refCfg.OutputDir = filepath.Join(cfg.BaseDir, ComplianceDatasetDir+referenceSuffix)
		s, err := GenerateComplianceReference(ctx, refCfg, cfg.ReferenceDays, logger)
		stats.ComplianceRef = s
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
