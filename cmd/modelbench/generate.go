package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"modelbench/internal/datagen"
)

var (
	genOutput     string
	genStartDate  string
	genEndDate    string
	genPastDays   int
	genFutureDays int
	genPerHour    int
	genSamples    int
	genSeed       uint64
	genReference  bool
	genRefDays    int
	genHousingCSV string
)

// generateCmd groups the dataset generators
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate seeded synthetic inference datasets",
	Long: `Generates deterministic synthetic datasets with engineered
statistical correlations for model-monitoring demos. The same seed
always produces byte-identical output.`,
}

var generateFraudCmd = &cobra.Command{
	Use:     "card-fraud",
	Aliases: []string{"fraud"},
	Short:   "Generate the hourly card-fraud JSON dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := datagen.DefaultFraudConfig(output(datagen.FraudDatasetDir))
		cfg.StartDate = genStartDate
		cfg.EndDate = genEndDate
		cfg.PastDays = genPastDays
		cfg.FutureDays = genFutureDays
		cfg.PerHour = genPerHour
		cfg.Seed = genSeed

		if genReference {
			cfg.OutputDir = output(datagen.FraudDatasetDir + "-reference")
			stats, err := datagen.GenerateFraudReference(cmd.Context(), cfg, genRefDays, logger)
			return report(stats, err)
		}
		stats, err := datagen.GenerateFraud(cmd.Context(), cfg, logger)
		return report(stats, err)
	},
}

var generateCreditAppCmd = &cobra.Command{
	Use:     "credit-application",
	Aliases: []string{"credit-app"},
	Short:   "Generate the credit application Parquet dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := datagen.DefaultTabularConfig(output(datagen.CreditAppDatasetDir))
		cfg.NSamples = genSamples
		cfg.Seed = genSeed
		cfg.PastDays = genPastDays
		cfg.FutureDays = genFutureDays

		stats, err := datagen.GenerateCreditApp(cmd.Context(), cfg, logger)
		return report(stats, err)
	},
}

var generateLoanCmd = &cobra.Command{
	Use:     "loan-amount",
	Aliases: []string{"loan"},
	Short:   "Generate the loan amount prediction Parquet dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := datagen.DefaultTabularConfig(output(datagen.LoanDatasetDir))
		cfg.NSamples = genSamples
		cfg.Seed = genSeed
		cfg.PastDays = genPastDays
		cfg.FutureDays = genFutureDays

		stats, err := datagen.GenerateLoan(cmd.Context(), cfg, logger)
		return report(stats, err)
	},
}

var generateHousingCmd = &cobra.Command{
	Use:     "housing-price",
	Aliases: []string{"housing"},
	Short:   "Generate the housing price CSV dataset from a source CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		if genHousingCSV == "" {
			return fmt.Errorf("--input is required")
		}
		cfg := datagen.DefaultHousingConfig(genHousingCSV, output(datagen.HousingDatasetDir))
		cfg.Seed = genSeed
		cfg.PastDays = genPastDays
		cfg.FutureDays = genFutureDays

		stats, err := datagen.GenerateHousing(cmd.Context(), cfg, logger)
		return report(stats, err)
	},
}

var generateTxnCategoryCmd = &cobra.Command{
	Use:   "txn-category",
	Short: "Generate the multi-class transaction category Parquet dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := datagen.DefaultTxnCategoryConfig(output(datagen.TxnCategoryDatasetDir))
		cfg.StartDate = genStartDate
		cfg.EndDate = genEndDate
		cfg.PastDays = genPastDays
		cfg.FutureDays = genFutureDays
		cfg.PerHour = genPerHour
		cfg.Seed = genSeed

		if genReference {
			cfg.OutputDir = output(datagen.TxnCategoryDatasetDir + "-reference")
			stats, err := datagen.GenerateTxnCategoryReference(cmd.Context(), cfg, genRefDays, logger)
			return report(stats, err)
		}
		stats, err := datagen.GenerateTxnCategory(cmd.Context(), cfg, logger)
		return report(stats, err)
	},
}

var generateComplianceCmd = &cobra.Command{
	Use:     "compliance-alerts",
	Aliases: []string{"compliance"},
	Short:   "Generate the multi-label compliance alerts Parquet dataset",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := datagen.DefaultComplianceConfig(output(datagen.ComplianceDatasetDir))
		cfg.StartDate = genStartDate
		cfg.EndDate = genEndDate
		cfg.PastDays = genPastDays
		cfg.FutureDays = genFutureDays
		cfg.PerHour = genPerHour
		cfg.Seed = genSeed

		if genReference {
			cfg.OutputDir = output(datagen.ComplianceDatasetDir + "-reference")
			stats, err := datagen.GenerateComplianceReference(cmd.Context(), cfg, genRefDays, logger)
			return report(stats, err)
		}
		stats, err := datagen.GenerateCompliance(cmd.Context(), cfg, logger)
		return report(stats, err)
	},
}

var generateAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Generate every dataset plus reference variants",
	RunE: func(cmd *cobra.Command, args []string) error {
		acfg := datagen.DefaultAllConfig(genOutput)
		acfg.HousingCSV = genHousingCSV
		acfg.Seed = genSeed
		acfg.PastDays = genPastDays
		acfg.FutureDays = genFutureDays
		acfg.ReferenceDays = genRefDays
		acfg.Concurrency = cfg.Generate.Concurrency

		stats, err := datagen.GenerateAll(cmd.Context(), acfg, logger)
		if err != nil {
			return err
		}
		logger.Info("Generated all datasets",
			zap.String("base_dir", genOutput), zap.Any("stats", stats))
		return nil
	},
}

// output resolves a dataset directory under the base output directory.
func output(name string) string {
	return filepath.Join(genOutput, name)
}

func report(stats any, err error) error {
	if err != nil {
		return err
	}
	logger.Info("Generation complete", zap.Any("stats", stats))
	return nil
}

func init() {
	pf := generateCmd.PersistentFlags()
	pf.StringVarP(&genOutput, "output", "o", "data", "Base output directory")
	pf.StringVar(&genStartDate, "start-date", "", "Start date (YYYY-MM-DD); overrides --past-days")
	pf.StringVar(&genEndDate, "end-date", "", "End date (YYYY-MM-DD); overrides --future-days")
	pf.IntVar(&genPastDays, "past-days", 90, "Days before today to start")
	pf.IntVar(&genFutureDays, "future-days", 90, "Days after today to end")
	pf.IntVar(&genPerHour, "per-hour", 60, "Records per hour (hourly generators)")
	pf.IntVar(&genSamples, "samples", 1000, "Total sample count (tabular generators)")
	pf.Uint64Var(&genSeed, "seed", 42, "Random seed")
	pf.BoolVar(&genReference, "reference", false, "Generate the reference variant instead")
	pf.IntVar(&genRefDays, "reference-days", 14, "Days covered by reference datasets")

	generateHousingCmd.Flags().StringVar(&genHousingCSV, "input", "", "Source housing CSV path (required)")
	generateAllCmd.Flags().StringVar(&genHousingCSV, "housing-csv", "", "Source housing CSV path (housing skipped when empty)")

	generateCmd.AddCommand(generateFraudCmd)
	generateCmd.AddCommand(generateCreditAppCmd)
	generateCmd.AddCommand(generateLoanCmd)
	generateCmd.AddCommand(generateHousingCmd)
	generateCmd.AddCommand(generateTxnCategoryCmd)
	generateCmd.AddCommand(generateComplianceCmd)
	generateCmd.AddCommand(generateAllCmd)
}
