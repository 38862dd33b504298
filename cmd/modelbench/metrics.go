package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"modelbench/internal/onboard"
)

var (
	metricsModelID      string
	metricsWorkspaceID  string
	metricsTimestamp    string
	metricsPrediction   string
	metricsGroundTruth  string
	metricsThreshold    float64
	metricsDatasetMap   []string
	metricsNumericCols  []string
	metricsCategorical  []string
	metricsSegmentation []string
	metricsTrueLabel    string
	metricsFalseLabel   string
	metricsYes          bool
)

// metricsCmd groups metric configuration commands
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Configure model metrics and custom aggregations",
}

var metricsAddRegressionCmd = &cobra.Command{
	Use:   "add-regression",
	Short: "Add the standard regression aggregation set to a model",
	Long: `Adds inference counts, sums and distributions of the prediction and
ground-truth columns, distributions of the listed numeric features,
category counts, MAE/MSE, and per-column null counts. Aggregations the
model already has are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if metricsModelID == "" {
			return fmt.Errorf("--model-id is required")
		}
		if metricsPrediction == "" || metricsGroundTruth == "" {
			return fmt.Errorf("--prediction-column and --ground-truth-column are required")
		}
		if err := confirm(cmd, metricsYes,
			fmt.Sprintf("Replace the metric configuration of model %s?", metricsModelID)); err != nil {
			return err
		}

		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}
		update, err := onboard.New(client, logger).AddRegressionMetrics(cmd.Context(), metricsModelID, onboard.RegressionColumns{
			Timestamp:   metricsTimestamp,
			Prediction:  metricsPrediction,
			GroundTruth: metricsGroundTruth,
			Numeric:     metricsNumericCols,
			Categorical: metricsCategorical,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Metrics updated: %d added, %d skipped, %d total\n",
			update.Added, update.Skipped, update.Total)
		return nil
	},
}

var metricsAddFraudCmd = &cobra.Command{
	Use:   "add-fraud",
	Short: "Add the thresholded-classifier aggregation set to a model",
	Long: `Adds inference counts, sums and distributions of the score and label
columns, category counts, a segmented confusion matrix, segmented
per-class counts, and per-column null counts. Aggregations the model
already has are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if metricsModelID == "" {
			return fmt.Errorf("--model-id is required")
		}
		if metricsPrediction == "" || metricsGroundTruth == "" {
			return fmt.Errorf("--prediction-column and --ground-truth-column are required")
		}
		if err := confirm(cmd, metricsYes,
			fmt.Sprintf("Replace the metric configuration of model %s?", metricsModelID)); err != nil {
			return err
		}

		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}
		update, err := onboard.New(client, logger).AddFraudMetrics(cmd.Context(), metricsModelID, onboard.FraudColumns{
			Timestamp:    metricsTimestamp,
			Prediction:   metricsPrediction,
			GroundTruth:  metricsGroundTruth,
			Numeric:      metricsNumericCols,
			Categorical:  metricsCategorical,
			Segmentation: metricsSegmentation,
			Threshold:    metricsThreshold,
			TrueLabel:    metricsTrueLabel,
			FalseLabel:   metricsFalseLabel,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Metrics updated: %d added, %d skipped, %d total\n",
			update.Added, update.Skipped, update.Total)
		return nil
	},
}

var metricsPredictionStatsCmd = &cobra.Command{
	Use:   "prediction-stats",
	Short: "Add prediction sum and distribution metrics to a model",
	RunE: func(cmd *cobra.Command, args []string) error {
		if metricsModelID == "" {
			return fmt.Errorf("--model-id is required")
		}
		if metricsPrediction == "" {
			return fmt.Errorf("--prediction-column is required")
		}
		if err := confirm(cmd, metricsYes,
			fmt.Sprintf("Replace the metric configuration of model %s?", metricsModelID)); err != nil {
			return err
		}

		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}
		update, err := onboard.New(client, logger).AddPredictionStats(
			cmd.Context(), metricsModelID, metricsTimestamp, metricsPrediction)
		if err != nil {
			return err
		}
		fmt.Printf("Metrics updated: %d added, %d skipped, %d total\n",
			update.Added, update.Skipped, update.Total)
		return nil
	},
}

var metricsErrorProfileCmd = &cobra.Command{
	Use:   "add-error-profile [binary|regression]",
	Short: "Register an error-profile SQL aggregation and attach it to a model",
	Long: `Registers a workspace-scoped SQL custom aggregation and adds it
to the model's metric configuration.

  binary      7 daily confusion-matrix rates (false positive rate,
              accuracy, over/under-prediction) for thresholded
              classifiers
  regression  signed, absolute, and percentage error distributions`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if metricsModelID == "" || metricsWorkspaceID == "" {
			return fmt.Errorf("--model-id and --workspace-id are required")
		}
		if err := confirm(cmd, metricsYes,
			fmt.Sprintf("Register a custom aggregation and attach it to model %s?", metricsModelID)); err != nil {
			return err
		}

		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}
		o := onboard.New(client, logger)

		epCfg := onboard.ErrorProfileConfig{
			WorkspaceID:       metricsWorkspaceID,
			ModelID:           metricsModelID,
			TimestampColumn:   metricsTimestamp,
			PredictionColumn:  metricsPrediction,
			GroundTruthColumn: metricsGroundTruth,
			Threshold:         metricsThreshold,
		}

		switch args[0] {
		case "binary":
			agg, err := o.CreatePositiveClassErrorProfile(cmd.Context(), epCfg)
			if err != nil {
				return err
			}
			fmt.Printf("Created aggregation %s (%s)\n", agg.Name, agg.ID)
		case "regression":
			agg, err := o.CreateRegressionErrorProfile(cmd.Context(), epCfg)
			if err != nil {
				return err
			}
			fmt.Printf("Created aggregation %s (%s)\n", agg.Name, agg.ID)
		default:
			return fmt.Errorf("unknown profile %q (binary or regression)", args[0])
		}
		return nil
	},
}

var metricsDuplicateCmd = &cobra.Command{
	Use:   "duplicate",
	Short: "Copy a model's metrics from old datasets to their replacements",
	Long: `Copies aggregation specs from old datasets to new ones, remapping
column references by source name. Metrics already targeting the new
datasets are replaced; metrics on the old datasets are left untouched.

Example:
  modelbench metrics duplicate --model-id <id> \
      --map <old-dataset-id>=<new-dataset-id>`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if metricsModelID == "" {
			return fmt.Errorf("--model-id is required")
		}
		if len(metricsDatasetMap) == 0 {
			return fmt.Errorf("at least one --map old=new pair is required")
		}

		mapping := make(map[string]string, len(metricsDatasetMap))
		for _, pair := range metricsDatasetMap {
			oldID, newID, ok := strings.Cut(pair, "=")
			if !ok || oldID == "" || newID == "" {
				return fmt.Errorf("invalid --map value %q, expected old-id=new-id", pair)
			}
			mapping[oldID] = newID
		}

		if err := confirm(cmd, metricsYes,
			fmt.Sprintf("Replace the metrics of %d dataset(s) on model %s?", len(mapping), metricsModelID)); err != nil {
			return err
		}

		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}

		result, err := onboard.New(client, logger).DuplicateMetrics(cmd.Context(), metricsModelID, mapping)
		if err != nil {
			return err
		}
		fmt.Printf("Duplicated metrics: %d retained, %d created, %d skipped, %d total\n",
			result.Retained, result.Created, result.Skipped, result.Total)
		return nil
	},
}

func init() {
	pf := metricsCmd.PersistentFlags()
	pf.StringVar(&metricsModelID, "model-id", "", "Model ID")
	pf.StringVar(&metricsWorkspaceID, "workspace-id", "", "Workspace ID")
	pf.StringVar(&metricsTimestamp, "timestamp-column", "timestamp", "Primary timestamp column")
	pf.StringVar(&metricsPrediction, "prediction-column", "", "Prediction column")
	pf.StringVar(&metricsGroundTruth, "ground-truth-column", "", "Ground truth column")
	pf.BoolVarP(&metricsYes, "yes", "y", false, "Skip the confirmation prompt")

	metricsAddRegressionCmd.Flags().StringSliceVar(&metricsNumericCols, "numeric-columns", nil, "Numeric feature columns (missing names are skipped)")
	metricsAddRegressionCmd.Flags().StringSliceVar(&metricsCategorical, "categorical-columns", nil, "Categorical feature columns (missing names are skipped)")

	ff := metricsAddFraudCmd.Flags()
	ff.StringSliceVar(&metricsNumericCols, "numeric-columns", nil, "Numeric feature columns (missing names are skipped)")
	ff.StringSliceVar(&metricsCategorical, "categorical-columns", nil, "Categorical feature columns (missing names are skipped)")
	ff.StringSliceVar(&metricsSegmentation, "segmentation-columns", nil, "Segmentation columns for confusion matrix and class counts")
	ff.Float64Var(&metricsThreshold, "threshold", 0.5, "Classification threshold")
	ff.StringVar(&metricsTrueLabel, "true-label", "Fraud", "Label for predictions above the threshold")
	ff.StringVar(&metricsFalseLabel, "false-label", "Authorized", "Label for predictions below the threshold")

	metricsErrorProfileCmd.Flags().Float64Var(&metricsThreshold, "threshold", 0.5, "Classification threshold (binary profile)")

	metricsDuplicateCmd.Flags().StringSliceVar(&metricsDatasetMap, "map", nil, "Dataset mapping old-id=new-id (repeatable)")

	metricsCmd.AddCommand(metricsAddRegressionCmd)
	metricsCmd.AddCommand(metricsAddFraudCmd)
	metricsCmd.AddCommand(metricsPredictionStatsCmd)
	metricsCmd.AddCommand(metricsErrorProfileCmd)
	metricsCmd.AddCommand(metricsDuplicateCmd)
}
