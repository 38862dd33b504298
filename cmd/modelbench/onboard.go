package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelbench/internal/onboard"
	"modelbench/internal/platform"
)

var (
	onboardProjectID     string
	onboardDataPlaneID   string
	onboardConnectorName string
	onboardModelName     string
	onboardModelDesc     string
	onboardFilePrefix    string
	onboardFileSuffix    string
	onboardFileType      string
	onboardTimestampCol  string
	onboardPredictionCol string
	onboardGroundTruth   string
	onboardCSVHeader     bool
)

// onboardCmd groups the end-to-end model onboarding flows
var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Onboard a model: connector, dataset, metrics, schedule",
	Long: `Runs the full onboarding flow against the platform:

  1. Reuses or creates an S3 connector for the configured bucket
  2. Registers the dataset and runs schema inspection on the data plane
  3. Tags the timestamp, prediction, and ground-truth columns
  4. Creates the model with baseline aggregations
  5. Sets the hourly metrics refresh schedule`,
}

var onboardRegressionCmd = &cobra.Command{
	Use:   "regression",
	Short: "Onboard a regression model over Parquet or CSV partitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnboard(cmd, platform.ProblemTypeRegression)
	},
}

var onboardFraudCmd = &cobra.Command{
	Use:   "fraud",
	Short: "Onboard a binary classifier over hourly JSON partitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Hourly JSON layout unless explicitly overridden.
		if !cmd.Flags().Changed("file-type") {
			onboardFileType = "json"
		}
		if !cmd.Flags().Changed("file-suffix") {
			onboardFileSuffix = ".*.json"
		}
		if !cmd.Flags().Changed("file-prefix") {
			onboardFilePrefix = "year=%Y/month=%m/day=%d"
		}
		return runOnboard(cmd, platform.ProblemTypeBinaryClassifier)
	},
}

func runOnboard(cmd *cobra.Command, problemType platform.ModelProblemType) error {
	if onboardProjectID == "" {
		onboardProjectID = cfg.Platform.ProjectID
	}
	if onboardProjectID == "" {
		return fmt.Errorf("--project is required (or set platform.project_id)")
	}
	if onboardModelName == "" {
		return fmt.Errorf("--model is required")
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}

	client, err := newPlatformClient(cmd.Context())
	if err != nil {
		return err
	}

	connectorName := onboardConnectorName
	if connectorName == "" {
		connectorName = cfg.Storage.Bucket
	}

	dataPlaneID := onboardDataPlaneID
	if dataPlaneID == "" {
		dataPlaneID = cfg.Platform.DataPlaneID
	}

	flow := onboard.Flow{
		ProjectID:     onboardProjectID,
		DataPlaneID:   dataPlaneID,
		ConnectorName: connectorName,
		Source: onboard.S3Source{
			Bucket:          cfg.Storage.Bucket,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			RoleARN:         cfg.Storage.RoleARN,
			ExternalID:      cfg.Storage.ExternalID,
		},
		Layout: onboard.FileLayout{
			Prefix:       onboardFilePrefix,
			Suffix:       onboardFileSuffix,
			FileType:     onboardFileType,
			CSVHasHeader: onboardCSVHeader,
		},
		ModelName:         onboardModelName,
		ModelDescription:  onboardModelDesc,
		ProblemType:       problemType,
		TimestampColumn:   onboardTimestampCol,
		PredictionColumn:  onboardPredictionCol,
		GroundTruthColumn: onboardGroundTruth,
	}

	result, err := onboard.New(client, logger).Run(cmd.Context(), flow)
	if err != nil {
		return err
	}

	fmt.Printf("Onboarding complete\n")
	fmt.Printf("  Model ID:     %s\n", result.ModelID)
	fmt.Printf("  Dataset ID:   %s\n", result.DatasetID)
	fmt.Printf("  Connector ID: %s\n", result.ConnectorID)
	return nil
}

func init() {
	pf := onboardCmd.PersistentFlags()
	pf.StringVar(&onboardProjectID, "project", "", "Platform project ID")
	pf.StringVar(&onboardDataPlaneID, "data-plane", "", "Data plane ID (default: first in workspace)")
	pf.StringVar(&onboardConnectorName, "connector", "", "Connector name (default: bucket name)")
	pf.StringVar(&onboardModelName, "model", "", "Model name (required)")
	pf.StringVar(&onboardModelDesc, "description", "", "Model description")
	pf.StringVar(&onboardFilePrefix, "file-prefix", "", "Object key prefix, strftime-style (e.g. housing-price/%Y-%m-%d)")
	pf.StringVar(&onboardFileSuffix, "file-suffix", ".*.parquet", "Object key suffix pattern")
	pf.StringVar(&onboardFileType, "file-type", "parquet", "Data file type: json, parquet, or csv")
	pf.StringVar(&onboardTimestampCol, "timestamp-column", "timestamp", "Primary timestamp column")
	pf.StringVar(&onboardPredictionCol, "prediction-column", "", "Prediction column")
	pf.StringVar(&onboardGroundTruth, "ground-truth-column", "", "Ground truth column")
	pf.BoolVar(&onboardCSVHeader, "csv-header", true, "CSV files have a header row")

	onboardCmd.AddCommand(onboardRegressionCmd)
	onboardCmd.AddCommand(onboardFraudCmd)
}
