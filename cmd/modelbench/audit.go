package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"modelbench/internal/audit"
)

var (
	auditModelID       string
	auditMetricName    string
	auditOutput        string
	auditStartDate     string
	auditEndDate       string
	auditDays          []string
	auditIncludeAlerts bool
)

// auditCmd exports governance evidence
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Export metric values, thresholds, and alerts as audit evidence",
	Long: `Exports historical metric values, alert-rule thresholds, and alert
events for a model as a CSV suitable for governance evidence. The
export is read-only and deterministic: rows are ordered by date, then
metric name.

Select days with --start-date/--end-date (inclusive range) OR an
explicit --days list, never both.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if auditModelID == "" || auditMetricName == "" || auditOutput == "" {
			return fmt.Errorf("--model-id, --metric-name, and --output are required")
		}

		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}

		exporter := audit.New(client, logger)
		rows, err := exporter.Export(cmd.Context(), audit.Config{
			ModelID:    auditModelID,
			MetricName: auditMetricName,
			Dates: audit.DateSelection{
				StartDate: auditStartDate,
				EndDate:   auditEndDate,
				Days:      auditDays,
			},
			IncludeAlerts: auditIncludeAlerts,
		})
		if err != nil {
			return err
		}

		f, err := os.Create(auditOutput)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", auditOutput, err)
		}
		defer f.Close()

		if err := audit.WriteCSV(f, rows); err != nil {
			return err
		}
		logger.Info("Wrote audit evidence",
			zap.String("output", auditOutput), zap.Int("rows", len(rows)))
		return nil
	},
}

func init() {
	f := auditCmd.Flags()
	f.StringVar(&auditModelID, "model-id", "", "Model ID (required)")
	f.StringVar(&auditMetricName, "metric-name", "", "Metric name / control ID to export (required)")
	f.StringVar(&auditOutput, "output", "", "Output CSV path (required)")
	f.StringVar(&auditStartDate, "start-date", "", "Range start (YYYY-MM-DD, inclusive)")
	f.StringVar(&auditEndDate, "end-date", "", "Range end (YYYY-MM-DD, inclusive)")
	f.StringSliceVar(&auditDays, "days", nil, "Explicit dates (YYYY-MM-DD, repeatable)")
	f.BoolVar(&auditIncludeAlerts, "include-alerts", false, "Include alert_fired, alert_id, and alert_timestamp columns")
}
