// Package audit exports historical metric values, thresholds, and alert
// events as CSV evidence for governance reviews. It is read-only against
// the platform.
package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"modelbench/internal/platform"
)

// Header is the evidence CSV column order.
var Header = []string{
	"date",
	"metric_name",
	"metric_value",
	"threshold",
	"threshold_operator",
	"control_pass",
	"alert_expected",
	"alert_fired",
	"alert_id",
	"alert_timestamp",
	"model_id",
	"evidence_generated_at",
}

// DateSelection picks the days to export: either an inclusive range or
// an explicit list, never both.
type DateSelection struct {
	StartDate string // YYYY-MM-DD
	EndDate   string // YYYY-MM-DD
	Days      []string
}

// Resolve validates the selection and returns the target days in
// ascending order, deduplicated.
func (s DateSelection) Resolve() ([]time.Time, error) {
	hasRange := s.StartDate != "" || s.EndDate != ""
	hasDays := len(s.Days) > 0

	switch {
	case hasRange && hasDays:
		return nil, fmt.Errorf("specify either a date range or explicit days, not both")
	case !hasRange && !hasDays:
		return nil, fmt.Errorf("a date range or explicit days is required")
	}

	if hasDays {
		seen := make(map[time.Time]bool, len(s.Days))
		var days []time.Time
		for _, raw := range s.Days {
			d, err := parseDay(raw)
			if err != nil {
				return nil, err
			}
			if !seen[d] {
				seen[d] = true
				days = append(days, d)
			}
		}
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
		return days, nil
	}

	if s.StartDate == "" || s.EndDate == "" {
		return nil, fmt.Errorf("both start and end dates are required for a range")
	}
	start, err := parseDay(s.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDay(s.EndDate)
	if err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, fmt.Errorf("start date %s is after end date %s", s.StartDate, s.EndDate)
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days, nil
}

func parseDay(raw string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
	}
	return d, nil
}

// dayWindow returns [start, end) covering the full UTC calendar day.
func dayWindow(d time.Time) (time.Time, time.Time) {
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// Config drives one evidence export.
type Config struct {
	ModelID       string
	MetricName    string
	Dates         DateSelection
	IncludeAlerts bool
}

// Row is one evidence line: one day crossed with one alert rule.
type Row struct {
	Date              string
	MetricName        string
	MetricValue       *float64
	Threshold         *float64
	ThresholdOperator string
	ControlPass       *bool
	AlertExpected     *bool
	AlertFired        *bool
	AlertID           string
	AlertTimestamp    string
	ModelID           string
	GeneratedAt       string
}

func (r Row) record() []string {
	return []string{
		r.Date,
		r.MetricName,
		formatFloat(r.MetricValue),
		formatFloat(r.Threshold),
		r.ThresholdOperator,
		formatBool(r.ControlPass),
		formatBool(r.AlertExpected),
		formatBool(r.AlertFired),
		r.AlertID,
		r.AlertTimestamp,
		r.ModelID,
		r.GeneratedAt,
	}
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'g', -1, 64)
}

func formatBool(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}

// Exporter assembles evidence rows from the platform.
type Exporter struct {
	client *platform.Client
	logger *zap.Logger
	now    func() time.Time
}

// New creates an Exporter.
func New(client *platform.Client, logger *zap.Logger) *Exporter {
	return &Exporter{client: client, logger: logger, now: time.Now}
}

// Export builds the evidence rows for the configured model and metric.
// Every requested day produces at least one row; when multiple alert
// rules watch the metric, each rule gets its own row so reviewers see
// all active controls.
func (e *Exporter) Export(ctx context.Context, cfg Config) ([]Row, error) {
	days, err := cfg.Dates.Resolve()
	if err != nil {
		return nil, err
	}

	rules, err := e.client.ListAlertRules(ctx, cfg.ModelID, cfg.MetricName)
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		e.logger.Warn("No alert rules found for metric, threshold columns will be empty",
			zap.String("metric", cfg.MetricName), zap.String("model_id", cfg.ModelID))
	}

	generatedAt := e.now().UTC().Format("2006-01-02T15:04:05Z")
	var rows []Row
	for _, day := range days {
		e.logger.Debug("Processing day", zap.String("date", day.Format("2006-01-02")))

		if len(rules) == 0 {
			rows = append(rows, Row{
				Date:        day.Format("2006-01-02"),
				MetricName:  cfg.MetricName,
				ModelID:     cfg.ModelID,
				GeneratedAt: generatedAt,
			})
			continue
		}

		for i := range rules {
			row, err := e.buildRow(ctx, cfg, &rules[i], day, generatedAt)
			if err != nil {
				return nil, err
			}
			rows = append(rows, row)
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Date != rows[j].Date {
			return rows[i].Date < rows[j].Date
		}
		return rows[i].MetricName < rows[j].MetricName
	})
	return rows, nil
}

func (e *Exporter) buildRow(ctx context.Context, cfg Config, rule *platform.AlertRule, day time.Time, generatedAt string) (Row, error) {
	row := Row{
		Date:              day.Format("2006-01-02"),
		MetricName:        cfg.MetricName,
		Threshold:         &rule.Threshold,
		ThresholdOperator: rule.Bound.Operator(),
		ModelID:           cfg.ModelID,
		GeneratedAt:       generatedAt,
	}

	value := e.metricValueForDay(ctx, cfg.ModelID, rule.Query, day)
	row.MetricValue = value

	if value != nil {
		violated := rule.Bound.Violated(*value, rule.Threshold)
		pass := !violated
		row.ControlPass = &pass
		row.AlertExpected = &violated
	}

	if cfg.IncludeAlerts {
		start, end := dayWindow(day)
		alerts, err := e.client.ListAlerts(ctx, cfg.ModelID, []string{rule.ID}, start, end)
		if err != nil {
			return Row{}, err
		}
		fired := len(alerts) > 0
		row.AlertFired = &fired
		if fired {
			first := earliestAlert(alerts)
			row.AlertID = first.ID
			row.AlertTimestamp = first.Timestamp.UTC().Format("2006-01-02T15:04:05Z")
		}
	}
	return row, nil
}

// metricValueForDay runs the rule's query over one calendar day and
// returns the first numeric value in the first result row. Query
// failures and empty results both yield nil so the export keeps going.
func (e *Exporter) metricValueForDay(ctx context.Context, modelID, query string, day time.Time) *float64 {
	start, end := dayWindow(day)
	result, err := e.client.QueryMetrics(ctx, modelID, platform.PostMetricsQuery{
		Query:     query,
		TimeRange: &platform.MetricsTimeRange{Start: start, End: end},
		Limit:     1,
	})
	if err != nil {
		e.logger.Warn("Metrics query failed",
			zap.String("date", day.Format("2006-01-02")), zap.Error(err))
		return nil
	}
	if len(result.Results) == 0 {
		return nil
	}

	// Scan columns in sorted key order so a multi-column result row
	// always yields the same value.
	row := result.Results[0]
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		switch n := row[k].(type) {
		case float64:
			return &n
		case int:
			f := float64(n)
			return &f
		}
	}
	return nil
}

func earliestAlert(alerts []platform.Alert) platform.Alert {
	first := alerts[0]
	for _, a := range alerts[1:] {
		if a.Timestamp.Before(first.Timestamp) {
			first = a
		}
	}
	return first
}

// WriteCSV writes the header and rows to w.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
