// Package onboard automates model onboarding against the monitoring
// platform: S3 connectors, dataset registration with schema inspection,
// metric configuration, and refresh schedules.
package onboard

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"modelbench/internal/platform"
)

// Default metrics schedule: hourly runs over a two-hour lookback so late
// arrivals in the previous window are still picked up.
const (
	ScheduleCron     = "0 */1 * * *"
	ScheduleLookback = 2 * 60 * 60
	ScheduleName     = "hourly"
)

// MissingColumnError reports a column name absent from a dataset schema.
type MissingColumnError struct {
	Dataset string
	Column  string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column %q not found in dataset %q schema", e.Column, e.Dataset)
}

// S3Source describes the bucket a dataset is read from.
type S3Source struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	RoleARN         string
	ExternalID      string
}

// ConnectorFields renders the source as connector spec fields. Static
// credentials and role assumption can both be present; the platform
// prefers the role.
func (s S3Source) ConnectorFields() []platform.KeyValue {
	fields := []platform.KeyValue{
		{Key: "bucket", Value: s.Bucket},
	}
	if s.Region != "" {
		fields = append(fields, platform.KeyValue{Key: "region", Value: s.Region})
	}
	if s.AccessKeyID != "" && s.SecretAccessKey != "" {
		fields = append(fields,
			platform.KeyValue{Key: "access_key_id", Value: s.AccessKeyID},
			platform.KeyValue{Key: "secret_access_key", Value: s.SecretAccessKey},
		)
	}
	if s.RoleARN != "" {
		fields = append(fields, platform.KeyValue{Key: "role_arn", Value: s.RoleARN})
	}
	if s.ExternalID != "" {
		fields = append(fields, platform.KeyValue{Key: "external_id", Value: s.ExternalID})
	}
	return fields
}

// FileLayout describes where a dataset's partition files live under the
// bucket and how to parse them.
type FileLayout struct {
	Prefix   string // strftime-style, e.g. "housing-price/%Y-%m-%d"
	Suffix   string // regex, e.g. ".*.parquet"
	FileType string // json, parquet, or csv
	Timezone string

	CSVDelimiter string
	CSVHasHeader bool
	CSVQuoteChar string
}

// Locator renders the layout as a dataset locator.
func (l FileLayout) Locator() platform.DatasetLocator {
	tz := l.Timezone
	if tz == "" {
		tz = "UTC"
	}
	fields := []platform.KeyValue{
		{Key: "file_prefix", Value: l.Prefix},
		{Key: "file_suffix", Value: l.Suffix},
		{Key: "data_file_type", Value: l.FileType},
		{Key: "timestamp_time_zone", Value: tz},
	}
	if l.FileType == "csv" {
		delim := l.CSVDelimiter
		if delim == "" {
			delim = ","
		}
		quote := l.CSVQuoteChar
		if quote == "" {
			quote = `"`
		}
		fields = append(fields,
			platform.KeyValue{Key: "csv_delimiter", Value: delim},
			platform.KeyValue{Key: "csv_has_header", Value: strconv.FormatBool(l.CSVHasHeader)},
			platform.KeyValue{Key: "csv_quote_char", Value: quote},
		)
	}
	return platform.DatasetLocator{Fields: fields}
}

// Flow is one end-to-end model onboarding.
type Flow struct {
	ProjectID   string
	DataPlaneID string // optional; first workspace data plane when empty

	ConnectorName string
	Source        S3Source
	Layout        FileLayout

	ModelName        string
	ModelDescription string
	ProblemType      platform.ModelProblemType

	TimestampColumn   string
	PredictionColumn  string
	GroundTruthColumn string

	// ColumnTypes overrides inferred dtypes by source name.
	ColumnTypes map[string]platform.DType
}

// Result carries the identifiers an onboarding run created.
type Result struct {
	ConnectorID string
	DatasetID   string
	ModelID     string
}

// Onboarder drives onboarding flows against the platform.
type Onboarder struct {
	client *platform.Client
	logger *zap.Logger
}

// New creates an Onboarder.
func New(client *platform.Client, logger *zap.Logger) *Onboarder {
	return &Onboarder{client: client, logger: logger}
}

// Run executes the full flow: connector reuse-or-create, available
// dataset registration, schema inspection, schema tagging, dataset and
// model creation, and the hourly metrics schedule.
func (o *Onboarder) Run(ctx context.Context, flow Flow) (*Result, error) {
	project, err := o.client.GetProject(ctx, flow.ProjectID)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Onboarding model",
		zap.String("project", project.Name), zap.String("model", flow.ModelName))

	planeID, err := o.resolveDataPlane(ctx, flow, project)
	if err != nil {
		return nil, err
	}

	connector, err := o.ensureConnector(ctx, flow, planeID)
	if err != nil {
		return nil, err
	}

	dataset, err := o.registerDataset(ctx, flow, connector)
	if err != nil {
		return nil, err
	}

	specs, err := BaselineSpecs(dataset, flow.TimestampColumn, flow.PredictionColumn, flow.GroundTruthColumn)
	if err != nil {
		return nil, err
	}

	model, err := o.client.CreateModel(ctx, flow.ProjectID, platform.PostModel{
		Name:         flow.ModelName,
		Description:  flow.ModelDescription,
		DatasetIDs:   []string{dataset.ID},
		MetricConfig: platform.PutModelMetricSpec{AggregationSpecs: specs},
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Created model", zap.String("model_id", model.ID),
		zap.Int("aggregations", len(specs)))

	schedule := platform.PutModelMetricsSchedule{
		Cron:                  ScheduleCron,
		LookbackPeriodSeconds: ScheduleLookback,
		Name:                  ScheduleName,
	}
	if err := o.client.PutModelMetricsSchedule(ctx, model.ID, schedule); err != nil {
		return nil, err
	}
	o.logger.Info("Metrics schedule set", zap.String("cron", ScheduleCron))

	return &Result{
		ConnectorID: connector.ID,
		DatasetID:   dataset.ID,
		ModelID:     model.ID,
	}, nil
}

func (o *Onboarder) resolveDataPlane(ctx context.Context, flow Flow, project *platform.Project) (string, error) {
	if flow.DataPlaneID != "" {
		plane, err := o.client.GetDataPlane(ctx, flow.DataPlaneID)
		if err != nil {
			return "", err
		}
		o.logger.Debug("Using configured data plane", zap.String("data_plane", plane.Name))
		return plane.ID, nil
	}

	planes, err := o.client.ListDataPlanes(ctx, project.WorkspaceID)
	if err != nil {
		return "", err
	}
	if len(planes) == 0 {
		return "", fmt.Errorf("no data planes found for workspace %s", project.WorkspaceID)
	}
	o.logger.Debug("Using first workspace data plane", zap.String("data_plane", planes[0].Name))
	return planes[0].ID, nil
}

func (o *Onboarder) ensureConnector(ctx context.Context, flow Flow, planeID string) (*platform.Connector, error) {
	existing, err := o.client.ListConnectors(ctx, flow.ProjectID, platform.ConnectorFilter{
		Type:        platform.ConnectorTypeS3,
		Name:        flow.ConnectorName,
		DataPlaneID: planeID,
	})
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		o.logger.Info("Reusing existing connector", zap.String("connector_id", existing[0].ID))
		return &existing[0], nil
	}

	connector, err := o.client.CreateConnector(ctx, flow.ProjectID, platform.PostConnector{
		Name:        flow.ConnectorName,
		Type:        platform.ConnectorTypeS3,
		Temporary:   false,
		DataPlaneID: planeID,
		Fields:      flow.Source.ConnectorFields(),
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Created connector", zap.String("connector_id", connector.ID))
	return connector, nil
}

func (o *Onboarder) registerDataset(ctx context.Context, flow Flow, connector *platform.Connector) (*platform.Dataset, error) {
	locator := flow.Layout.Locator()

	available, err := o.client.CreateAvailableDataset(ctx, connector.ID, platform.PutAvailableDataset{
		Name:    flow.ModelName,
		Locator: locator,
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Registered available dataset", zap.String("available_dataset_id", available.ID))

	jobs, err := o.client.SubmitJobs(ctx, flow.ProjectID, platform.PostJobBatch{
		Jobs: []platform.PostJob{platform.SchemaInspectionSpec(connector.ID, available.ID)},
	})
	if err != nil {
		return nil, err
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("schema inspection job was not accepted")
	}
	if _, err := o.client.WaitForJob(ctx, &jobs[0]); err != nil {
		return nil, fmt.Errorf("schema inspection failed: %w", err)
	}

	available, err = o.client.GetAvailableDataset(ctx, available.ID)
	if err != nil {
		return nil, err
	}
	if available.Schema == nil {
		return nil, fmt.Errorf("schema inspection returned no schema for dataset %s", available.ID)
	}
	o.logger.Info("Schema inspected", zap.Int("columns", len(available.Schema.Columns)))

	if err := o.tagSchema(flow, available.Schema); err != nil {
		return nil, err
	}

	dataset, err := o.client.CreateDataset(ctx, connector.ID, platform.PostDataset{
		Name:    flow.ModelName,
		Locator: locator,
		Schema: platform.PutDatasetSchema{
			AliasMask: available.Schema.AliasMask,
			Columns:   available.Schema.Columns,
		},
		ProblemType: flow.ProblemType,
	})
	if err != nil {
		return nil, err
	}
	o.logger.Info("Created dataset", zap.String("dataset_id", dataset.ID))
	return dataset, nil
}

// tagSchema marks the primary timestamp, prediction, and ground-truth
// columns and applies explicit dtype overrides.
func (o *Onboarder) tagSchema(flow Flow, schema *platform.DatasetSchema) error {
	ts := schema.ColumnByName(flow.TimestampColumn)
	if ts == nil {
		return &MissingColumnError{Dataset: flow.ModelName, Column: flow.TimestampColumn}
	}
	addTag(ts, platform.TagPrimaryTimestamp)
	ts.Definition.ScalarType.DType = platform.DTypeTimestamp

	if flow.PredictionColumn != "" {
		if col := schema.ColumnByName(flow.PredictionColumn); col != nil {
			addTag(col, platform.TagPrediction)
		}
	}
	if flow.GroundTruthColumn != "" {
		if col := schema.ColumnByName(flow.GroundTruthColumn); col != nil {
			addTag(col, platform.TagGroundTruth)
		}
	}

	for i := range schema.Columns {
		col := &schema.Columns[i]
		if dtype, ok := flow.ColumnTypes[col.SourceName]; ok && col.Definition.ScalarType.DType != dtype {
			o.logger.Debug("Overriding column dtype",
				zap.String("column", col.SourceName), zap.String("dtype", string(dtype)))
			col.Definition.ScalarType.DType = dtype
		}
	}
	return nil
}

func addTag(col *platform.DatasetColumn, tag platform.SchemaTag) {
	for _, have := range col.Definition.ScalarType.TagHints {
		if have == tag {
			return
		}
	}
	col.Definition.ScalarType.TagHints = append(col.Definition.ScalarType.TagHints, tag)
}
