package platform

import "time"

// DType enumerates column scalar types.
type DType string

const (
	DTypeInt       DType = "int"
	DTypeFloat     DType = "float"
	DTypeStr       DType = "str"
	DTypeBool      DType = "bool"
	DTypeTimestamp DType = "timestamp"
	DTypeDate      DType = "date"
	DTypeUUID      DType = "uuid"
)

// SchemaTag marks the role a column plays in monitoring.
type SchemaTag string

const (
	TagPrimaryTimestamp SchemaTag = "primary_timestamp"
	TagPrediction       SchemaTag = "prediction"
	TagGroundTruth      SchemaTag = "ground_truth"
)

// ModelProblemType is the monitored model's task family.
type ModelProblemType string

const (
	ProblemTypeRegression       ModelProblemType = "regression"
	ProblemTypeBinaryClassifier ModelProblemType = "binary_classification"
)

// ConnectorTypeS3 is the S3 connector kind.
const ConnectorTypeS3 = "s3"

// Built-in aggregation function IDs. These UUIDs are the server's fixed
// registry of built-in metric functions.
const (
	AggInferenceCount      = "00000000-0000-0000-0000-00000000000a"
	AggNullableCount       = "00000000-0000-0000-0000-00000000000b"
	AggCategoryCount       = "00000000-0000-0000-0000-00000000000c"
	AggNumericDistribution = "00000000-0000-0000-0000-00000000000d"
	AggMAE                 = "00000000-0000-0000-0000-00000000000e"
	AggNumericSum          = "00000000-0000-0000-0000-00000000000f"
	AggMSE                 = "00000000-0000-0000-0000-000000000010"
	AggConfusionMatrix     = "00000000-0000-0000-0000-00000000001e"
	AggClassCount          = "00000000-0000-0000-0000-000000000020"
)

// Project is a platform project.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	WorkspaceID string `json:"workspace_id"`
	Description string `json:"description,omitempty"`
}

// DataPlane is a compute plane attached to a workspace.
type DataPlane struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// KeyValue is a generic key/value field used by connector specs and
// dataset locators.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Connector is a data-source connector (S3 and friends).
type Connector struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        string     `json:"connector_type"`
	DataPlaneID string     `json:"data_plane_id"`
	Fields      []KeyValue `json:"fields,omitempty"`
}

// PostConnector creates a connector.
type PostConnector struct {
	Name        string     `json:"name"`
	Type        string     `json:"connector_type"`
	Temporary   bool       `json:"temporary"`
	DataPlaneID string     `json:"data_plane_id"`
	Fields      []KeyValue `json:"fields"`
}

// ConnectorFilter narrows connector listings.
type ConnectorFilter struct {
	Type        string
	Name        string
	DataPlaneID string
}

// DatasetLocator tells the connector where a dataset's files live.
type DatasetLocator struct {
	Fields []KeyValue `json:"fields"`
}

// ScalarType is a column's type definition.
type ScalarType struct {
	ID       string      `json:"id"`
	DType    DType       `json:"dtype"`
	Nullable bool        `json:"nullable"`
	TagHints []SchemaTag `json:"tag_hints,omitempty"`
}

// DatasetColumn is one column of a dataset schema.
type DatasetColumn struct {
	ID         string `json:"id"`
	SourceName string `json:"source_name"`
	Definition struct {
		ScalarType ScalarType `json:"scalar_type"`
	} `json:"definition"`
}

// NewDatasetColumn builds a column with the given identifiers and type.
func NewDatasetColumn(colID, scalarID, sourceName string, dtype DType, nullable bool) DatasetColumn {
	col := DatasetColumn{ID: colID, SourceName: sourceName}
	col.Definition.ScalarType = ScalarType{ID: scalarID, DType: dtype, Nullable: nullable}
	return col
}

// DatasetSchema is the column layout of a dataset.
type DatasetSchema struct {
	AliasMask map[string]string `json:"alias_mask,omitempty"`
	Columns   []DatasetColumn   `json:"columns"`
}

// ColumnByName returns the column with the given source name, or nil.
func (s *DatasetSchema) ColumnByName(name string) *DatasetColumn {
	for i := range s.Columns {
		if s.Columns[i].SourceName == name {
			return &s.Columns[i]
		}
	}
	return nil
}

// ColumnNames lists the schema's source names in order.
func (s *DatasetSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.SourceName
	}
	return names
}

// Dataset is a registered dataset, optionally with an inspected schema.
type Dataset struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	ConnectorID string          `json:"connector_id,omitempty"`
	Locator     *DatasetLocator `json:"dataset_locator,omitempty"`
	Schema      *DatasetSchema  `json:"dataset_schema,omitempty"`
	ProblemType string          `json:"model_problem_type,omitempty"`
}

// PutAvailableDataset registers a candidate dataset for inspection.
type PutAvailableDataset struct {
	Name    string         `json:"name"`
	Locator DatasetLocator `json:"dataset_locator"`
}

// PostDataset creates a dataset from an inspected schema.
type PostDataset struct {
	Name        string           `json:"name"`
	Locator     DatasetLocator   `json:"dataset_locator"`
	Schema      PutDatasetSchema `json:"dataset_schema"`
	ProblemType ModelProblemType `json:"model_problem_type"`
}

// PutDatasetSchema replaces a dataset's schema.
type PutDatasetSchema struct {
	AliasMask map[string]string `json:"alias_mask,omitempty"`
	Columns   []DatasetColumn   `json:"columns"`
}

// JobState is the lifecycle state of an async platform job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// Job is an asynchronous platform job.
type Job struct {
	ID    string   `json:"id"`
	Kind  string   `json:"kind"`
	State JobState `json:"state"`
}

// JobKindSchemaInspection asks the data plane to infer a dataset schema.
const JobKindSchemaInspection = "schema_inspection"

// PostJob submits one job.
type PostJob struct {
	Kind string         `json:"kind"`
	Spec map[string]any `json:"job_spec"`
}

// PostJobBatch submits a batch of jobs.
type PostJobBatch struct {
	Jobs []PostJob `json:"jobs"`
}

// JobBatchResponse is the submitted batch.
type JobBatchResponse struct {
	Jobs []Job `json:"jobs"`
}

// MetricsArg is one argument binding of an aggregation spec. Values are
// column/dataset UUIDs, literals, or lists (segmentation columns).
type MetricsArg struct {
	Key   string `json:"arg_key"`
	Value any    `json:"arg_value"`
}

// AggregationSpec binds an aggregation function to a dataset's columns.
type AggregationSpec struct {
	AggregationID string       `json:"aggregation_id"`
	Kind          string       `json:"aggregation_kind,omitempty"`
	Version       int          `json:"aggregation_version,omitempty"`
	InitArgs      []MetricsArg `json:"aggregation_init_args"`
	Args          []MetricsArg `json:"aggregation_args"`
}

// AggregationKindCustom marks workspace-defined SQL aggregations.
const AggregationKindCustom = "custom"

// PutModelMetricSpec replaces a model's aggregation configuration.
type PutModelMetricSpec struct {
	AggregationSpecs []AggregationSpec `json:"aggregation_specs"`
}

// ModelDataset links a model to one of its datasets.
type ModelDataset struct {
	DatasetID string `json:"dataset_id"`
	Name      string `json:"dataset_name,omitempty"`
}

// Model is a monitored model.
type Model struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Description  string              `json:"description,omitempty"`
	ProjectID    string              `json:"project_id,omitempty"`
	Datasets     []ModelDataset      `json:"datasets,omitempty"`
	MetricConfig *PutModelMetricSpec `json:"metric_config,omitempty"`
}

// PostModel creates a model.
type PostModel struct {
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	DatasetIDs   []string           `json:"dataset_ids"`
	MetricConfig PutModelMetricSpec `json:"metric_config"`
}

// PutModelMetricsSchedule sets the recurring metrics computation.
type PutModelMetricsSchedule struct {
	Cron                  string `json:"cron"`
	LookbackPeriodSeconds int    `json:"lookback_period_seconds"`
	Name                  string `json:"name"`
}

// MetricsTimeRange bounds a metrics query.
type MetricsTimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// PostMetricsQuery runs a SQL query over a model's computed metrics.
type PostMetricsQuery struct {
	Query     string            `json:"query"`
	TimeRange *MetricsTimeRange `json:"time_range,omitempty"`
	Limit     int               `json:"limit,omitempty"`
}

// MetricsQueryResult is a metrics query response: rows of column->value.
type MetricsQueryResult struct {
	Results []map[string]any `json:"results"`
}

// AlertBound is the direction an alert rule watches.
type AlertBound string

const (
	BoundUpper AlertBound = "upper_bound"
	BoundLower AlertBound = "lower_bound"
)

// Operator renders the bound as the comparison operator a violation
// implies.
func (b AlertBound) Operator() string {
	if b == BoundUpper {
		return ">"
	}
	return "<"
}

// Violated reports whether the value breaks the threshold for this bound.
func (b AlertBound) Violated(value, threshold float64) bool {
	if b == BoundUpper {
		return value > threshold
	}
	return value < threshold
}

// AlertRule is a threshold rule over a metric query.
type AlertRule struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	MetricName string     `json:"metric_name"`
	Threshold  float64    `json:"threshold"`
	Bound      AlertBound `json:"bound"`
	Query      string     `json:"query"`
}

// Alert is a fired alert.
type Alert struct {
	ID        string    `json:"id"`
	RuleID    string    `json:"alert_rule_id"`
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value,omitempty"`
}

// Custom aggregation parameter kinds.
const (
	ParamDataset = "dataset"
	ParamColumn  = "column"
	ParamLiteral = "literal"
)

// AggregateArg declares one parameter of a custom aggregation's SQL
// template. Dataset parameters conventionally come last.
type AggregateArg struct {
	ParameterKey     string           `json:"parameter_key"`
	ParameterType    string           `json:"parameter_type"`
	FriendlyName     string           `json:"friendly_name"`
	Description      string           `json:"description"`
	Optional         bool             `json:"optional,omitempty"`
	SourceDatasetKey string           `json:"source_dataset_parameter_key,omitempty"`
	TagHints         []SchemaTag      `json:"tag_hints,omitempty"`
	AllowedDTypes    []DType          `json:"allowed_column_types,omitempty"`
	ParameterDType   DType            `json:"parameter_dtype,omitempty"`
	ProblemType      ModelProblemType `json:"model_problem_type,omitempty"`
}

// ColumnArg builds a column parameter bound to the dataset parameter.
func ColumnArg(key, friendlyName, description string, tags []SchemaTag, dtypes ...DType) AggregateArg {
	return AggregateArg{
		ParameterKey:     key,
		ParameterType:    ParamColumn,
		FriendlyName:     friendlyName,
		Description:      description,
		SourceDatasetKey: "dataset",
		TagHints:         tags,
		AllowedDTypes:    dtypes,
	}
}

// LiteralArg builds a literal parameter.
func LiteralArg(key, friendlyName, description string, dtype DType) AggregateArg {
	return AggregateArg{
		ParameterKey:   key,
		ParameterType:  ParamLiteral,
		FriendlyName:   friendlyName,
		Description:    description,
		ParameterDType: dtype,
	}
}

// DatasetArg builds the dataset parameter.
func DatasetArg(friendlyName, description string, problemType ModelProblemType) AggregateArg {
	return AggregateArg{
		ParameterKey:  "dataset",
		ParameterType: ParamDataset,
		FriendlyName:  friendlyName,
		Description:   description,
		ProblemType:   problemType,
	}
}

// MetricKindNumeric is the scalar metric value kind.
const MetricKindNumeric = "numeric"

// ReportedAggregation declares one metric output of a custom aggregation.
type ReportedAggregation struct {
	MetricName       string   `json:"metric_name"`
	Description      string   `json:"description"`
	ValueColumn      string   `json:"value_column"`
	TimestampColumn  string   `json:"timestamp_column"`
	MetricKind       string   `json:"metric_kind"`
	DimensionColumns []string `json:"dimension_columns"`
}

// PostCustomAggregation registers a workspace-scoped SQL aggregation.
type PostCustomAggregation struct {
	Name                 string                `json:"name"`
	Description          string                `json:"description"`
	SQL                  string                `json:"sql"`
	ReportedAggregations []ReportedAggregation `json:"reported_aggregations"`
	AggregateArgs        []AggregateArg        `json:"aggregate_args"`
}

// CustomAggregation is a registered custom aggregation.
type CustomAggregation struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	LatestVersion int    `json:"latest_version"`
}

// PostServiceAccount creates a machine identity.
type PostServiceAccount struct {
	Name string `json:"name"`
}

// ServiceAccountCredentials are the one-time client credentials returned
// at creation. The secret is never shown again.
type ServiceAccountCredentials struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// ServiceAccount is a machine identity user.
type ServiceAccount struct {
	ID          string                     `json:"id"`
	Name        string                     `json:"name"`
	Credentials *ServiceAccountCredentials `json:"credentials,omitempty"`
}

// Role is an authz role.
type Role struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostRoleBinding assigns a role to a user at the organization level.
type PostRoleBinding struct {
	RoleID string `json:"role_id"`
	UserID string `json:"user_id"`
}

// Group is a user group.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PostGroupMembership adds users to a group.
type PostGroupMembership struct {
	UserIDs []string `json:"user_ids"`
}

// listResponse is the platform's paginated envelope.
type listResponse[T any] struct {
	Records []T `json:"records"`
	Total   int `json:"total_count,omitempty"`
}
