package onboard

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"modelbench/internal/platform"
)

// positiveClassErrorProfileSQL computes daily confusion-matrix derived
// rates for a thresholded binary classifier.
const positiveClassErrorProfileSQL = `
WITH counts AS (
  SELECT
    time_bucket(INTERVAL '1 day', {{timestamp_col}}) AS bucket,
    SUM(CASE WHEN {{ground_truth}} = 1 AND {{prediction}} >= {{threshold}} THEN 1 ELSE 0 END) AS tp,
    SUM(CASE WHEN {{ground_truth}} = 0 AND {{prediction}} >= {{threshold}} THEN 1 ELSE 0 END) AS fp,
    SUM(CASE WHEN {{ground_truth}} = 0 AND {{prediction}} <  {{threshold}} THEN 1 ELSE 0 END) AS tn,
    SUM(CASE WHEN {{ground_truth}} = 1 AND {{prediction}} <  {{threshold}} THEN 1 ELSE 0 END) AS fn
  FROM {{dataset}}
  GROUP BY 1
),
prepared AS (
  SELECT
    bucket,
    tp::float AS tp,
    fp::float AS fp,
    tn::float AS tn,
    fn::float AS fn,
    (tp + fp + tn + fn)::float AS total,
    (tp + fp)::float          AS predicted_pos,
    (tp + fn)::float          AS actual_pos,
    (fp + tn)::float          AS negatives
  FROM counts
)
SELECT
  bucket AS bucket,
  CASE WHEN negatives > 0 THEN fp / negatives ELSE 0 END
    AS adjusted_false_positive_rate,
  CASE WHEN total > 0 THEN (tp + fn) / total ELSE 0 END
    AS bad_case_rate,
  CASE WHEN total > 0 THEN fp / total ELSE 0 END
    AS false_positive_ratio,
  CASE WHEN total > 0 THEN (tp + tn) / total ELSE 0 END
    AS valid_detection_rate,
  CASE WHEN total > 0 THEN GREATEST((predicted_pos - actual_pos) / total, 0)
       ELSE 0 END
    AS overprediction_rate,
  CASE WHEN total > 0 THEN GREATEST((actual_pos - predicted_pos) / total, 0)
       ELSE 0 END
    AS underprediction_rate,
  CASE WHEN SUM(total) OVER () > 0
       THEN SUM(fp) OVER () / SUM(total) OVER ()
       ELSE 0 END
    AS total_false_positive_rate
FROM prepared
ORDER BY bucket;
`

// regressionErrorProfileSQL reports per-inference signed, absolute, and
// percentage error for a regression model.
const regressionErrorProfileSQL = `
WITH
  base AS (
    SELECT
      time_bucket(INTERVAL '1 day', {{timestamp_col}}) AS ts,
      {{prediction_col}}::float AS prediction,
      {{ground_truth_col}}::float AS actual
    FROM {{dataset}}
  )
SELECT
  ts,
  ABS(prediction - actual) AS absolute_error,
  prediction - actual AS forecast_error,
  CASE
    WHEN actual != 0 THEN ABS((prediction - actual) / actual) * 100
    ELSE NULL
  END AS absolute_percentage_error
FROM base
ORDER BY ts;
`

func numericMetric(name, description, valueColumn, timestampColumn string) platform.ReportedAggregation {
	return platform.ReportedAggregation{
		MetricName:       name,
		Description:      description,
		ValueColumn:      valueColumn,
		TimestampColumn:  timestampColumn,
		MetricKind:       platform.MetricKindNumeric,
		DimensionColumns: []string{},
	}
}

// PositiveClassErrorProfileSpec is the registration payload for the
// binary-classification error profile. The dataset parameter comes last.
func PositiveClassErrorProfileSpec() platform.PostCustomAggregation {
	return platform.PostCustomAggregation{
		Name:        "positive_class_error_profile",
		Description: "Binary classification error analysis: false positive and false negative rates, accuracy, and over/under-prediction per day",
		SQL:         positiveClassErrorProfileSQL,
		ReportedAggregations: []platform.ReportedAggregation{
			numericMetric("adjusted_false_positive_rate",
				"False positive rate among negative cases: FP / (FP + TN)",
				"adjusted_false_positive_rate", "bucket"),
			numericMetric("bad_case_rate",
				"Fraction of cases classified as bad: (TP + FN) / Total",
				"bad_case_rate", "bucket"),
			numericMetric("false_positive_ratio",
				"False positives as fraction of all cases: FP / Total",
				"false_positive_ratio", "bucket"),
			numericMetric("valid_detection_rate",
				"Overall accuracy: (TP + TN) / Total",
				"valid_detection_rate", "bucket"),
			numericMetric("overprediction_rate",
				"Rate of over-predicting positives: (predicted_pos - actual_pos) / Total",
				"overprediction_rate", "bucket"),
			numericMetric("underprediction_rate",
				"Rate of under-predicting positives: (actual_pos - predicted_pos) / Total",
				"underprediction_rate", "bucket"),
			numericMetric("total_false_positive_rate",
				"Global false positive rate across all time: SUM(FP) / SUM(Total)",
				"total_false_positive_rate", "bucket"),
		},
		AggregateArgs: []platform.AggregateArg{
			platform.ColumnArg("timestamp_col", "Timestamp Column",
				"Timestamp column for bucketing",
				[]platform.SchemaTag{platform.TagPrimaryTimestamp},
				platform.DTypeTimestamp),
			platform.ColumnArg("ground_truth", "Ground Truth",
				"Ground truth label column (0 or 1)",
				[]platform.SchemaTag{platform.TagGroundTruth},
				platform.DTypeBool, platform.DTypeInt),
			platform.ColumnArg("prediction", "Prediction",
				"Prediction score column (probability or score)",
				[]platform.SchemaTag{platform.TagPrediction},
				platform.DTypeFloat),
			platform.LiteralArg("threshold", "Threshold",
				"Classification threshold (default 0.5)", platform.DTypeFloat),
			platform.DatasetArg("Dataset",
				"Dataset containing ground truth and predictions",
				platform.ProblemTypeBinaryClassifier),
		},
	}
}

// RegressionErrorProfileSpec is the registration payload for the
// regression error profile.
func RegressionErrorProfileSpec() platform.PostCustomAggregation {
	return platform.PostCustomAggregation{
		Name:        "regression_error_profile",
		Description: "Regression error distributions: signed, absolute, and percentage error per day",
		SQL:         regressionErrorProfileSQL,
		ReportedAggregations: []platform.ReportedAggregation{
			numericMetric("absolute_error",
				"Magnitude of prediction error (unsigned)", "absolute_error", "ts"),
			numericMetric("forecast_error",
				"Signed prediction error (positive = over-prediction)", "forecast_error", "ts"),
			numericMetric("absolute_percentage_error",
				"Percentage error per inference (scale-independent)", "absolute_percentage_error", "ts"),
		},
		AggregateArgs: []platform.AggregateArg{
			platform.ColumnArg("timestamp_col", "Timestamp Column",
				"Timestamp column for bucketing",
				[]platform.SchemaTag{platform.TagPrimaryTimestamp},
				platform.DTypeTimestamp),
			platform.ColumnArg("prediction_col", "Prediction Column",
				"Predicted value column",
				[]platform.SchemaTag{platform.TagPrediction},
				platform.DTypeInt, platform.DTypeFloat),
			platform.ColumnArg("ground_truth_col", "Ground Truth Column",
				"Actual/ground truth value column",
				[]platform.SchemaTag{platform.TagGroundTruth},
				platform.DTypeInt, platform.DTypeFloat),
			platform.DatasetArg("Dataset",
				"Dataset containing ground truth and predictions",
				platform.ProblemTypeRegression),
		},
	}
}

// ErrorProfileConfig binds an error profile to one model's columns.
type ErrorProfileConfig struct {
	WorkspaceID       string
	ModelID           string
	TimestampColumn   string
	PredictionColumn  string
	GroundTruthColumn string
	Threshold         float64 // binary profiles only
}

// CreatePositiveClassErrorProfile registers the binary error profile in
// the workspace and attaches it to the model.
func (o *Onboarder) CreatePositiveClassErrorProfile(ctx context.Context, cfg ErrorProfileConfig) (*platform.CustomAggregation, error) {
	return o.createErrorProfile(ctx, cfg, PositiveClassErrorProfileSpec(), func(datasetID string, cols map[string]string) []platform.MetricsArg {
		return args(
			arg("dataset", datasetID),
			arg("timestamp_col", cols[cfg.TimestampColumn]),
			arg("ground_truth", cols[cfg.GroundTruthColumn]),
			arg("prediction", cols[cfg.PredictionColumn]),
			arg("threshold", strconv.FormatFloat(cfg.Threshold, 'g', -1, 64)),
		)
	})
}

// CreateRegressionErrorProfile registers the regression error profile in
// the workspace and attaches it to the model.
func (o *Onboarder) CreateRegressionErrorProfile(ctx context.Context, cfg ErrorProfileConfig) (*platform.CustomAggregation, error) {
	return o.createErrorProfile(ctx, cfg, RegressionErrorProfileSpec(), func(datasetID string, cols map[string]string) []platform.MetricsArg {
		return args(
			arg("dataset", datasetID),
			arg("timestamp_col", cols[cfg.TimestampColumn]),
			arg("prediction_col", cols[cfg.PredictionColumn]),
			arg("ground_truth_col", cols[cfg.GroundTruthColumn]),
		)
	})
}

func (o *Onboarder) createErrorProfile(ctx context.Context, cfg ErrorProfileConfig, spec platform.PostCustomAggregation, bind func(datasetID string, cols map[string]string) []platform.MetricsArg) (*platform.CustomAggregation, error) {
	agg, err := o.client.CreateCustomAggregation(ctx, cfg.WorkspaceID, spec)
	if err != nil {
		return nil, err
	}
	o.logger.Info("Created custom aggregation",
		zap.String("name", agg.Name), zap.String("aggregation_id", agg.ID),
		zap.Int("version", agg.LatestVersion))

	model, err := o.client.GetModel(ctx, cfg.ModelID)
	if err != nil {
		return nil, err
	}
	if model.MetricConfig == nil {
		return nil, fmt.Errorf("model %s has no metric config", cfg.ModelID)
	}
	if len(model.Datasets) == 0 {
		return nil, fmt.Errorf("model %s has no datasets", cfg.ModelID)
	}

	for _, existing := range model.MetricConfig.AggregationSpecs {
		if existing.AggregationID == agg.ID {
			o.logger.Info("Aggregation already attached to model, skipping",
				zap.String("aggregation_id", agg.ID))
			return agg, nil
		}
	}

	dataset, err := o.client.GetDataset(ctx, model.Datasets[0].DatasetID)
	if err != nil {
		return nil, err
	}
	if dataset.Schema == nil {
		return nil, fmt.Errorf("dataset %s has no schema", dataset.ID)
	}

	cols := make(map[string]string, len(dataset.Schema.Columns))
	for _, col := range dataset.Schema.Columns {
		cols[col.SourceName] = col.ID
	}
	for _, name := range []string{cfg.TimestampColumn, cfg.PredictionColumn, cfg.GroundTruthColumn} {
		if _, ok := cols[name]; !ok {
			return nil, &MissingColumnError{Dataset: dataset.Name, Column: name}
		}
	}

	attached := platform.AggregationSpec{
		AggregationID: agg.ID,
		Kind:          platform.AggregationKindCustom,
		Version:       agg.LatestVersion,
		InitArgs:      []platform.MetricsArg{},
		Args:          bind(dataset.ID, cols),
	}
	specs := append(model.MetricConfig.AggregationSpecs, attached)

	if err := o.client.PutModelMetricConfig(ctx, cfg.ModelID, platform.PutModelMetricSpec{
		AggregationSpecs: specs,
	}); err != nil {
		return nil, err
	}
	o.logger.Info("Attached custom aggregation to model",
		zap.String("model_id", cfg.ModelID), zap.Int("total_aggregations", len(specs)))
	return agg, nil
}
