package onboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"modelbench/internal/platform"
)

// MetricsUpdate summarizes one metric-config addition run.
type MetricsUpdate struct {
	Added   int
	Skipped int
	Total   int
}

// RegressionColumns names the columns the regression aggregation set
// covers. Feature columns missing from the schema are skipped; the
// timestamp, prediction, and ground-truth columns are required.
type RegressionColumns struct {
	Timestamp   string
	Prediction  string
	GroundTruth string
	Numeric     []string
	Categorical []string
}

// FraudColumns names the columns the thresholded-classifier aggregation
// set covers. Segmentation columns apply to the confusion matrix and the
// per-class counts.
type FraudColumns struct {
	Timestamp    string
	Prediction   string
	GroundTruth  string
	Numeric      []string
	Categorical  []string
	Segmentation []string
	Threshold    float64
	TrueLabel    string
	FalseLabel   string
}

// RegressionAggregations builds the standard metric set for a regression
// model: inference count, sums and distributions of prediction and
// ground truth, distributions of the numeric features, category counts,
// MAE and MSE, and a null count per tracked column.
func RegressionAggregations(dataset *platform.Dataset, cols RegressionColumns) ([]platform.AggregationSpec, error) {
	ts, err := requireColumn(dataset, cols.Timestamp)
	if err != nil {
		return nil, err
	}
	pred, err := requireColumn(dataset, cols.Prediction)
	if err != nil {
		return nil, err
	}
	gt, err := requireColumn(dataset, cols.GroundTruth)
	if err != nil {
		return nil, err
	}

	numeric := []string{pred, gt}
	numeric = append(numeric, resolveColumns(dataset, cols.Numeric)...)
	categorical := resolveColumns(dataset, cols.Categorical)

	specs := []platform.AggregationSpec{
		InferenceCountSpec(dataset.ID, ts),
		NumericSumSpec(dataset.ID, ts, pred),
		NumericSumSpec(dataset.ID, ts, gt),
	}
	for _, id := range numeric {
		specs = append(specs, NumericDistributionSpec(dataset.ID, ts, id))
	}
	for _, id := range categorical {
		specs = append(specs, CategoryCountSpec(dataset.ID, ts, id))
	}
	specs = append(specs,
		MAESpec(dataset.ID, ts, pred, gt),
		MSESpec(dataset.ID, ts, pred, gt),
	)
	for _, id := range append(numeric, categorical...) {
		specs = append(specs, NullCountSpec(dataset.ID, ts, id))
	}
	return specs, nil
}

// FraudAggregations builds the standard metric set for a thresholded
// binary classifier: inference count, sums of score and label,
// distributions of the numeric columns, category counts, a segmented
// confusion matrix, segmented per-class counts, and a null count per
// tracked column.
func FraudAggregations(dataset *platform.Dataset, cols FraudColumns) ([]platform.AggregationSpec, error) {
	ts, err := requireColumn(dataset, cols.Timestamp)
	if err != nil {
		return nil, err
	}
	pred, err := requireColumn(dataset, cols.Prediction)
	if err != nil {
		return nil, err
	}
	gt, err := requireColumn(dataset, cols.GroundTruth)
	if err != nil {
		return nil, err
	}

	segmentation := make([]string, 0, len(cols.Segmentation))
	for _, name := range cols.Segmentation {
		id, err := requireColumn(dataset, name)
		if err != nil {
			return nil, err
		}
		segmentation = append(segmentation, id)
	}

	numeric := []string{pred, gt}
	numeric = append(numeric, resolveColumns(dataset, cols.Numeric)...)
	categorical := resolveColumns(dataset, cols.Categorical)

	specs := []platform.AggregationSpec{
		InferenceCountSpec(dataset.ID, ts),
		NumericSumSpec(dataset.ID, ts, pred),
		NumericSumSpec(dataset.ID, ts, gt),
	}
	for _, id := range numeric {
		specs = append(specs, NumericDistributionSpec(dataset.ID, ts, id))
	}
	for _, id := range categorical {
		specs = append(specs, CategoryCountSpec(dataset.ID, ts, id))
	}
	specs = append(specs,
		ConfusionMatrixSpec(dataset.ID, ts, pred, gt, cols.Threshold, segmentation),
		ClassCountSpec(dataset.ID, ts, pred, cols.Threshold, cols.TrueLabel, cols.FalseLabel, segmentation),
	)
	for _, id := range append(numeric, categorical...) {
		specs = append(specs, NullCountSpec(dataset.ID, ts, id))
	}
	return specs, nil
}

// PredictionStats builds the minimal prediction-monitoring pair: the sum
// and the distribution of the prediction column.
func PredictionStats(dataset *platform.Dataset, timestampCol, predictionCol string) ([]platform.AggregationSpec, error) {
	ts, err := requireColumn(dataset, timestampCol)
	if err != nil {
		return nil, err
	}
	pred, err := requireColumn(dataset, predictionCol)
	if err != nil {
		return nil, err
	}
	return []platform.AggregationSpec{
		NumericSumSpec(dataset.ID, ts, pred),
		NumericDistributionSpec(dataset.ID, ts, pred),
	}, nil
}

func requireColumn(dataset *platform.Dataset, name string) (string, error) {
	col := dataset.Schema.ColumnByName(name)
	if col == nil {
		return "", &MissingColumnError{Dataset: dataset.Name, Column: name}
	}
	return col.ID, nil
}

// resolveColumns maps optional column names to IDs, dropping names the
// schema does not have.
func resolveColumns(dataset *platform.Dataset, names []string) []string {
	var ids []string
	for _, name := range names {
		if col := dataset.Schema.ColumnByName(name); col != nil {
			ids = append(ids, col.ID)
		}
	}
	return ids
}

// AddRegressionMetrics attaches the regression aggregation set to the
// model's primary dataset, skipping specs already configured.
func (o *Onboarder) AddRegressionMetrics(ctx context.Context, modelID string, cols RegressionColumns) (*MetricsUpdate, error) {
	return o.applyAggregations(ctx, modelID, func(dataset *platform.Dataset) ([]platform.AggregationSpec, error) {
		return RegressionAggregations(dataset, cols)
	})
}

// AddFraudMetrics attaches the thresholded-classifier aggregation set to
// the model's primary dataset, skipping specs already configured.
func (o *Onboarder) AddFraudMetrics(ctx context.Context, modelID string, cols FraudColumns) (*MetricsUpdate, error) {
	return o.applyAggregations(ctx, modelID, func(dataset *platform.Dataset) ([]platform.AggregationSpec, error) {
		return FraudAggregations(dataset, cols)
	})
}

// AddPredictionStats attaches the prediction sum and distribution to the
// model's primary dataset.
func (o *Onboarder) AddPredictionStats(ctx context.Context, modelID, timestampCol, predictionCol string) (*MetricsUpdate, error) {
	return o.applyAggregations(ctx, modelID, func(dataset *platform.Dataset) ([]platform.AggregationSpec, error) {
		return PredictionStats(dataset, timestampCol, predictionCol)
	})
}

func (o *Onboarder) applyAggregations(ctx context.Context, modelID string, build func(*platform.Dataset) ([]platform.AggregationSpec, error)) (*MetricsUpdate, error) {
	model, err := o.client.GetModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	if len(model.Datasets) == 0 {
		return nil, fmt.Errorf("model %s has no associated datasets", modelID)
	}

	dataset, err := o.client.GetDataset(ctx, model.Datasets[0].DatasetID)
	if err != nil {
		return nil, err
	}

	specs, err := build(dataset)
	if err != nil {
		return nil, err
	}

	var existing []platform.AggregationSpec
	if model.MetricConfig != nil {
		existing = model.MetricConfig.AggregationSpecs
	}

	merged, added := MergeSpecs(existing, specs)
	update := &MetricsUpdate{
		Added:   added,
		Skipped: len(specs) - added,
		Total:   len(merged),
	}
	if added == 0 {
		o.logger.Info("All aggregations already configured",
			zap.String("model_id", modelID), zap.Int("specs", len(specs)))
		return update, nil
	}

	if err := o.client.PutModelMetricConfig(ctx, modelID, platform.PutModelMetricSpec{AggregationSpecs: merged}); err != nil {
		return nil, err
	}
	o.logger.Info("Updated model metric config",
		zap.String("model_id", modelID), zap.String("dataset", dataset.Name),
		zap.Int("added", added), zap.Int("skipped", update.Skipped),
		zap.Int("total", update.Total))
	return update, nil
}
