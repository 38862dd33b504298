package onboard

import (
	"reflect"

	"modelbench/internal/platform"
)

func args(pairs ...platform.MetricsArg) []platform.MetricsArg { return pairs }

func arg(key string, value any) platform.MetricsArg {
	return platform.MetricsArg{Key: key, Value: value}
}

// InferenceCountSpec counts inferences over time.
func InferenceCountSpec(datasetID, timestampColID string) platform.AggregationSpec {
	return platform.AggregationSpec{
		AggregationID: platform.AggInferenceCount,
		InitArgs:      []platform.MetricsArg{},
		Args: args(
			arg("dataset", datasetID),
			arg("timestamp_col", timestampColID),
		),
	}
}

// NullCountSpec tracks null values in one column.
func NullCountSpec(datasetID, timestampColID, colID string) platform.AggregationSpec {
	return platform.AggregationSpec{
		AggregationID: platform.AggNullableCount,
		InitArgs:      []platform.MetricsArg{},
		Args: args(
			arg("dataset", datasetID),
			arg("timestamp_col", timestampColID),
			arg("nullable_col", colID),
		),
	}
}

// NumericDistributionSpec tracks min/max/mean/std of a numeric column.
func NumericDistributionSpec(datasetID, timestampColID, colID string) platform.AggregationSpec {
	return platform.AggregationSpec{
		AggregationID: platform.AggNumericDistribution,
		InitArgs:      []platform.MetricsArg{},
		Args: args(
			arg("dataset", datasetID),
			arg("timestamp_col", timestampColID),
			arg("numeric_col", colID),
		),
	}
}

// NumericSumSpec tracks the sum of a numeric column over time.
func NumericSumSpec(datasetID, timestampColID, colID string) platform.AggregationSpec {
	return platform.AggregationSpec{
		AggregationID: platform.AggNumericSum,
		InitArgs:      []platform.MetricsArg{},
		Args: args(
			arg("dataset", datasetID),
			arg("timestamp_col", timestampColID),
			arg("numeric_col", colID),
		),
	}
}

// CategoryCountSpec tracks value counts of a categorical column.
func CategoryCountSpec(datasetID, timestampColID, colID string) platform.AggregationSpec {
	return platform.AggregationSpec{
		AggregationID: platform.AggCategoryCount,
		InitArgs:      []platform.MetricsArg{},
		Args: args(
			arg("dataset", datasetID),
			arg("timestamp_col", timestampColID),
			arg("categorical_col", colID),
		),
	}
}

// MAESpec tracks mean absolute error between prediction and ground truth.
func MAESpec(datasetID, timestampColID, predictionColID, groundTruthColID string) platform.AggregationSpec {
	return platform.AggregationSpec{
		AggregationID: platform.AggMAE,
		InitArgs:      []platform.MetricsArg{},
		Args: args(
			arg("dataset", datasetID),
			arg("timestamp_col", timestampColID),
			arg("prediction_col", predictionColID),
			arg("ground_truth_col", groundTruthColID),
		),
	}
}

// MSESpec tracks mean squared error between prediction and ground truth.
func MSESpec(datasetID, timestampColID, predictionColID, groundTruthColID string) platform.AggregationSpec {
	return platform.AggregationSpec{
		AggregationID: platform.AggMSE,
		InitArgs:      []platform.MetricsArg{},
		Args: args(
			arg("dataset", datasetID),
			arg("timestamp_col", timestampColID),
			arg("prediction_col", predictionColID),
			arg("ground_truth_col", groundTruthColID),
		),
	}
}

// ConfusionMatrixSpec tracks thresholded confusion matrix counts,
// optionally segmented by the given columns.
func ConfusionMatrixSpec(datasetID, timestampColID, predictionColID, groundTruthColID string, threshold float64, segmentationColIDs []string) platform.AggregationSpec {
	a := args(
		arg("dataset", datasetID),
		arg("timestamp_col", timestampColID),
		arg("prediction_col", predictionColID),
		arg("gt_values_col", groundTruthColID),
		arg("threshold", threshold),
	)
	if len(segmentationColIDs) > 0 {
		a = append(a, arg("segmentation_cols", segmentationColIDs))
	}
	return platform.AggregationSpec{
		AggregationID: platform.AggConfusionMatrix,
		InitArgs:      []platform.MetricsArg{},
		Args:          a,
	}
}

// ClassCountSpec tracks inference counts per predicted class for a
// thresholded binary classifier.
func ClassCountSpec(datasetID, timestampColID, predictionColID string, threshold float64, trueLabel, falseLabel string, segmentationColIDs []string) platform.AggregationSpec {
	a := args(
		arg("dataset", datasetID),
		arg("timestamp_col", timestampColID),
		arg("prediction_col", predictionColID),
		arg("threshold", threshold),
		arg("true_label", trueLabel),
		arg("false_label", falseLabel),
	)
	if len(segmentationColIDs) > 0 {
		a = append(a, arg("segmentation_cols", segmentationColIDs))
	}
	return platform.AggregationSpec{
		AggregationID: platform.AggClassCount,
		InitArgs:      []platform.MetricsArg{},
		Args:          a,
	}
}

// SpecsEqual reports whether two aggregation specs bind the same function
// to the same arguments.
func SpecsEqual(a, b platform.AggregationSpec) bool {
	return a.AggregationID == b.AggregationID && reflect.DeepEqual(a.Args, b.Args)
}

// MergeSpecs appends the additions that are not already present in
// existing, comparing by aggregation ID and argument bindings. It returns
// the merged list and the number of additions actually applied.
func MergeSpecs(existing, additions []platform.AggregationSpec) ([]platform.AggregationSpec, int) {
	merged := make([]platform.AggregationSpec, len(existing))
	copy(merged, existing)

	added := 0
	for _, spec := range additions {
		duplicate := false
		for _, have := range existing {
			if SpecsEqual(have, spec) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			merged = append(merged, spec)
			added++
		}
	}
	return merged, added
}

// BaselineSpecs builds the default aggregation set every onboarded
// dataset gets: an inference count, a null count per column, and a
// numeric distribution for the prediction and ground-truth columns when
// they exist.
func BaselineSpecs(dataset *platform.Dataset, timestampCol, predictionCol, groundTruthCol string) ([]platform.AggregationSpec, error) {
	ts := dataset.Schema.ColumnByName(timestampCol)
	if ts == nil {
		return nil, &MissingColumnError{Dataset: dataset.Name, Column: timestampCol}
	}

	specs := []platform.AggregationSpec{
		InferenceCountSpec(dataset.ID, ts.ID),
	}
	for _, col := range dataset.Schema.Columns {
		specs = append(specs, NullCountSpec(dataset.ID, ts.ID, col.ID))
	}

	for _, name := range []string{predictionCol, groundTruthCol} {
		if name == "" {
			continue
		}
		if col := dataset.Schema.ColumnByName(name); col != nil {
			specs = append(specs, NumericDistributionSpec(dataset.ID, ts.ID, col.ID))
		}
	}
	return specs, nil
}
