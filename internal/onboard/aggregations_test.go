package onboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelbench/internal/platform"
)

func argMap(spec platform.AggregationSpec) map[string]any {
	m := make(map[string]any, len(spec.Args))
	for _, a := range spec.Args {
		m[a.Key] = a.Value
	}
	return m
}

func TestInferenceCountSpec(t *testing.T) {
	spec := InferenceCountSpec("ds-1", "col-ts")
	assert.Equal(t, platform.AggInferenceCount, spec.AggregationID)
	assert.Equal(t, map[string]any{
		"dataset":       "ds-1",
		"timestamp_col": "col-ts",
	}, argMap(spec))
	assert.NotNil(t, spec.InitArgs)
}

func TestColumnSpecs(t *testing.T) {
	null := NullCountSpec("ds-1", "col-ts", "col-a")
	assert.Equal(t, platform.AggNullableCount, null.AggregationID)
	assert.Equal(t, "col-a", argMap(null)["nullable_col"])

	dist := NumericDistributionSpec("ds-1", "col-ts", "col-a")
	assert.Equal(t, platform.AggNumericDistribution, dist.AggregationID)
	assert.Equal(t, "col-a", argMap(dist)["numeric_col"])

	sum := NumericSumSpec("ds-1", "col-ts", "col-a")
	assert.Equal(t, platform.AggNumericSum, sum.AggregationID)
	assert.Equal(t, "col-a", argMap(sum)["numeric_col"])

	cat := CategoryCountSpec("ds-1", "col-ts", "col-a")
	assert.Equal(t, platform.AggCategoryCount, cat.AggregationID)
	assert.Equal(t, "col-a", argMap(cat)["categorical_col"])
}

func TestErrorSpecs(t *testing.T) {
	mae := MAESpec("ds-1", "col-ts", "col-pred", "col-gt")
	assert.Equal(t, platform.AggMAE, mae.AggregationID)
	assert.Equal(t, "col-pred", argMap(mae)["prediction_col"])
	assert.Equal(t, "col-gt", argMap(mae)["ground_truth_col"])

	mse := MSESpec("ds-1", "col-ts", "col-pred", "col-gt")
	assert.Equal(t, platform.AggMSE, mse.AggregationID)
}

func TestConfusionMatrixSpec(t *testing.T) {
	spec := ConfusionMatrixSpec("ds-1", "col-ts", "col-pred", "col-gt", 0.5, []string{"col-seg"})
	assert.Equal(t, platform.AggConfusionMatrix, spec.AggregationID)

	m := argMap(spec)
	assert.Equal(t, "col-gt", m["gt_values_col"])
	assert.Equal(t, 0.5, m["threshold"])
	assert.Equal(t, []string{"col-seg"}, m["segmentation_cols"])

	// No segmentation arg at all when no columns are given.
	bare := ConfusionMatrixSpec("ds-1", "col-ts", "col-pred", "col-gt", 0.5, nil)
	_, ok := argMap(bare)["segmentation_cols"]
	assert.False(t, ok)
}

func TestClassCountSpec(t *testing.T) {
	spec := ClassCountSpec("ds-1", "col-ts", "col-pred", 0.5, "fraud", "not_fraud", nil)
	assert.Equal(t, platform.AggClassCount, spec.AggregationID)

	m := argMap(spec)
	assert.Equal(t, 0.5, m["threshold"])
	assert.Equal(t, "fraud", m["true_label"])
	assert.Equal(t, "not_fraud", m["false_label"])
}

func TestSpecsEqual(t *testing.T) {
	a := InferenceCountSpec("ds-1", "col-ts")
	b := InferenceCountSpec("ds-1", "col-ts")
	assert.True(t, SpecsEqual(a, b))

	assert.False(t, SpecsEqual(a, InferenceCountSpec("ds-2", "col-ts")))
	assert.False(t, SpecsEqual(a, NullCountSpec("ds-1", "col-ts", "col-a")))
}

func TestMergeSpecs(t *testing.T) {
	existing := []platform.AggregationSpec{
		InferenceCountSpec("ds-1", "col-ts"),
		NullCountSpec("ds-1", "col-ts", "col-a"),
	}
	additions := []platform.AggregationSpec{
		InferenceCountSpec("ds-1", "col-ts"),       // duplicate
		NullCountSpec("ds-1", "col-ts", "col-b"),   // new
		NumericSumSpec("ds-1", "col-ts", "col-b"),  // new
	}

	merged, added := MergeSpecs(existing, additions)
	assert.Equal(t, 2, added)
	assert.Len(t, merged, 4)

	// Merging again is a no-op.
	merged2, added2 := MergeSpecs(merged, additions)
	assert.Equal(t, 0, added2)
	assert.Len(t, merged2, 4)
}

func testDataset() *platform.Dataset {
	return &platform.Dataset{
		ID:   "ds-1",
		Name: "housing",
		Schema: &platform.DatasetSchema{
			Columns: []platform.DatasetColumn{
				platform.NewDatasetColumn("col-ts", "s1", "timestamp", platform.DTypeTimestamp, false),
				platform.NewDatasetColumn("col-pred", "s2", "predicted_house_value", platform.DTypeFloat, true),
				platform.NewDatasetColumn("col-gt", "s3", "actual_house_value", platform.DTypeFloat, true),
				platform.NewDatasetColumn("col-region", "s4", "region", platform.DTypeStr, true),
			},
		},
	}
}

func TestBaselineSpecs(t *testing.T) {
	dataset := testDataset()
	specs, err := BaselineSpecs(dataset, "timestamp", "predicted_house_value", "actual_house_value")
	require.NoError(t, err)

	// 1 count + 4 null counts + 2 numeric distributions.
	require.Len(t, specs, 7)
	assert.Equal(t, platform.AggInferenceCount, specs[0].AggregationID)

	var nullCounts, distributions int
	for _, spec := range specs[1:] {
		switch spec.AggregationID {
		case platform.AggNullableCount:
			nullCounts++
		case platform.AggNumericDistribution:
			distributions++
		}
	}
	assert.Equal(t, 4, nullCounts)
	assert.Equal(t, 2, distributions)
}

func TestBaselineSpecs_MissingTimestamp(t *testing.T) {
	dataset := testDataset()
	_, err := BaselineSpecs(dataset, "no_such_col", "", "")
	require.Error(t, err)

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "no_such_col", missing.Column)
	assert.Equal(t, "housing", missing.Dataset)
}

func TestBaselineSpecs_UnknownPredictionColumnIgnored(t *testing.T) {
	dataset := testDataset()
	specs, err := BaselineSpecs(dataset, "timestamp", "not_there", "")
	require.NoError(t, err)
	assert.Len(t, specs, 5) // count + 4 null counts only
}
