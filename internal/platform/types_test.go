package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertBound(t *testing.T) {
	assert.Equal(t, ">", BoundUpper.Operator())
	assert.Equal(t, "<", BoundLower.Operator())

	assert.True(t, BoundUpper.Violated(0.9, 0.8))
	assert.False(t, BoundUpper.Violated(0.8, 0.8))
	assert.True(t, BoundLower.Violated(0.7, 0.8))
	assert.False(t, BoundLower.Violated(0.8, 0.8))
}

func TestDatasetSchema_ColumnByName(t *testing.T) {
	schema := DatasetSchema{
		Columns: []DatasetColumn{
			NewDatasetColumn("c1", "s1", "timestamp", DTypeTimestamp, false),
			NewDatasetColumn("c2", "s2", "fraud_score", DTypeFloat, true),
		},
	}

	col := schema.ColumnByName("fraud_score")
	require.NotNil(t, col)
	assert.Equal(t, "c2", col.ID)
	assert.Equal(t, DTypeFloat, col.Definition.ScalarType.DType)
	assert.True(t, col.Definition.ScalarType.Nullable)

	assert.Nil(t, schema.ColumnByName("missing"))
	assert.Equal(t, []string{"timestamp", "fraud_score"}, schema.ColumnNames())
}

func TestAggregateArgConstructors(t *testing.T) {
	col := ColumnArg("prediction_col", "Prediction", "the model score", []SchemaTag{TagPrediction}, DTypeFloat)
	assert.Equal(t, "prediction_col", col.ParameterKey)
	assert.Equal(t, ParamColumn, col.ParameterType)
	assert.Equal(t, []SchemaTag{TagPrediction}, col.TagHints)
	assert.Equal(t, []DType{DTypeFloat}, col.AllowedDTypes)
	assert.Equal(t, "dataset", col.SourceDatasetKey)

	lit := LiteralArg("threshold", "Threshold", "decision cut", DTypeFloat)
	assert.Equal(t, ParamLiteral, lit.ParameterType)
	assert.Equal(t, DTypeFloat, lit.ParameterDType)

	ds := DatasetArg("Dataset", "inference dataset", ProblemTypeBinaryClassifier)
	assert.Equal(t, "dataset", ds.ParameterKey)
	assert.Equal(t, ParamDataset, ds.ParameterType)
	assert.Equal(t, ProblemTypeBinaryClassifier, ds.ProblemType)
}
