package onboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"modelbench/internal/platform"
)

func fieldMap(fields []platform.KeyValue) map[string]string {
	m := make(map[string]string, len(fields))
	for _, f := range fields {
		m[f.Key] = f.Value
	}
	return m
}

func TestS3Source_ConnectorFields(t *testing.T) {
	src := S3Source{
		Bucket:          "demo-bucket",
		Region:          "us-east-1",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "secret",
	}
	m := fieldMap(src.ConnectorFields())
	assert.Equal(t, "demo-bucket", m["bucket"])
	assert.Equal(t, "us-east-1", m["region"])
	assert.Equal(t, "AKIA", m["access_key_id"])
	assert.Equal(t, "secret", m["secret_access_key"])
	assert.NotContains(t, m, "role_arn")

	role := S3Source{Bucket: "b", RoleARN: "arn:aws:iam::123:role/reader", ExternalID: "ext-1"}
	m = fieldMap(role.ConnectorFields())
	assert.Equal(t, "arn:aws:iam::123:role/reader", m["role_arn"])
	assert.Equal(t, "ext-1", m["external_id"])
	assert.NotContains(t, m, "access_key_id")
}

func TestFileLayout_Locator(t *testing.T) {
	layout := FileLayout{
		Prefix:   "housing-price/%Y-%m-%d",
		Suffix:   ".*.parquet",
		FileType: "parquet",
	}
	m := fieldMap(layout.Locator().Fields)
	assert.Equal(t, "housing-price/%Y-%m-%d", m["file_prefix"])
	assert.Equal(t, ".*.parquet", m["file_suffix"])
	assert.Equal(t, "parquet", m["data_file_type"])
	assert.Equal(t, "UTC", m["timestamp_time_zone"])
	assert.NotContains(t, m, "csv_delimiter")
}

func TestFileLayout_LocatorCSVDefaults(t *testing.T) {
	layout := FileLayout{
		Prefix:       "housing-price/%Y-%m-%d",
		Suffix:       ".*.csv",
		FileType:     "csv",
		CSVHasHeader: true,
	}
	m := fieldMap(layout.Locator().Fields)
	assert.Equal(t, ",", m["csv_delimiter"])
	assert.Equal(t, "true", m["csv_has_header"])
	assert.Equal(t, `"`, m["csv_quote_char"])
}

func TestTagSchema(t *testing.T) {
	o := New(nil, zap.NewNop())
	schema := testDataset().Schema

	flow := Flow{
		ModelName:         "housing",
		TimestampColumn:   "timestamp",
		PredictionColumn:  "predicted_house_value",
		GroundTruthColumn: "actual_house_value",
		ColumnTypes:       map[string]platform.DType{"region": platform.DTypeStr},
	}
	require.NoError(t, o.tagSchema(flow, schema))

	ts := schema.ColumnByName("timestamp")
	assert.Contains(t, ts.Definition.ScalarType.TagHints, platform.TagPrimaryTimestamp)
	assert.Equal(t, platform.DTypeTimestamp, ts.Definition.ScalarType.DType)

	pred := schema.ColumnByName("predicted_house_value")
	assert.Contains(t, pred.Definition.ScalarType.TagHints, platform.TagPrediction)

	gt := schema.ColumnByName("actual_house_value")
	assert.Contains(t, gt.Definition.ScalarType.TagHints, platform.TagGroundTruth)

	// Tagging twice never duplicates hints.
	require.NoError(t, o.tagSchema(flow, schema))
	assert.Len(t, ts.Definition.ScalarType.TagHints, 1)
}

func TestTagSchema_MissingTimestamp(t *testing.T) {
	o := New(nil, zap.NewNop())
	err := o.tagSchema(Flow{ModelName: "m", TimestampColumn: "nope"}, testDataset().Schema)

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "nope", missing.Column)
}

func TestOnboarder_Run(t *testing.T) {
	inspectedSchema := &platform.DatasetSchema{
		Columns: []platform.DatasetColumn{
			platform.NewDatasetColumn("col-ts", "s1", "timestamp", platform.DTypeStr, false),
			platform.NewDatasetColumn("col-pred", "s2", "fraud_score", platform.DTypeFloat, true),
			platform.NewDatasetColumn("col-gt", "s3", "is_fraud", platform.DTypeInt, true),
		},
	}

	var createdConnector platform.PostConnector
	var createdDataset platform.PostDataset
	var createdModel platform.PostModel
	var schedule platform.PutModelMetricsSchedule

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/projects/p-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(platform.Project{ID: "p-1", Name: "demo", WorkspaceID: "w-1"})
	})
	mux.HandleFunc("GET /api/v1/data_planes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "w-1", r.URL.Query().Get("workspace_id"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []platform.DataPlane{{ID: "dp-1", Name: "primary"}},
		})
	})
	mux.HandleFunc("GET /api/v1/projects/p-1/connectors", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"records": []platform.Connector{}})
	})
	mux.HandleFunc("POST /api/v1/projects/p-1/connectors", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&createdConnector))
		_ = json.NewEncoder(w).Encode(platform.Connector{ID: "conn-1", Name: createdConnector.Name})
	})
	mux.HandleFunc("POST /api/v1/connectors/conn-1/available_datasets", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(platform.Dataset{ID: "avail-1"})
	})
	mux.HandleFunc("POST /api/v1/projects/p-1/jobs", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(platform.JobBatchResponse{
			Jobs: []platform.Job{{ID: "job-1", State: platform.JobCompleted}},
		})
	})
	mux.HandleFunc("GET /api/v1/available_datasets/avail-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(platform.Dataset{ID: "avail-1", Schema: inspectedSchema})
	})
	mux.HandleFunc("POST /api/v1/connectors/conn-1/datasets", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&createdDataset))
		_ = json.NewEncoder(w).Encode(platform.Dataset{
			ID: "ds-1", Name: createdDataset.Name,
			Schema: &platform.DatasetSchema{Columns: createdDataset.Schema.Columns},
		})
	})
	mux.HandleFunc("POST /api/v1/projects/p-1/models", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&createdModel))
		_ = json.NewEncoder(w).Encode(platform.Model{ID: "m-1", Name: createdModel.Name})
	})
	mux.HandleFunc("PUT /api/v1/models/m-1/metrics_schedule", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&schedule))
		w.WriteHeader(http.StatusOK)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := platform.NewClient(server.URL, platform.StaticToken("t"), zap.NewNop())
	onboarder := New(client, zap.NewNop())

	result, err := onboarder.Run(context.Background(), Flow{
		ProjectID:         "p-1",
		ConnectorName:     "fraud-s3",
		Source:            S3Source{Bucket: "demo-bucket", Region: "us-east-1"},
		Layout:            FileLayout{Prefix: "fraud/year=%Y/month=%m/day=%d", Suffix: ".*.json", FileType: "json"},
		ModelName:         "fraud-model",
		ProblemType:       platform.ProblemTypeBinaryClassifier,
		TimestampColumn:   "timestamp",
		PredictionColumn:  "fraud_score",
		GroundTruthColumn: "is_fraud",
		ColumnTypes:       map[string]platform.DType{"is_fraud": platform.DTypeInt},
	})
	require.NoError(t, err)

	assert.Equal(t, &Result{ConnectorID: "conn-1", DatasetID: "ds-1", ModelID: "m-1"}, result)

	// Connector spec carried the S3 fields to the resolved data plane.
	assert.Equal(t, platform.ConnectorTypeS3, createdConnector.Type)
	assert.Equal(t, "dp-1", createdConnector.DataPlaneID)
	assert.Equal(t, "demo-bucket", fieldMap(createdConnector.Fields)["bucket"])

	// The created dataset carries the tagged, type-forced schema.
	tagged := platform.DatasetSchema{Columns: createdDataset.Schema.Columns}
	ts := tagged.ColumnByName("timestamp")
	require.NotNil(t, ts)
	assert.Equal(t, platform.DTypeTimestamp, ts.Definition.ScalarType.DType)
	assert.Contains(t, ts.Definition.ScalarType.TagHints, platform.TagPrimaryTimestamp)

	// Model got a baseline metric config: count + 3 null counts + 2
	// numeric distributions.
	assert.Equal(t, []string{"ds-1"}, createdModel.DatasetIDs)
	assert.Len(t, createdModel.MetricConfig.AggregationSpecs, 6)

	assert.Equal(t, ScheduleCron, schedule.Cron)
	assert.Equal(t, ScheduleLookback, schedule.LookbackPeriodSeconds)
	assert.Equal(t, ScheduleName, schedule.Name)
}

func TestOnboarder_Run_ReusesConnector(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/projects/p-1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(platform.Project{ID: "p-1", WorkspaceID: "w-1"})
	})
	mux.HandleFunc("GET /api/v1/data_planes", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []platform.DataPlane{{ID: "dp-1"}},
		})
	})
	mux.HandleFunc("GET /api/v1/projects/p-1/connectors", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "fraud-s3", r.URL.Query().Get("name"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"records": []platform.Connector{{ID: "conn-existing", Name: "fraud-s3"}},
		})
	})
	mux.HandleFunc("POST /api/v1/projects/p-1/connectors", func(w http.ResponseWriter, r *http.Request) {
		t.Error("must reuse the existing connector")
	})
	// Fail the flow right after connector resolution; reuse is all this
	// test checks.
	mux.HandleFunc("POST /api/v1/connectors/conn-existing/available_datasets", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"boom"}`, http.StatusBadRequest)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := platform.NewClient(server.URL, platform.StaticToken("t"), zap.NewNop())
	_, err := New(client, zap.NewNop()).Run(context.Background(), Flow{
		ProjectID:       "p-1",
		ConnectorName:   "fraud-s3",
		ModelName:       "fraud-model",
		TimestampColumn: "timestamp",
	})
	require.Error(t, err)
}

func TestResolveDataPlane_NoneFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/data_planes", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"records": []platform.DataPlane{}})
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client := platform.NewClient(server.URL, platform.StaticToken("t"), zap.NewNop())
	o := New(client, zap.NewNop())

	_, err := o.resolveDataPlane(context.Background(), Flow{}, &platform.Project{WorkspaceID: "w-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data planes")
}
