package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaInspectionSpec(t *testing.T) {
	spec := SchemaInspectionSpec("conn-1", "avail-1")
	assert.Equal(t, JobKindSchemaInspection, spec.Kind)
	assert.Equal(t, "conn-1", spec.Spec["connector_id"])
	assert.Equal(t, "avail-1", spec.Spec["available_dataset_id"])
}

func TestSubmitJobs(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/projects/p-1/jobs", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var batch PostJobBatch
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		require.Len(t, batch.Jobs, 1)

		_ = json.NewEncoder(w).Encode(JobBatchResponse{
			Jobs: []Job{{ID: "job-1", State: JobQueued}},
		})
	}))

	jobs, err := client.SubmitJobs(context.Background(), "p-1", PostJobBatch{
		Jobs: []PostJob{SchemaInspectionSpec("conn-1", "avail-1")},
	})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "job-1", jobs[0].ID)
	assert.Equal(t, JobQueued, jobs[0].State)
}

func TestWaitForJob_Completes(t *testing.T) {
	old := jobPollInterval
	jobPollInterval = time.Millisecond
	defer func() { jobPollInterval = old }()

	var polls atomic.Int32
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/jobs/job-1", r.URL.Path)
		state := JobRunning
		if polls.Add(1) >= 3 {
			state = JobCompleted
		}
		_ = json.NewEncoder(w).Encode(Job{ID: "job-1", State: state})
	}))

	job, err := client.WaitForJob(context.Background(), &Job{ID: "job-1", State: JobQueued})
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, job.State)
	assert.GreaterOrEqual(t, polls.Load(), int32(3))
}

func TestWaitForJob_Failure(t *testing.T) {
	old := jobPollInterval
	jobPollInterval = time.Millisecond
	defer func() { jobPollInterval = old }()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(Job{ID: "job-1", State: JobFailed})
	}))

	job, err := client.WaitForJob(context.Background(), &Job{ID: "job-1", State: JobQueued})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed")
	require.NotNil(t, job)
	assert.Equal(t, JobFailed, job.State)
}

func TestWaitForJob_AlreadyDone(t *testing.T) {
	// No polling needed when the job is already terminal.
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for a terminal job")
	}))

	job, err := client.WaitForJob(context.Background(), &Job{ID: "job-1", State: JobCompleted})
	require.NoError(t, err)
	assert.Equal(t, JobCompleted, job.State)
}

func TestWaitForJob_ContextCancelled(t *testing.T) {
	old := jobPollInterval
	jobPollInterval = 10 * time.Second
	defer func() { jobPollInterval = old }()

	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.WaitForJob(ctx, &Job{ID: "job-1", State: JobRunning})
	require.ErrorIs(t, err, context.Canceled)
}
