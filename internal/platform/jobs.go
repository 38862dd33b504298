package platform

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// SchemaInspectionSpec builds the job spec that asks the data plane to
// infer an available dataset's schema.
func SchemaInspectionSpec(connectorID, availableDatasetID string) PostJob {
	return PostJob{
		Kind: JobKindSchemaInspection,
		Spec: map[string]any{
			"connector_id":         connectorID,
			"available_dataset_id": availableDatasetID,
		},
	}
}

// SubmitJobs submits a batch of jobs to the project.
func (c *Client) SubmitJobs(ctx context.Context, projectID string, batch PostJobBatch) ([]Job, error) {
	var resp JobBatchResponse
	if err := c.post(ctx, "/projects/"+projectID+"/jobs", batch, &resp); err != nil {
		return nil, fmt.Errorf("failed to submit jobs: %w", err)
	}
	return resp.Jobs, nil
}

// GetJob fetches a job by ID.
func (c *Client) GetJob(ctx context.Context, jobID string) (*Job, error) {
	var job Job
	if err := c.get(ctx, "/jobs/"+jobID, nil, &job); err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", jobID, err)
	}
	return &job, nil
}

// jobPollInterval is how often WaitForJob re-checks a pending job.
var jobPollInterval = time.Second

// WaitForJob polls the job until it leaves the queued/running states or
// ctx expires. It returns an error when the job finishes in any state
// other than completed.
func (c *Client) WaitForJob(ctx context.Context, job *Job) (*Job, error) {
	for job.State == JobQueued || job.State == JobRunning {
		c.logger.Debug("Waiting for job",
			zap.String("job_id", job.ID), zap.String("state", string(job.State)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(jobPollInterval):
		}

		updated, err := c.GetJob(ctx, job.ID)
		if err != nil {
			return nil, err
		}
		job = updated
	}

	if job.State != JobCompleted {
		return job, fmt.Errorf("job %s finished in state %s", job.ID, job.State)
	}
	return job, nil
}
