package platform

import (
	"context"
	"fmt"
)

// GetModel fetches a model, including its metric configuration.
func (c *Client) GetModel(ctx context.Context, modelID string) (*Model, error) {
	var model Model
	if err := c.get(ctx, "/models/"+modelID, nil, &model); err != nil {
		return nil, fmt.Errorf("failed to get model %s: %w", modelID, err)
	}
	return &model, nil
}

// CreateModel creates a model in the project.
func (c *Client) CreateModel(ctx context.Context, projectID string, spec PostModel) (*Model, error) {
	var model Model
	if err := c.post(ctx, "/projects/"+projectID+"/models", spec, &model); err != nil {
		return nil, fmt.Errorf("failed to create model %q: %w", spec.Name, err)
	}
	return &model, nil
}

// PutModelMetricConfig replaces the model's aggregation configuration.
func (c *Client) PutModelMetricConfig(ctx context.Context, modelID string, spec PutModelMetricSpec) error {
	if err := c.put(ctx, "/models/"+modelID+"/metric_config", spec, nil); err != nil {
		return fmt.Errorf("failed to update metric config for model %s: %w", modelID, err)
	}
	return nil
}

// PutModelMetricsSchedule sets the model's recurring metrics computation.
func (c *Client) PutModelMetricsSchedule(ctx context.Context, modelID string, schedule PutModelMetricsSchedule) error {
	if err := c.put(ctx, "/models/"+modelID+"/metrics_schedule", schedule, nil); err != nil {
		return fmt.Errorf("failed to set metrics schedule for model %s: %w", modelID, err)
	}
	return nil
}

// QueryMetrics runs a SQL query over the model's computed metrics.
func (c *Client) QueryMetrics(ctx context.Context, modelID string, query PostMetricsQuery) (*MetricsQueryResult, error) {
	var result MetricsQueryResult
	if err := c.post(ctx, "/models/"+modelID+"/metrics/query", query, &result); err != nil {
		return nil, fmt.Errorf("failed to query metrics for model %s: %w", modelID, err)
	}
	return &result, nil
}
