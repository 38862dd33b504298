package platform

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// CreateAvailableDataset registers a candidate dataset under a connector
// so the data plane can inspect its schema.
func (c *Client) CreateAvailableDataset(ctx context.Context, connectorID string, spec PutAvailableDataset) (*Dataset, error) {
	var dataset Dataset
	if err := c.post(ctx, "/connectors/"+connectorID+"/available_datasets", spec, &dataset); err != nil {
		return nil, fmt.Errorf("failed to create available dataset %q: %w", spec.Name, err)
	}
	return &dataset, nil
}

// GetAvailableDataset fetches an available dataset, including its schema
// once inspection has completed.
func (c *Client) GetAvailableDataset(ctx context.Context, availableDatasetID string) (*Dataset, error) {
	var dataset Dataset
	if err := c.get(ctx, "/available_datasets/"+availableDatasetID, nil, &dataset); err != nil {
		return nil, fmt.Errorf("failed to get available dataset %s: %w", availableDatasetID, err)
	}
	return &dataset, nil
}

// CreateDataset creates a dataset under the connector from an inspected
// schema.
func (c *Client) CreateDataset(ctx context.Context, connectorID string, spec PostDataset) (*Dataset, error) {
	var dataset Dataset
	if err := c.post(ctx, "/connectors/"+connectorID+"/datasets", spec, &dataset); err != nil {
		return nil, fmt.Errorf("failed to create dataset %q: %w", spec.Name, err)
	}
	return &dataset, nil
}

// GetDataset fetches a dataset by ID.
func (c *Client) GetDataset(ctx context.Context, datasetID string) (*Dataset, error) {
	var dataset Dataset
	if err := c.get(ctx, "/datasets/"+datasetID, nil, &dataset); err != nil {
		return nil, fmt.Errorf("failed to get dataset %s: %w", datasetID, err)
	}
	return &dataset, nil
}

// ListDatasets lists the project's datasets, optionally filtered to those
// attached to the given models.
func (c *Client) ListDatasets(ctx context.Context, projectID string, modelIDs []string) ([]Dataset, error) {
	extra := url.Values{}
	if len(modelIDs) > 0 {
		extra.Set("model_ids", strings.Join(modelIDs, ","))
	}

	var datasets []Dataset
	for page := 1; ; page++ {
		var resp listResponse[Dataset]
		if err := c.get(ctx, "/projects/"+projectID+"/datasets", pageQuery(page, extra), &resp); err != nil {
			return nil, fmt.Errorf("failed to list datasets: %w", err)
		}
		datasets = append(datasets, resp.Records...)
		if len(resp.Records) < pageSize {
			break
		}
	}
	return datasets, nil
}

// UpdateDatasetSchema replaces a dataset's schema.
func (c *Client) UpdateDatasetSchema(ctx context.Context, datasetID string, schema PutDatasetSchema) error {
	if err := c.put(ctx, "/datasets/"+datasetID+"/schema", schema, nil); err != nil {
		return fmt.Errorf("failed to update schema for dataset %s: %w", datasetID, err)
	}
	return nil
}
