package platform

import (
	"context"
	"fmt"
)

// CreateCustomAggregation registers a SQL custom aggregation in the
// workspace.
func (c *Client) CreateCustomAggregation(ctx context.Context, workspaceID string, spec PostCustomAggregation) (*CustomAggregation, error) {
	var agg CustomAggregation
	if err := c.post(ctx, "/workspaces/"+workspaceID+"/custom_aggregations", spec, &agg); err != nil {
		return nil, fmt.Errorf("failed to create custom aggregation %q: %w", spec.Name, err)
	}
	return &agg, nil
}
