package platform

import (
	"context"
	"fmt"
	"net/url"
)

// ListConnectors lists the project's connectors matching the filter.
func (c *Client) ListConnectors(ctx context.Context, projectID string, filter ConnectorFilter) ([]Connector, error) {
	extra := url.Values{}
	if filter.Type != "" {
		extra.Set("connector_type", filter.Type)
	}
	if filter.Name != "" {
		extra.Set("name", filter.Name)
	}
	if filter.DataPlaneID != "" {
		extra.Set("data_plane_id", filter.DataPlaneID)
	}

	var resp listResponse[Connector]
	if err := c.get(ctx, "/projects/"+projectID+"/connectors", pageQuery(1, extra), &resp); err != nil {
		return nil, fmt.Errorf("failed to list connectors: %w", err)
	}
	return resp.Records, nil
}

// CreateConnector creates a connector in the project.
func (c *Client) CreateConnector(ctx context.Context, projectID string, spec PostConnector) (*Connector, error) {
	var connector Connector
	if err := c.post(ctx, "/projects/"+projectID+"/connectors", spec, &connector); err != nil {
		return nil, fmt.Errorf("failed to create connector %q: %w", spec.Name, err)
	}
	return &connector, nil
}
