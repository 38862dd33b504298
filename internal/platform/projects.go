package platform

import (
	"context"
	"fmt"
)

// GetProject fetches a project by ID.
func (c *Client) GetProject(ctx context.Context, projectID string) (*Project, error) {
	var project Project
	if err := c.get(ctx, "/projects/"+projectID, nil, &project); err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", projectID, err)
	}
	return &project, nil
}

// GetDataPlane fetches a data plane by ID.
func (c *Client) GetDataPlane(ctx context.Context, dataPlaneID string) (*DataPlane, error) {
	var plane DataPlane
	if err := c.get(ctx, "/data_planes/"+dataPlaneID, nil, &plane); err != nil {
		return nil, fmt.Errorf("failed to get data plane %s: %w", dataPlaneID, err)
	}
	return &plane, nil
}

// ListDataPlanes lists the data planes in a workspace.
func (c *Client) ListDataPlanes(ctx context.Context, workspaceID string) ([]DataPlane, error) {
	var resp listResponse[DataPlane]
	q := pageQuery(1, nil)
	q.Set("workspace_id", workspaceID)
	if err := c.get(ctx, "/data_planes", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to list data planes: %w", err)
	}
	return resp.Records, nil
}
