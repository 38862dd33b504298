package platform

import (
	"context"
	"fmt"
	"net/url"
)

// CreateServiceAccount creates an organization service account. The
// returned credentials are shown exactly once.
func (c *Client) CreateServiceAccount(ctx context.Context, spec PostServiceAccount) (*ServiceAccount, error) {
	var account ServiceAccount
	if err := c.post(ctx, "/organization/service_accounts", spec, &account); err != nil {
		return nil, fmt.Errorf("failed to create service account %q: %w", spec.Name, err)
	}
	return &account, nil
}

// FindRole looks up an organization-bindable role by exact name.
func (c *Client) FindRole(ctx context.Context, name string) (*Role, error) {
	q := pageQuery(1, url.Values{
		"name":                  {name},
		"organization_bindable": {"true"},
	})
	var resp listResponse[Role]
	if err := c.get(ctx, "/roles", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	if len(resp.Records) == 0 {
		return nil, fmt.Errorf("role %q: %w", name, ErrNotFound)
	}
	return &resp.Records[0], nil
}

// BindOrgRole assigns a role to a user at the organization level.
func (c *Client) BindOrgRole(ctx context.Context, binding PostRoleBinding) error {
	if err := c.post(ctx, "/organization/role_bindings", binding, nil); err != nil {
		return fmt.Errorf("failed to bind role %s to user %s: %w", binding.RoleID, binding.UserID, err)
	}
	return nil
}

// FindGroup looks up a group by exact name.
func (c *Client) FindGroup(ctx context.Context, name string) (*Group, error) {
	q := pageQuery(1, url.Values{"name": {name}})
	var resp listResponse[Group]
	if err := c.get(ctx, "/groups", q, &resp); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	if len(resp.Records) == 0 {
		return nil, fmt.Errorf("group %q: %w", name, ErrNotFound)
	}
	return &resp.Records[0], nil
}

// AddUsersToGroup adds the users to the group.
func (c *Client) AddUsersToGroup(ctx context.Context, groupID string, userIDs []string) error {
	body := PostGroupMembership{UserIDs: userIDs}
	if err := c.post(ctx, "/groups/"+groupID+"/users", body, nil); err != nil {
		return fmt.Errorf("failed to add users to group %s: %w", groupID, err)
	}
	return nil
}
