package onboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"modelbench/internal/platform"
)

// ServiceAccountConfig describes the machine identity to provision.
type ServiceAccountConfig struct {
	Name      string
	RoleName  string // optional org role to bind
	GroupName string // optional group to join
}

// CreateServiceAccount provisions a service account for unattended
// automation, optionally binding an organization role and adding it to a
// group. The returned credentials are only available on this call.
func (o *Onboarder) CreateServiceAccount(ctx context.Context, cfg ServiceAccountConfig) (*platform.ServiceAccount, error) {
	account, err := o.client.CreateServiceAccount(ctx, platform.PostServiceAccount{Name: cfg.Name})
	if err != nil {
		return nil, err
	}
	if account.Credentials == nil {
		return nil, fmt.Errorf("service account %s was created without credentials", account.ID)
	}
	o.logger.Info("Created service account",
		zap.String("account_id", account.ID),
		zap.String("client_id", account.Credentials.ClientID))

	if cfg.RoleName != "" {
		role, err := o.client.FindRole(ctx, cfg.RoleName)
		if err != nil {
			return nil, err
		}
		if err := o.client.BindOrgRole(ctx, platform.PostRoleBinding{
			RoleID: role.ID,
			UserID: account.ID,
		}); err != nil {
			return nil, err
		}
		o.logger.Info("Bound role to service account",
			zap.String("role", role.Name), zap.String("role_id", role.ID))
	}

	if cfg.GroupName != "" {
		group, err := o.client.FindGroup(ctx, cfg.GroupName)
		if err != nil {
			return nil, err
		}
		if err := o.client.AddUsersToGroup(ctx, group.ID, []string{account.ID}); err != nil {
			return nil, err
		}
		o.logger.Info("Added service account to group",
			zap.String("group", group.Name), zap.String("group_id", group.ID))
	}

	return account, nil
}
