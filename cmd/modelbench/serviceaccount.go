package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelbench/internal/onboard"
)

var (
	saName  string
	saRole  string
	saGroup string
)

// serviceAccountCmd provisions machine identities
var serviceAccountCmd = &cobra.Command{
	Use:   "service-account",
	Short: "Manage service accounts for unattended automation",
}

var serviceAccountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a service account with client credentials",
	Long: `Creates a service account, optionally binds an organization role,
and adds it to a group. The client secret is printed exactly once;
store it in a secrets manager.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}

		account, err := onboard.New(client, logger).CreateServiceAccount(cmd.Context(), onboard.ServiceAccountConfig{
			Name:      saName,
			RoleName:  saRole,
			GroupName: saGroup,
		})
		if err != nil {
			return err
		}

		fmt.Printf("Created service account %s (%s)\n", account.Name, account.ID)
		fmt.Println("Credentials (these will not be shown again):")
		fmt.Printf("  Client ID:     %s\n", account.Credentials.ClientID)
		fmt.Printf("  Client Secret: %s\n", account.Credentials.ClientSecret)
		return nil
	},
}

func init() {
	f := serviceAccountCreateCmd.Flags()
	f.StringVar(&saName, "name", "Service Account", "Service account name")
	f.StringVar(&saRole, "role", "", "Organization role to bind (by name)")
	f.StringVar(&saGroup, "group", "", "Group to join (by name)")

	serviceAccountCmd.AddCommand(serviceAccountCreateCmd)
}
