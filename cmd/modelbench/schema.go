package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"modelbench/internal/onboard"
	"modelbench/internal/platform"
)

var (
	schemaDatasetID string
	schemaDType     string
	schemaNullable  bool
	schemaYes       bool
)

// schemaCmd groups dataset schema edit commands
var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Edit dataset schemas",
}

var schemaAddColumnCmd = &cobra.Command{
	Use:   "add-column [name]",
	Short: "Add a column to a dataset schema",
	Long: `Adds a column to an existing dataset schema. The column must
already exist in the underlying data; old partitions are not
backfilled.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaDatasetID == "" {
			return fmt.Errorf("--dataset-id is required")
		}
		dtype, err := parseDType(schemaDType)
		if err != nil {
			return err
		}
		if err := confirm(cmd, schemaYes,
			fmt.Sprintf("Add column %q to dataset %s?", args[0], schemaDatasetID)); err != nil {
			return err
		}

		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}
		return onboard.New(client, logger).AddColumn(cmd.Context(), schemaDatasetID, args[0], dtype, schemaNullable)
	},
}

var schemaRemoveColumnCmd = &cobra.Command{
	Use:   "remove-column [name]",
	Short: "Remove a column from a dataset schema",
	Long: `Removes a column from an existing dataset schema. Aggregations
referencing the column must be removed first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if schemaDatasetID == "" {
			return fmt.Errorf("--dataset-id is required")
		}
		if err := confirm(cmd, schemaYes,
			fmt.Sprintf("Remove column %q from dataset %s?", args[0], schemaDatasetID)); err != nil {
			return err
		}
		client, err := newPlatformClient(cmd.Context())
		if err != nil {
			return err
		}
		return onboard.New(client, logger).RemoveColumn(cmd.Context(), schemaDatasetID, args[0])
	},
}

func parseDType(s string) (platform.DType, error) {
	switch s {
	case "int":
		return platform.DTypeInt, nil
	case "float":
		return platform.DTypeFloat, nil
	case "str", "string":
		return platform.DTypeStr, nil
	case "bool":
		return platform.DTypeBool, nil
	case "timestamp":
		return platform.DTypeTimestamp, nil
	case "date":
		return platform.DTypeDate, nil
	default:
		return "", fmt.Errorf("invalid dtype %q (int, float, str, bool, timestamp, date)", s)
	}
}

func init() {
	schemaCmd.PersistentFlags().StringVar(&schemaDatasetID, "dataset-id", "", "Dataset ID")
	schemaCmd.PersistentFlags().BoolVarP(&schemaYes, "yes", "y", false, "Skip the confirmation prompt")

	schemaAddColumnCmd.Flags().StringVar(&schemaDType, "dtype", "str", "Column type: int, float, str, bool, timestamp, date")
	schemaAddColumnCmd.Flags().BoolVar(&schemaNullable, "nullable", true, "Whether the column allows nulls")

	schemaCmd.AddCommand(schemaAddColumnCmd)
	schemaCmd.AddCommand(schemaRemoveColumnCmd)
}
