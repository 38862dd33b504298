package main

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandNames(parent *cobra.Command) []string {
	var names []string
	for _, sub := range parent.Commands() {
		names = append(names, sub.Name())
	}
	return names
}

func TestGenerateSubcommands(t *testing.T) {
	names := commandNames(generateCmd)
	for _, want := range []string{
		"card-fraud", "credit-application", "loan-amount",
		"housing-price", "txn-category", "compliance-alerts", "all",
	} {
		assert.Contains(t, names, want)
	}

	// Short forms keep working.
	fraud, _, err := generateCmd.Find([]string{"fraud"})
	require.NoError(t, err)
	assert.Equal(t, "card-fraud", fraud.Name())
}

func TestOnboardSubcommands(t *testing.T) {
	assert.ElementsMatch(t, []string{"regression", "fraud"}, commandNames(onboardCmd))
}

func TestMetricsSubcommands(t *testing.T) {
	names := commandNames(metricsCmd)
	for _, want := range []string{
		"add-regression", "add-fraud", "prediction-stats",
		"add-error-profile", "duplicate",
	} {
		assert.Contains(t, names, want)
	}

	// Every mutating metrics command honors --yes via the group flag.
	yes := metricsCmd.PersistentFlags().Lookup("yes")
	require.NotNil(t, yes)
	assert.Equal(t, "false", yes.DefValue)
}

func TestSchemaSubcommandsHaveYesFlag(t *testing.T) {
	assert.ElementsMatch(t, []string{"add-column", "remove-column"}, commandNames(schemaCmd))
	require.NotNil(t, schemaCmd.PersistentFlags().Lookup("yes"))
}
