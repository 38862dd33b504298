package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// confirm asks for an explicit yes before a mutating platform call.
// Passing --yes (skip=true) bypasses the prompt for CI runs.
func confirm(cmd *cobra.Command, skip bool, action string) error {
	if skip {
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s (yes/no): ", action)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("aborted: no confirmation")
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y":
		return nil
	}
	return fmt.Errorf("aborted")
}
