// Package cli implements ridged's command-line interface using Cobra,
// grounded on the teacher's internal/cli/root.go: one package-level
// rootCmd, subcommands registering themselves via init(), and an
// Execute(version) entry point called from main.go.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ridged",
	Short: "ridged — a work-stealing database server runtime",
	Long: `ridged runs the scheduler, routing, and domain services that make up
a ridge database instance, and exposes them over a shared-memory IPC
endpoint and a TCP stream endpoint.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from cmd/ridged/main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
