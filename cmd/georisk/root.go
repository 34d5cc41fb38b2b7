// Package main provides the entry point for the georisk CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for georisk.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "georisk",
		Short: "HIFCA and HIDTA county designation extractor",
		Long: `georisk extracts county-level HIFCA (High Intensity Financial Crime Area)
and HIDTA (High Intensity Drug Trafficking Area) designations from their
official government sources and merges them into a single dataset.

Before using extracted data, georisk compares each source page's layout
against a stored baseline. Structural changes such as added table columns
block the run so silently misparsed data never reaches the output.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
