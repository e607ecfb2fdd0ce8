package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for floorscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "floorscan",
		Short: "Extract dimensions and codes from floorplans",
		Long: `floorscan reads architectural floorplans (PDF, hOCR or token JSON) and
extracts dimension callouts such as 2' 6", 34 (1/2)" and 25", normalized to
inches, together with cabinet and equipment codes such as DB24 or WC3036.

Results are printed or saved as text, JSON or Markdown, and every run is kept
in a local history database for later comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewExtractCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewTokensCmd())
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
