package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for wantedanchors.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wantedanchors",
		Short: "Find hash-links pointing at sections that do not exist",
		Long: `wantedanchors lists wiki links of the form [[Page#Section]] whose
section anchor is missing from the rendered target page.

Pages are read from a local SQLite document store filled with
'wantedanchors import'. Target pages are rendered either from that store
or through a MediaWiki api.php endpoint.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .wantedanchors in current or home directory)")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewServeCmd())
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
