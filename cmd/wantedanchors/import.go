package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/wantedanchors/internal/config"
	"github.com/nao1215/wantedanchors/internal/extract"
)

// NewImportCmd creates the import command.
func NewImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Load wikitext and markdown files into the document store",
		Long: `Import stores every .wiki, .wikitext, .mediawiki, .md and .markdown file
under <dir> as a page of the given namespace. The page title is the path
relative to <dir> without its extension. The links each page makes are
recorded so that scan can find the pages linking within the namespace.

Importing a page again replaces its text and links.

Examples:
  # Import a directory of pages into the main namespace
  wantedanchors import ./pages

  # Import into namespace 4 of a custom store
  wantedanchors import --db-dir ./store -n 4 ./project-pages`,
		Args: cobra.ExactArgs(1),
		RunE: runImportCmd,
	}

	addStoreFlags(cmd)
	cmd.Flags().Bool("capital-links", false,
		"Upper-case the first letter of link targets")

	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", args[0])
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)
	return runImport(cmd.Context(), cfg, args[0], cmd.OutOrStdout(), logger)
}

// runImport imports dir into the first namespace of cfg.
func runImport(ctx context.Context, cfg *config.Config, dir string, stdout io.Writer, logger *slog.Logger) error {
	db, err := openStore(cfg, true)
	if err != nil {
		return err
	}
	defer db.Close()

	namespace := cfg.Namespace()
	if len(cfg.Namespaces) > 1 {
		logger.Warn("import uses only the first namespace", "namespace", namespace)
	}

	stats, err := db.ImportDir(ctx, dir, namespace, extract.New(extract.WithCapitalLinks(cfg.CapitalLinks)))
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	total, err := db.CountPages(ctx, namespace)
	if err != nil {
		return err
	}

	logger.Info("import complete", "dir", dir, "namespace", namespace, "pages", stats.Pages)
	fmt.Fprintf(stdout, "Imported %d pages (%d links, %d files skipped) into namespace %d\n",
		stats.Pages, stats.Links, stats.Skipped, namespace)
	fmt.Fprintf(stdout, "Namespace %d now holds %d pages in %s\n", namespace, total, db.Path())
	return nil
}
