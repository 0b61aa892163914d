package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/wantedanchors/internal/config"
	"github.com/nao1215/wantedanchors/internal/model"
	"github.com/nao1215/wantedanchors/internal/pipeline"
)

// NewScanCmd creates the scan command.
func NewScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Report hash-links whose section is missing",
		Long: `Scan reads every page of a namespace that links within that namespace,
extracts its [[Page#Section]] links, renders each target page once and
reports the links whose section anchor the target does not contain.

Each run is stored in the history of the document store, so that
'wantedanchors history --diff' can show what changed.

Examples:
  # Scan the main namespace, rendering targets from the store
  wantedanchors scan

  # Scan namespaces 0 and 4
  wantedanchors scan -n 0 -n 4

  # Render targets through a live wiki
  wantedanchors scan --renderer api --api-endpoint https://wiki.example.org/w/api.php

  # Write a wikitext report to a file
  wantedanchors scan --wikitext -o WantedAnchors.wiki`,
		Args: cobra.NoArgs,
		RunE: runScanCmd,
	}

	addStoreFlags(cmd)
	addRenderFlags(cmd)
	addFormatFlags(cmd)
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-history", false,
		"Do not save this run in the history")

	return cmd
}

func runScanCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScan(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// runScan runs the pipeline for every namespace of cfg, saves the runs and
// writes their reports to stdout or cfg.ReportFile. Progress goes to stderr.
func runScan(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	db, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	renderers, err := newRendererFactory(cfg, db, logger)
	if err != nil {
		return err
	}

	var tracer pipeline.Tracer
	if cfg.Verbose {
		tracer = pipeline.NewLogTracer(logger)
	}
	factory := newPipelineFactory(cfg, db, renderers, logger, tracer)

	fmt.Fprintf(stderr, "Scanning namespaces %v of %s...\n", cfg.Namespaces, db.Path())
	start := time.Now()

	runs, err := runNamespaces(ctx, cfg.Namespaces, factory, logger)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}
	fmt.Fprintf(stderr, "Scan completed in %s\n", time.Since(start).Round(time.Millisecond))

	if cfg.SaveHistory {
		for _, run := range runs {
			if _, err := db.SaveRun(ctx, run); err != nil {
				return fmt.Errorf("failed to save run: %w", err)
			}
			logger.Info("run saved", "id", run.ID, "namespace", run.Namespace, "digest", run.Report.Digest())
		}
	}

	return writeRuns(cfg, runs, stdout)
}

// writeRuns writes the report of each run, in namespace order.
func writeRuns(cfg *config.Config, runs []*model.Run, stdout io.Writer) error {
	output, closeOutput, err := openReportOutput(cfg, stdout)
	if err != nil {
		return err
	}
	defer closeOutput() //nolint:errcheck // reports are flushed by Write

	writer, err := newReportWriter(cfg, output)
	if err != nil {
		return err
	}
	for _, run := range runs {
		if _, err := writer.Write(run); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return nil
}
