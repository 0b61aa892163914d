package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/wantedanchors/internal/anchor"
	"github.com/nao1215/wantedanchors/internal/config"
	"github.com/nao1215/wantedanchors/internal/database"
	seclog "github.com/nao1215/wantedanchors/internal/log"
	"github.com/nao1215/wantedanchors/internal/model"
	"github.com/nao1215/wantedanchors/internal/pipeline"
	"github.com/nao1215/wantedanchors/internal/render"
	"github.com/nao1215/wantedanchors/internal/report"
)

// addStoreFlags registers the flags locating the document store.
func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-dir", "",
		"Directory of the document store (default: XDG data directory)")
	cmd.Flags().IntSliceP("namespace", "n", []int{config.DefaultNamespace},
		"Namespace to scan; repeat or comma-separate for several")
}

// addRenderFlags registers the flags of the pipeline and its renderer.
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("renderer", "r", config.RendererLocal,
		`How target pages are rendered: "local" or "api"`)
	cmd.Flags().StringP("api-endpoint", "a", "",
		"MediaWiki api.php URL for the api renderer")
	cmd.Flags().StringP("proxy", "x", "",
		"SOCKS5 proxy (host:port) for API requests")
	cmd.Flags().DurationP("timeout", "t", config.DefaultRenderTimeout,
		"Timeout of each render call")
	cmd.Flags().IntP("concurrency", "p", config.DefaultConcurrency,
		"Number of target pages rendered at once")
	cmd.Flags().Bool("capital-links", false,
		"Upper-case the first letter of link targets")
}

// addFormatFlags registers the mutually exclusive report format flags.
func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("json", "j", false, "Output JSON")
	cmd.Flags().BoolP("markdown", "m", false, "Output Markdown")
	cmd.Flags().BoolP("wikitext", "w", false, "Output wikitext, ready to paste into a wiki page")
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getConfigFlag retrieves the config file path from the command or its parent.
func getConfigFlag(cmd *cobra.Command) string {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		path, err = cmd.Root().PersistentFlags().GetString("config")
		if err != nil {
			return ""
		}
	}
	return path
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags the user set, in that order.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	path, err := config.LoadInto(getConfigFlag(cmd), cfg)
	if err != nil {
		return nil, err
	}
	cfg.ConfigFilePath = path

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyFlags copies explicitly set flags onto cfg. Flags the command does
// not define are never reported as changed and are skipped.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	var err error

	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	if flags.Changed("namespace") {
		if cfg.Namespaces, err = flags.GetIntSlice("namespace"); err != nil {
			return err
		}
	}
	if flags.Changed("renderer") {
		if cfg.Renderer, err = flags.GetString("renderer"); err != nil {
			return err
		}
	}
	if flags.Changed("api-endpoint") {
		if cfg.APIEndpoint, err = flags.GetString("api-endpoint"); err != nil {
			return err
		}
	}
	if flags.Changed("proxy") {
		if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
			return err
		}
	}
	if flags.Changed("timeout") {
		if cfg.RenderTimeout, err = flags.GetDuration("timeout"); err != nil {
			return err
		}
	}
	if flags.Changed("concurrency") {
		if cfg.Concurrency, err = flags.GetInt("concurrency"); err != nil {
			return err
		}
	}
	if flags.Changed("capital-links") {
		if cfg.CapitalLinks, err = flags.GetBool("capital-links"); err != nil {
			return err
		}
	}
	if flags.Changed("json") {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return err
		}
	}
	if flags.Changed("markdown") {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return err
		}
	}
	if flags.Changed("wikitext") {
		if cfg.WikitextReport, err = flags.GetBool("wikitext"); err != nil {
			return err
		}
	}
	if flags.Changed("output") {
		if cfg.ReportFile, err = flags.GetString("output"); err != nil {
			return err
		}
	}
	if flags.Changed("no-history") {
		noHistory, err := flags.GetBool("no-history")
		if err != nil {
			return err
		}
		cfg.SaveHistory = !noHistory
	}
	if flags.Changed("listen") {
		if cfg.ListenAddress, err = flags.GetString("listen"); err != nil {
			return err
		}
	}
	return nil
}

// setupLogger creates the credential-masking logger used by every command.
func setupLogger(w io.Writer, verbose bool) *slog.Logger {
	return seclog.NewSecureLogger(w, verbose)
}

// openStore opens the document store of cfg. Only import creates it.
func openStore(cfg *config.Config, create bool) (*database.WikiDB, error) {
	db, err := database.Open(cfg.DBDir, database.Options{
		CreateIfNotExists: create,
		EnableWAL:         true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open document store: %w", err)
	}
	return db, nil
}

// rendererFactory returns the renderer for target pages of a namespace.
type rendererFactory func(namespace int) anchor.Renderer

// newRendererFactory builds the renderer selected by cfg.
func newRendererFactory(cfg *config.Config, db *database.WikiDB, logger *slog.Logger) (rendererFactory, error) {
	if cfg.Renderer != config.RendererAPI {
		return func(namespace int) anchor.Renderer {
			return render.NewLocalRenderer(db, namespace)
		}, nil
	}

	opts := []render.APIOption{
		render.WithUserAgent(cfg.UserAgent),
		render.WithRequestTimeout(cfg.RenderTimeout),
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, render.WithHeaders(cfg.Headers))
	}
	if cfg.ProxyAddress != "" {
		opts = append(opts, render.WithSOCKS5Proxy(cfg.ProxyAddress))
	}
	api, err := render.NewAPIRenderer(cfg.APIEndpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create API renderer: %w", err)
	}

	logger.Debug("using api renderer",
		"endpoint", cfg.APIEndpoint,
		"proxy", cfg.ProxyAddress,
		"headers", cfg.Headers,
	)
	return func(namespace int) anchor.Renderer {
		if namespace != config.DefaultNamespace {
			logger.Warn("api renderer resolves bare titles; targets outside the main namespace may be reported as missing",
				"namespace", namespace)
		}
		return api
	}, nil
}

// newPipelineFactory returns a factory building a fresh default pipeline
// per namespace.
func newPipelineFactory(cfg *config.Config, db *database.WikiDB, renderers rendererFactory, logger *slog.Logger, tracer pipeline.Tracer) func(namespace int) *pipeline.Pipeline {
	return func(namespace int) *pipeline.Pipeline {
		return pipeline.DefaultPipeline(db, renderers(namespace),
			[]pipeline.Option{
				pipeline.WithLogger(logger),
				pipeline.WithTracer(tracer),
			},
			pipeline.WithPipelineCapitalLinks(cfg.CapitalLinks),
			pipeline.WithPipelineRenderTimeout(cfg.RenderTimeout),
			pipeline.WithPipelineConcurrency(cfg.Concurrency),
			pipeline.WithPipelineLogger(logger),
		)
	}
}

// runNamespaces runs the pipeline over every configured namespace. A
// single namespace runs inline; several go through the batch processor.
func runNamespaces(ctx context.Context, namespaces []int, factory func(int) *pipeline.Pipeline, logger *slog.Logger) ([]*model.Run, error) {
	if len(namespaces) == 1 {
		run, err := pipeline.Run(ctx, factory(namespaces[0]), namespaces[0])
		if err != nil {
			return nil, err
		}
		return []*model.Run{run}, nil
	}

	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithBatchConcurrency(len(namespaces)),
		pipeline.WithBatchLogger(logger),
	)
	return bp.ProcessBatch(ctx, namespaces)
}

// newReportWriter creates the writer for the format selected in cfg.
func newReportWriter(cfg *config.Config, output io.Writer) (report.Writer, error) {
	format, err := report.ParseFormat(cfg.ReportFormat())
	if err != nil {
		return nil, err
	}
	return report.NewWriter(format, output, getVersion())
}

// openReportOutput returns the report destination: cfg.ReportFile when set,
// stdout otherwise. The returned close function is always non-nil.
func openReportOutput(cfg *config.Config, stdout io.Writer) (io.Writer, func() error, error) {
	if cfg.ReportFile == "" {
		return stdout, func() error { return nil }, nil
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, f.Close, nil
}
