package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/nao1215/wantedanchors/internal/config"
	seclog "github.com/nao1215/wantedanchors/internal/log"
	"github.com/nao1215/wantedanchors/internal/model"
	"github.com/nao1215/wantedanchors/internal/pipeline"
	"github.com/nao1215/wantedanchors/internal/report"
)

// shutdownTimeout bounds how long serve waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wanted anchors report over HTTP",
		Long: `Serve runs an HTTP server that computes the report on each request.

Endpoints:
  GET /health                   status and cumulative stage timings
  GET /wanted-anchors           report of the default namespace
      ?format=json|markdown|wikitext|text
      &namespace=N

Examples:
  wantedanchors serve --listen :8080
  curl 'localhost:8080/wanted-anchors?format=wikitext'`,
		Args: cobra.NoArgs,
		RunE: runServeCmd,
	}

	addStoreFlags(cmd)
	addRenderFlags(cmd)
	cmd.Flags().StringP("listen", "l", config.DefaultListenAddress,
		"Address to listen on")

	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := seclog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	db, err := openStore(cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	renderers, err := newRendererFactory(cfg, db, logger)
	if err != nil {
		return err
	}

	timings := pipeline.NewTimingTracer()
	srv := newServer(cfg, newPipelineFactory(cfg, db, renderers, logger, timings), timings, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return srv.listenAndServe(ctx)
}

// server answers report requests by running a fresh pipeline per request.
type server struct {
	cfg         *config.Config
	newPipeline func(namespace int) *pipeline.Pipeline
	timings     *pipeline.TimingTracer
	logger      *slog.Logger
	started     time.Time
}

func newServer(cfg *config.Config, newPipeline func(int) *pipeline.Pipeline, timings *pipeline.TimingTracer, logger *slog.Logger) *server {
	if logger == nil {
		logger = slog.Default()
	}
	return &server{
		cfg:         cfg,
		newPipeline: newPipeline,
		timings:     timings,
		logger:      logger,
		started:     time.Now(),
	}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/wanted-anchors", s.handleWantedAnchors)
	return r
}

func (s *server) listenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.ListenAddress,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.cfg.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

type healthResponse struct {
	Status  string              `json:"status"`
	Version string              `json:"version"`
	Uptime  string              `json:"uptime"`
	Stages  []model.StageTiming `json:"stages"`
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: getVersion(),
		Uptime:  time.Since(s.started).Round(time.Second).String(),
		Stages:  s.timings.Totals(),
	})
}

func (s *server) handleWantedAnchors(w http.ResponseWriter, r *http.Request) {
	format, err := report.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	namespace := s.cfg.Namespace()
	if v := r.URL.Query().Get("namespace"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid namespace %q", v))
			return
		}
		if !slices.Contains(s.cfg.Namespaces, n) {
			writeError(w, http.StatusNotFound, fmt.Errorf("namespace %d is not served", n))
			return
		}
		namespace = n
	}

	run, err := pipeline.Run(r.Context(), s.newPipeline(namespace), namespace)
	if err != nil {
		s.logger.Error("report failed",
			"namespace", namespace,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, errors.New("failed to compute report"))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	writer, err := report.NewWriter(format, w, getVersion())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := writer.Write(run); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck // client gone
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
