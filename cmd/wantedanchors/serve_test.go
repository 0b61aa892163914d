package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nao1215/wantedanchors/internal/config"
	"github.com/nao1215/wantedanchors/internal/database"
	"github.com/nao1215/wantedanchors/internal/pipeline"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	_, dbDir := scanFixture(t)
	cfg := config.NewConfig()
	cfg.DBDir = dbDir
	cfg.Concurrency = 2

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	renderers, err := newRendererFactory(cfg, db, logger)
	if err != nil {
		t.Fatal(err)
	}
	timings := pipeline.NewTimingTracer()
	srv := newServer(cfg, newPipelineFactory(cfg, db, renderers, logger, timings), timings, logger)

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()

	resp, err := http.Get(url) //nolint:noctx // test server
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestServe(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	t.Run("wikitext report", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/wanted-anchors?format=wikitext")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body %s", resp.StatusCode, body)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(body, "** [[Beta#Missing section]], linked from 1 page") {
			t.Errorf("unexpected body:\n%s", body)
		}
	})

	t.Run("json report", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/wanted-anchors?format=json")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, body %s", resp.StatusCode, body)
		}
		if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
			t.Errorf("Content-Type = %q", ct)
		}
		if !strings.Contains(body, `"Alpha#Top"`) {
			t.Errorf("unexpected body:\n%s", body)
		}
	})

	t.Run("bad requests", func(t *testing.T) {
		tests := []struct {
			query string
			want  int
		}{
			{query: "?format=pdf", want: http.StatusBadRequest},
			{query: "?namespace=x", want: http.StatusBadRequest},
			{query: "?namespace=-1", want: http.StatusBadRequest},
			{query: "?namespace=4", want: http.StatusNotFound},
		}
		for _, tt := range tests {
			resp, body := get(t, ts.URL+"/wanted-anchors"+tt.query)
			if resp.StatusCode != tt.want {
				t.Errorf("%s: status = %d, want %d (%s)", tt.query, resp.StatusCode, tt.want, body)
			}
		}
	})

	t.Run("health reports cumulative stage timings", func(t *testing.T) {
		resp, body := get(t, ts.URL+"/health")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		var health healthResponse
		if err := json.Unmarshal([]byte(body), &health); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if health.Status != "ok" {
			t.Errorf("status = %q", health.Status)
		}
		if len(health.Stages) != 7 || health.Stages[0].Stage != pipeline.StageLocateOrigins {
			t.Errorf("unexpected stages: %+v", health.Stages)
		}
	})
}
