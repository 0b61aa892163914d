package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/wantedanchors/internal/config"
	"github.com/nao1215/wantedanchors/internal/database"
	"github.com/nao1215/wantedanchors/internal/report"
)

// scanFixture imports a small wiki into a fresh store and returns its directory.
func scanFixture(t *testing.T) (pagesDir, dbDir string) {
	t.Helper()

	pagesDir = t.TempDir()
	dbDir = t.TempDir()
	writePages(t, pagesDir, map[string]string{
		"Alpha.wiki":     "See [[Beta#Install]] and [[Beta#Missing section|the gone part]].",
		"Beta.wiki":      "== Install ==\nRun it.\n",
		"docs/Gamma.md":  "Back to [[Alpha#Top]].\n",
		"notes/todo.txt": "ignored",
	})

	out, _, err := executeCommand(t, "import", "--db-dir", dbDir, pagesDir)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if !strings.Contains(out, "Imported 3 pages") {
		t.Fatalf("unexpected import output: %s", out)
	}
	return pagesDir, dbDir
}

func TestNewScanCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScanCmd()
	for _, name := range []string{
		"db-dir", "namespace", "renderer", "api-endpoint", "proxy", "timeout",
		"concurrency", "capital-links", "json", "markdown", "wikitext", "output", "no-history",
	} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

func TestScan_JSON(t *testing.T) {
	t.Parallel()

	_, dbDir := scanFixture(t)

	out, stderr, err := executeCommand(t, "scan", "--db-dir", dbDir, "--json")
	if err != nil {
		t.Fatalf("scan failed: %v (stderr %s)", err, stderr)
	}
	if !strings.Contains(stderr, "Scan completed") {
		t.Errorf("expected progress on stderr: %s", stderr)
	}

	var got report.JSONReport
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	run := got.Run
	if run == nil {
		t.Fatal("expected run in JSON output")
	}
	if run.ID == 0 {
		t.Error("expected the run to be saved with an id")
	}
	if !run.Report.Has("Beta#Missing section") {
		t.Errorf("expected Beta#Missing section to be broken: %+v", run.Report.Entries())
	}
	if run.Report.Has("Beta#Install") {
		t.Error("Beta#Install exists and must not be reported")
	}
	if !run.Report.Has("Alpha#Top") {
		t.Error("expected Alpha#Top to be broken")
	}
	if run.Stats.OriginPages != 2 || run.Stats.TargetPages != 2 || run.Stats.BrokenHashLinks != 2 {
		t.Errorf("unexpected stats: %+v", run.Stats)
	}
	if got.Digest != run.Report.Digest() {
		t.Errorf("digest %s does not match report", got.Digest)
	}
}

func TestScan_WikitextToFile(t *testing.T) {
	t.Parallel()

	_, dbDir := scanFixture(t)
	reportPath := filepath.Join(t.TempDir(), "out", "WantedAnchors.wiki")

	out, _, err := executeCommand(t, "scan", "--db-dir", dbDir, "--wikitext", "--no-history", "-o", reportPath)
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if out != "" {
		t.Errorf("expected nothing on stdout, got %s", out)
	}

	content, err := os.ReadFile(reportPath)
	if err != nil {
		t.Fatalf("report not written: %v", err)
	}
	for _, want := range []string{
		"* [[Beta]], 1 broken hash-link",
		"** [[Beta#Missing section]], linked from 1 page",
		"*** [[Alpha]]",
		`{| class="wikitable"`,
	} {
		if !strings.Contains(string(content), want) {
			t.Errorf("expected %q in report:\n%s", want, content)
		}
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	runs, err := db.ListRuns(t.Context(), config.DefaultNamespace)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("--no-history saved %d runs", len(runs))
	}
}

func TestScan_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing store", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCommand(t, "scan", "--db-dir", t.TempDir())
		if !errors.Is(err, database.ErrStoreUnavailable) {
			t.Errorf("expected ErrStoreUnavailable, got %v", err)
		}
	})

	t.Run("conflicting formats", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCommand(t, "scan", "--db-dir", t.TempDir(), "--json", "--markdown")
		if !errors.Is(err, config.ErrConflictingReportFormats) {
			t.Errorf("expected ErrConflictingReportFormats, got %v", err)
		}
	})

	t.Run("api renderer without endpoint", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCommand(t, "scan", "--db-dir", t.TempDir(), "--renderer", "api")
		if !errors.Is(err, config.ErrNoAPIEndpoint) {
			t.Errorf("expected ErrNoAPIEndpoint, got %v", err)
		}
	})

	t.Run("explicit config file not found", func(t *testing.T) {
		t.Parallel()
		_, _, err := executeCommand(t, "scan", "--config", filepath.Join(t.TempDir(), "nope.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestScan_ConfigFile(t *testing.T) {
	t.Parallel()

	_, dbDir := scanFixture(t)
	configPath := filepath.Join(t.TempDir(), "wa.yaml")
	content := "db_dir: " + dbDir + "\nconcurrency: 2\n"
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	out, _, err := executeCommand(t, "scan", "--config", configPath, "--no-history")
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	if !strings.Contains(out, "** Beta#Missing section, linked from 1 page") {
		t.Errorf("unexpected text report:\n%s", out)
	}
}
