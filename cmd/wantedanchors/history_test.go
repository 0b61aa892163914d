package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/nao1215/wantedanchors/internal/report"
)

func TestHistory(t *testing.T) {
	t.Parallel()

	pagesDir, dbDir := scanFixture(t)

	out, _, err := executeCommand(t, "history", "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No runs saved for namespace 0") {
		t.Errorf("unexpected empty history output: %s", out)
	}

	if _, _, err := executeCommand(t, "history", "--db-dir", dbDir, "--diff"); !errors.Is(err, errNotEnoughRuns) {
		t.Errorf("expected errNotEnoughRuns, got %v", err)
	}

	for range 2 {
		if _, _, err := executeCommand(t, "scan", "--db-dir", dbDir); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
	}

	out, _, err = executeCommand(t, "history", "--db-dir", dbDir, "--diff")
	if err != nil {
		t.Fatalf("history --diff failed: %v", err)
	}
	if !strings.Contains(out, "Unchanged") {
		t.Errorf("expected identical runs to be unchanged:\n%s", out)
	}

	// Fix one section and break another.
	writePages(t, pagesDir, map[string]string{
		"Beta.wiki": "== Missing section ==\nBack again.\n",
	})
	if _, _, err := executeCommand(t, "import", "--db-dir", dbDir, pagesDir); err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if _, _, err := executeCommand(t, "scan", "--db-dir", dbDir); err != nil {
		t.Fatalf("scan failed: %v", err)
	}

	out, _, err = executeCommand(t, "history", "--db-dir", dbDir, "--diff")
	if err != nil {
		t.Fatalf("history --diff failed: %v", err)
	}
	for _, want := range []string{
		"Newly broken: 1",
		"[+] Beta#Install (from Alpha)",
		"Fixed:        1",
		"[-] Beta#Missing section",
		"Still broken: 1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in diff:\n%s", want, out)
		}
	}

	out, _, err = executeCommand(t, "history", "--db-dir", dbDir, "--diff", "--with-run-id", "1", "--json")
	if err != nil {
		t.Fatalf("history --with-run-id failed: %v", err)
	}
	var diff report.JSONDiff
	if err := json.Unmarshal([]byte(out), &diff); err != nil {
		t.Fatalf("invalid JSON diff: %v\n%s", err, out)
	}
	if diff.PreviousID != 1 || diff.CurrentID != 3 || diff.Unchanged {
		t.Errorf("unexpected diff header: %+v", diff)
	}
	if len(diff.Diff.Fixed) != 1 || diff.Diff.Fixed[0].Reference != "Beta#Missing section" {
		t.Errorf("unexpected fixed list: %+v", diff.Diff.Fixed)
	}

	out, _, err = executeCommand(t, "history", "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "(3 runs)") {
		t.Errorf("expected three runs listed:\n%s", out)
	}

	out, _, err = executeCommand(t, "history", "--db-dir", dbDir, "--show", "1", "--wikitext")
	if err != nil {
		t.Fatalf("history --show failed: %v", err)
	}
	if !strings.Contains(out, "** [[Beta#Missing section]], linked from 1 page") {
		t.Errorf("unexpected report of run 1:\n%s", out)
	}

	if _, _, err := executeCommand(t, "history", "--db-dir", dbDir, "--show", "99"); err == nil {
		t.Error("expected error for unknown run")
	}
}

func TestShortDigest(t *testing.T) {
	t.Parallel()

	if got := shortDigest("0123456789abcdef"); got != "0123456789ab" {
		t.Errorf("shortDigest = %q", got)
	}
	if got := shortDigest("abc"); got != "abc" {
		t.Errorf("shortDigest = %q", got)
	}
}
