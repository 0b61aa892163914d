package main

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/wantedanchors/internal/database"
)

func TestImport(t *testing.T) {
	t.Parallel()

	t.Run("imports into the requested namespace", func(t *testing.T) {
		t.Parallel()

		pagesDir := t.TempDir()
		dbDir := t.TempDir()
		writePages(t, pagesDir, map[string]string{
			"Policy.wiki":  "See [[guidelines#Scope]].",
			"Guidelines.md": "# Scope\n",
		})

		out, _, err := executeCommand(t, "import", "--db-dir", dbDir, "-n", "4", "--capital-links", pagesDir)
		if err != nil {
			t.Fatalf("import failed: %v", err)
		}
		if !strings.Contains(out, "Imported 2 pages (1 links, 0 files skipped) into namespace 4") {
			t.Errorf("unexpected output: %s", out)
		}

		db, err := database.Open(dbDir, database.DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		defer db.Close()

		origins, err := db.ListLinkingOrigins(context.Background(), 4)
		if err != nil {
			t.Fatal(err)
		}
		if len(origins) != 1 || origins[0].Name != "Policy" {
			t.Errorf("unexpected origins: %+v", origins)
		}
	})

	t.Run("rejects a file argument", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		writePages(t, dir, map[string]string{"One.wiki": "x"})
		if _, _, err := executeCommand(t, "import", "--db-dir", t.TempDir(), filepath.Join(dir, "One.wiki")); err == nil {
			t.Error("expected error for non-directory")
		}
	})

	t.Run("requires a directory", func(t *testing.T) {
		t.Parallel()
		if _, _, err := executeCommand(t, "import"); err == nil {
			t.Error("expected argument error")
		}
	})
}
