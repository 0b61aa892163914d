package database

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/wantedanchors/internal/model"
)

func newTestRun(ns int, refs ...model.Reference) *model.Run {
	run := model.NewRun(ns)
	for _, ref := range refs {
		run.Report.Add(ref.Target(), ref, []string{"Origin_Page"})
	}
	run.Stats.BrokenHashLinks = run.Report.LinkCount()
	run.Timings = []model.StageTiming{{Stage: "parse-target-pages", Duration: time.Millisecond}}
	return run
}

func TestWikiDB_Runs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := setupTestDB(t)

	first := newTestRun(0, "B#x")
	if _, err := db.SaveRun(ctx, first); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	second := newTestRun(0, "B#y", "C#z")
	if _, err := db.SaveRun(ctx, second); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if _, err := db.SaveRun(ctx, newTestRun(4, "P#q")); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	if first.ID == 0 || second.ID <= first.ID {
		t.Fatalf("ids not assigned in order: %d, %d", first.ID, second.ID)
	}

	t.Run("GetRun round-trips the report", func(t *testing.T) {
		t.Parallel()

		got, err := db.GetRun(ctx, second.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got == nil || !got.Report.Equal(second.Report) {
			t.Fatalf("report mismatch: %+v", got)
		}
		if got.Stats.BrokenHashLinks != 2 || len(got.Timings) != 1 {
			t.Errorf("stats not restored: %+v", got.Stats)
		}
		if got.Report.Origins("B#y")[0] != "Origin Page" {
			t.Errorf("origins not restored: %v", got.Report.Origins("B#y"))
		}
	})

	t.Run("GetRun returns nil for unknown id", func(t *testing.T) {
		t.Parallel()

		got, err := db.GetRun(ctx, 9999)
		if err != nil || got != nil {
			t.Errorf("expected nil, nil, got %+v, %v", got, err)
		}
	})

	t.Run("LatestRuns is newest first and per namespace", func(t *testing.T) {
		t.Parallel()

		runs, err := db.LatestRuns(ctx, 0, 2)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 2 || runs[0].ID != second.ID || runs[1].ID != first.ID {
			t.Errorf("unexpected runs %+v", runs)
		}
	})

	t.Run("ListRuns returns metadata", func(t *testing.T) {
		t.Parallel()

		metas, err := db.ListRuns(ctx, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(metas) != 2 {
			t.Fatalf("got %d runs", len(metas))
		}
		if metas[0].BrokenLinks != 2 || metas[0].BrokenTargets != 2 {
			t.Errorf("unexpected counts %+v", metas[0])
		}
		if metas[0].Digest != second.Report.Digest() {
			t.Error("digest mismatch")
		}
		if metas[0].StartedAt.IsZero() {
			t.Error("timestamp not parsed")
		}
	})
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		zero  bool
	}{
		{name: "RFC3339Nano", input: "2026-01-02T03:04:05.123456789Z"},
		{name: "SQLite default", input: "2026-01-02 03:04:05"},
		{name: "garbage", input: "yesterday", zero: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := parseTimestamp(tt.input); got.IsZero() != tt.zero {
				t.Errorf("parseTimestamp(%q) = %v", tt.input, got)
			}
		})
	}
}
