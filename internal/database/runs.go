package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nao1215/wantedanchors/internal/model"
)

// RunMetadata contains summary information about a saved run.
// It is used for listing history without loading the full report.
type RunMetadata struct {
	// ID is the row id of the run.
	ID int64

	// Namespace is the namespace the run scanned.
	Namespace int

	// StartedAt is when the run began.
	StartedAt time.Time

	// Digest is the SHA3-256 digest of the run's report.
	Digest string

	// BrokenLinks is the number of broken hash-links found.
	BrokenLinks int

	// BrokenTargets is the number of target pages with broken hash-links.
	BrokenTargets int
}

// SaveRun stores a run and sets its ID.
func (wdb *WikiDB) SaveRun(ctx context.Context, run *model.Run) (int64, error) {
	runJSON, err := json.Marshal(run)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize run: %w", err)
	}

	query := `
	INSERT INTO runs (namespace, started_at, digest, broken_links, broken_targets, run_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := wdb.db.ExecContext(ctx, query,
		run.Namespace,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Report.Digest(),
		run.Report.LinkCount(),
		run.Report.TargetCount(),
		string(runJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}
	run.ID = id
	return id, nil
}

// GetRun retrieves a run by id, or nil, nil when there is none.
func (wdb *WikiDB) GetRun(ctx context.Context, id int64) (*model.Run, error) {
	var runJSON string
	err := wdb.db.QueryRowContext(ctx, "SELECT run_json FROM runs WHERE id = ?", id).Scan(&runJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return decodeRun(id, runJSON)
}

// LatestRuns returns up to limit runs of namespace, newest first.
func (wdb *WikiDB) LatestRuns(ctx context.Context, namespace, limit int) ([]*model.Run, error) {
	query := `
	SELECT id, run_json FROM runs
	WHERE namespace = ?
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := wdb.db.QueryContext(ctx, query, namespace, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		var (
			id      int64
			runJSON string
		)
		if err := rows.Scan(&id, &runJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := decodeRun(id, runJSON)
		if err != nil {
			continue // skip malformed rows
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// ListRuns returns the metadata of every run of namespace, newest first.
func (wdb *WikiDB) ListRuns(ctx context.Context, namespace int) ([]RunMetadata, error) {
	query := `
	SELECT id, namespace, started_at, digest, broken_links, broken_targets
	FROM runs
	WHERE namespace = ?
	ORDER BY id DESC
	`

	rows, err := wdb.db.QueryContext(ctx, query, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var (
			meta      RunMetadata
			startedAt string
		)
		if err := rows.Scan(&meta.ID, &meta.Namespace, &startedAt, &meta.Digest, &meta.BrokenLinks, &meta.BrokenTargets); err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}
		meta.StartedAt = parseTimestamp(startedAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

func decodeRun(id int64, runJSON string) (*model.Run, error) {
	var run model.Run
	if err := json.Unmarshal([]byte(runJSON), &run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	run.ID = id
	if run.Report == nil {
		run.Report = model.NewBrokenLinkReport()
	}
	return &run, nil
}

// timestampFormats contains the timestamp formats that may be read back.
// More specific formats come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s with the first matching format, or returns the
// zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
