package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/wantedanchors/internal/model"
)

// FileName is the name of the database file inside the database directory.
const FileName = "wantedanchors.db"

// textAddressPrefix prefixes content addresses that point into the text table.
const textAddressPrefix = "tt:"

// fetchChunkSize bounds the number of ids bound in one IN (...) query.
const fetchChunkSize = 500

// WikiDB is the SQLite document store. It lists origin pages, bulk-loads
// their text, serves page content to the local renderer and keeps the
// run history.
type WikiDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures WikiDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the WikiDB in dbDir.
// When CreateIfNotExists is false a missing database yields ErrStoreUnavailable.
func Open(dbDir string, opts Options) (*WikiDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no database at %s (run 'wantedanchors import' first)", ErrStoreUnavailable, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
		}
	} else if err := os.MkdirAll(dbDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// mode=rw refuses to create a new file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	wdb := &WikiDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := wdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return wdb, nil
}

// Path returns the database file path.
func (wdb *WikiDB) Path() string {
	return wdb.dbPath
}

// Close closes the database connection.
func (wdb *WikiDB) Close() error {
	return wdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (wdb *WikiDB) createTables() error {
	schema := `
	-- Pages, one row per (namespace, title); titles use underscores
	CREATE TABLE IF NOT EXISTS page (
		page_id INTEGER PRIMARY KEY AUTOINCREMENT,
		page_namespace INTEGER NOT NULL DEFAULT 0,
		page_title TEXT NOT NULL,
		page_content_model TEXT NOT NULL DEFAULT 'wikitext',
		page_latest_address TEXT,
		page_touched DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(page_namespace, page_title)
	);

	-- Text blobs, addressed from page_latest_address as tt:<old_id>
	CREATE TABLE IF NOT EXISTS text (
		old_id INTEGER PRIMARY KEY AUTOINCREMENT,
		old_text TEXT NOT NULL
	);

	-- Outgoing links of each page
	CREATE TABLE IF NOT EXISTS pagelinks (
		pl_from INTEGER NOT NULL,
		pl_namespace INTEGER NOT NULL DEFAULT 0,
		pl_title TEXT NOT NULL,
		PRIMARY KEY (pl_from, pl_namespace, pl_title)
	);

	CREATE INDEX IF NOT EXISTS idx_pagelinks_target ON pagelinks(pl_namespace, pl_title);

	-- Past runs with their complete results as JSON
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		namespace INTEGER NOT NULL,
		started_at TEXT NOT NULL,
		digest TEXT NOT NULL,
		broken_links INTEGER NOT NULL,
		broken_targets INTEGER NOT NULL,
		run_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_namespace ON runs(namespace);
	`

	_, err := wdb.db.ExecContext(context.Background(), schema)
	return err
}

// ContentAddress returns the address stored for text row id.
func ContentAddress(id int64) string {
	return textAddressPrefix + strconv.FormatInt(id, 10)
}

// ParseContentAddress returns the text row id of a "tt:<id>" address.
// Any other address reports false.
func ParseContentAddress(address string) (int64, bool) {
	rest, ok := strings.CutPrefix(address, textAddressPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListLinkingOrigins returns the pages of namespace that link to at least
// one page of the same namespace, ordered by page id.
func (wdb *WikiDB) ListLinkingOrigins(ctx context.Context, namespace int) ([]model.OriginPage, error) {
	query := `
	SELECT DISTINCT p.page_id, p.page_title, p.page_latest_address
	FROM page p
	JOIN pagelinks pl ON pl.pl_from = p.page_id
	WHERE p.page_namespace = ? AND pl.pl_namespace = ?
	ORDER BY p.page_id
	`

	rows, err := wdb.db.QueryContext(ctx, query, namespace, namespace)
	if err != nil {
		return nil, fmt.Errorf("failed to list origin pages: %w", err)
	}
	defer rows.Close()

	var origins []model.OriginPage
	for rows.Next() {
		var (
			origin  model.OriginPage
			address sql.NullString
		)
		if err := rows.Scan(&origin.PageID, &origin.Name, &address); err != nil {
			return nil, fmt.Errorf("failed to scan origin page: %w", err)
		}
		if address.Valid {
			origin.TextID, origin.HasTextID = ParseContentAddress(address.String)
		}
		origins = append(origins, origin)
	}

	return origins, rows.Err()
}

// FetchTexts loads the text rows with the given ids. Ids without a row are
// absent from the result.
func (wdb *WikiDB) FetchTexts(ctx context.Context, ids []int64) (map[int64]string, error) {
	texts := make(map[int64]string, len(ids))

	for start := 0; start < len(ids); start += fetchChunkSize {
		chunk := ids[start:min(start+fetchChunkSize, len(ids))]

		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")

		//nolint:gosec // only placeholders are concatenated
		query := "SELECT old_id, old_text FROM text WHERE old_id IN (" + placeholders + ")"

		if err := wdb.scanTexts(ctx, query, args, texts); err != nil {
			return nil, err
		}
	}

	return texts, nil
}

func (wdb *WikiDB) scanTexts(ctx context.Context, query string, args []any, into map[int64]string) error {
	rows, err := wdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to fetch texts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			text string
		)
		if err := rows.Scan(&id, &text); err != nil {
			return fmt.Errorf("failed to scan text: %w", err)
		}
		into[id] = text
	}
	return rows.Err()
}

// PageContent returns the current markup of a page, or nil, nil when the
// page does not exist. A page without retrievable text has empty Text.
func (wdb *WikiDB) PageContent(ctx context.Context, namespace int, title string) (*model.PageContent, error) {
	query := `
	SELECT page_content_model, page_latest_address FROM page
	WHERE page_namespace = ? AND page_title = ?
	`

	content := model.PageContent{Namespace: namespace, Title: title}
	var address sql.NullString
	err := wdb.db.QueryRowContext(ctx, query, namespace, title).Scan(&content.ContentModel, &address)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get page: %w", err)
	}

	if !address.Valid {
		return &content, nil
	}
	id, ok := ParseContentAddress(address.String)
	if !ok {
		return &content, nil
	}

	err = wdb.db.QueryRowContext(ctx, "SELECT old_text FROM text WHERE old_id = ?", id).Scan(&content.Text)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get page text: %w", err)
	}

	return &content, nil
}

// PutDocument stores a new revision of a page and replaces its outgoing
// links. Titles and links may use spaces or underscores; links point into
// the same namespace. It returns the page id.
func (wdb *WikiDB) PutDocument(ctx context.Context, namespace int, title, contentModel, text string, links []string) (int64, error) {
	title = model.StorageName(title)
	if contentModel == "" {
		contentModel = model.ContentModelWikitext
	}

	tx, err := wdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "INSERT INTO text (old_text) VALUES (?)", text)
	if err != nil {
		return 0, fmt.Errorf("failed to insert text: %w", err)
	}
	textID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get text id: %w", err)
	}

	upsert := `
	INSERT INTO page (page_namespace, page_title, page_content_model, page_latest_address)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(page_namespace, page_title) DO UPDATE SET
		page_content_model = excluded.page_content_model,
		page_latest_address = excluded.page_latest_address,
		page_touched = CURRENT_TIMESTAMP
	`
	if _, err := tx.ExecContext(ctx, upsert, namespace, title, contentModel, ContentAddress(textID)); err != nil {
		return 0, fmt.Errorf("failed to upsert page: %w", err)
	}

	var pageID int64
	err = tx.QueryRowContext(ctx,
		"SELECT page_id FROM page WHERE page_namespace = ? AND page_title = ?",
		namespace, title,
	).Scan(&pageID)
	if err != nil {
		return 0, fmt.Errorf("failed to get page id: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM pagelinks WHERE pl_from = ?", pageID); err != nil {
		return 0, fmt.Errorf("failed to clear links: %w", err)
	}
	for _, link := range links {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO pagelinks (pl_from, pl_namespace, pl_title) VALUES (?, ?, ?)",
			pageID, namespace, model.StorageName(link),
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit document: %w", err)
	}
	return pageID, nil
}

// SetContentAddress points a page at an arbitrary content address. Pages
// whose address is not a text row are listed but have no retrievable text.
func (wdb *WikiDB) SetContentAddress(ctx context.Context, pageID int64, address string) error {
	_, err := wdb.db.ExecContext(ctx, "UPDATE page SET page_latest_address = ? WHERE page_id = ?", address, pageID)
	if err != nil {
		return fmt.Errorf("failed to set content address: %w", err)
	}
	return nil
}

// CountPages returns the number of pages in namespace.
func (wdb *WikiDB) CountPages(ctx context.Context, namespace int) (int, error) {
	var n int
	err := wdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM page WHERE page_namespace = ?", namespace).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return n, nil
}
