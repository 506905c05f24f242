package cache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Zuo-Peng/ai-session-export/internal/catalog"
)

const schema = `
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA busy_timeout = 5000;

CREATE TABLE IF NOT EXISTS entries (
    path      TEXT PRIMARY KEY,
    mtime     INTEGER NOT NULL DEFAULT 0,
    size      INTEGER NOT NULL DEFAULT 0,
    summary   TEXT NOT NULL DEFAULT '',
    turns     INTEGER NOT NULL DEFAULT 0,
    lines     INTEGER NOT NULL DEFAULT 0,
    first_at  TEXT NOT NULL DEFAULT '',
    last_at   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);
`

// schemaVersion should be bumped whenever catalog.Peek changes what it
// extracts, so stale rows are dropped.
const schemaVersion = "1"

// DB caches catalog metadata keyed by path, mtime and size.
type DB struct {
	db *sql.DB
}

var _ catalog.Cache = (*DB)(nil)

func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache schema: %w", err)
	}

	d := &DB{db: db}
	if err := d.migrateSchemaVersion(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return d, nil
}

func (d *DB) migrateSchemaVersion() error {
	var ver string
	err := d.db.QueryRow("SELECT value FROM meta WHERE key = 'schema_version'").Scan(&ver)
	if err == nil && ver == schemaVersion {
		return nil
	}
	if _, err := d.db.Exec("DELETE FROM entries"); err != nil {
		return err
	}
	_, err = d.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES ('schema_version', ?)", schemaVersion)
	return err
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Get returns the cached metadata for path if it was stored for the same
// mtime and size.
func (d *DB) Get(path string, modTime time.Time, size int64) (catalog.Meta, bool, error) {
	var (
		m               catalog.Meta
		mtime, sz       int64
		firstAt, lastAt string
	)
	err := d.db.QueryRow(
		"SELECT mtime, size, summary, turns, lines, first_at, last_at FROM entries WHERE path = ?",
		path,
	).Scan(&mtime, &sz, &m.Summary, &m.TurnCount, &m.Lines, &firstAt, &lastAt)
	if err == sql.ErrNoRows {
		return catalog.Meta{}, false, nil
	}
	if err != nil {
		return catalog.Meta{}, false, err
	}
	if mtime != modTime.UnixNano() || sz != size {
		return catalog.Meta{}, false, nil
	}
	m.FirstAt = parseTime(firstAt)
	m.LastAt = parseTime(lastAt)
	return m, true, nil
}

func (d *DB) Put(path string, modTime time.Time, size int64, m catalog.Meta) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO entries (path, mtime, size, summary, turns, lines, first_at, last_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		path, modTime.UnixNano(), size, m.Summary, m.TurnCount, m.Lines,
		formatTime(m.FirstAt), formatTime(m.LastAt),
	)
	return err
}

// Prune deletes rows under root whose path was not seen by the latest
// discovery. Rows outside root are left alone.
func (d *DB) Prune(root string, seen map[string]struct{}) (int, error) {
	rows, err := d.db.Query("SELECT path FROM entries")
	if err != nil {
		return 0, err
	}
	var stale []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			rows.Close()
			return 0, err
		}
		if _, ok := seen[p]; ok || !under(root, p) {
			continue
		}
		stale = append(stale, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, p := range stale {
		if _, err := tx.Exec("DELETE FROM entries WHERE path = ?", p); err != nil {
			return 0, err
		}
	}
	return len(stale), tx.Commit()
}

func (d *DB) Count() (int, error) {
	var n int
	err := d.db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n)
	return n, err
}

func under(root, path string) bool {
	if root == path {
		return true
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
