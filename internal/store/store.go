// Package store persists typing records and browser context in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // CGO-free SQLite driver

	"github.com/typetrace/typetrace/pkg/models"
)

// ErrNotFound reports that a requested row does not exist.
var ErrNotFound = errors.New("record not found")

const schema = `
CREATE TABLE IF NOT EXISTS keystrokes (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp       INTEGER NOT NULL,
    app_name        TEXT,
    app_class       TEXT,
    char_count      INTEGER DEFAULT 0,
    word_count      INTEGER DEFAULT 0,
    paragraph_count INTEGER DEFAULT 0,
    backspace_count INTEGER DEFAULT 0,
    UNIQUE(timestamp, app_class)
);

CREATE INDEX IF NOT EXISTS idx_keystrokes_timestamp ON keystrokes(timestamp);
CREATE INDEX IF NOT EXISTS idx_keystrokes_app ON keystrokes(app_class);

CREATE TABLE IF NOT EXISTS sessions (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    start_time INTEGER NOT NULL,
    end_time   INTEGER,
    char_count INTEGER DEFAULT 0,
    word_count INTEGER DEFAULT 0,
    wpm_avg    REAL,
    wpm_peak   REAL
);

CREATE INDEX IF NOT EXISTS idx_sessions_start ON sessions(start_time);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the database at path, creating parent directories
// and applying the schema and migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL + busy timeout so the daemon and CLI can share the file.
	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if err := s.migrateBrowserTracking(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// migrateBrowserTracking adds the browser context table and the browser
// columns on keystrokes. Databases created before browser tracking existed
// migrate in place.
func (s *Store) migrateBrowserTracking() error {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='browser_context'`,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("check browser_context table: %w", err)
	}

	if count == 0 {
		_, err = s.db.Exec(`
		CREATE TABLE browser_context (
		    id           INTEGER PRIMARY KEY AUTOINCREMENT,
		    timestamp    INTEGER NOT NULL,
		    browser_name TEXT NOT NULL,
		    url          TEXT,
		    domain       TEXT,
		    page_title   TEXT,
		    last_updated INTEGER NOT NULL,
		    UNIQUE(browser_name)
		);
		CREATE INDEX idx_browser_context_updated ON browser_context(last_updated);
		`)
		if err != nil {
			return fmt.Errorf("create browser_context table: %w", err)
		}
	}

	hasColumn, err := s.columnExists("keystrokes", "browser_domain")
	if err != nil {
		return err
	}
	if !hasColumn {
		if _, err := s.db.Exec(`ALTER TABLE keystrokes ADD COLUMN browser_domain TEXT`); err != nil {
			return fmt.Errorf("add browser_domain column: %w", err)
		}
		if _, err := s.db.Exec(`ALTER TABLE keystrokes ADD COLUMN browser_url TEXT`); err != nil {
			return fmt.Errorf("add browser_url column: %w", err)
		}
	}
	return nil
}

func (s *Store) columnExists(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// UpsertKeystroke writes a per-minute record, summing counts when the
// minute/app pair already exists. The record's timestamp is rounded down to
// the minute.
func (s *Store) UpsertKeystroke(rec *models.KeystrokeRecord) error {
	minute := rec.Timestamp.Unix() / 60 * 60

	_, err := s.db.Exec(`
	INSERT INTO keystrokes
	    (timestamp, app_name, app_class, char_count, word_count, paragraph_count, backspace_count, browser_domain, browser_url)
	VALUES (?, ?, ?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))
	ON CONFLICT(timestamp, app_class) DO UPDATE SET
	    char_count      = char_count + excluded.char_count,
	    word_count      = word_count + excluded.word_count,
	    paragraph_count = paragraph_count + excluded.paragraph_count,
	    backspace_count = backspace_count + excluded.backspace_count,
	    browser_domain  = COALESCE(excluded.browser_domain, browser_domain),
	    browser_url     = COALESCE(excluded.browser_url, browser_url)`,
		minute, rec.AppName, rec.AppClass,
		rec.CharCount, rec.WordCount, rec.ParagraphCount, rec.BackspaceCount,
		rec.BrowserDomain, rec.BrowserURL,
	)
	if err != nil {
		return fmt.Errorf("upsert keystroke record: %w", err)
	}
	return nil
}

// InsertSession stores a new typing session and returns its id.
func (s *Store) InsertSession(sess *models.TypingSession) (int64, error) {
	var end any
	if sess.EndTime != nil {
		end = sess.EndTime.Unix()
	}
	res, err := s.db.Exec(`
	INSERT INTO sessions (start_time, end_time, char_count, word_count, wpm_avg, wpm_peak)
	VALUES (?, ?, ?, ?, ?, ?)`,
		sess.StartTime.Unix(), end, sess.CharCount, sess.WordCount, sess.WPMAvg, sess.WPMPeak,
	)
	if err != nil {
		return 0, fmt.Errorf("insert session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

// UpdateSession rewrites a stored session's end time, counts, and WPM.
func (s *Store) UpdateSession(sess *models.TypingSession) error {
	if sess.ID == 0 {
		return ErrNotFound
	}
	var end any
	if sess.EndTime != nil {
		end = sess.EndTime.Unix()
	}
	_, err := s.db.Exec(`
	UPDATE sessions SET end_time = ?, char_count = ?, word_count = ?, wpm_avg = ?, wpm_peak = ?
	WHERE id = ?`,
		end, sess.CharCount, sess.WordCount, sess.WPMAvg, sess.WPMPeak, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

// UpsertBrowserContext records the focused document for one browser,
// replacing whatever that browser reported before. Updates are ordered by
// the payload timestamp, not arrival: a delayed older update never clobbers
// a newer row.
func (s *Store) UpsertBrowserContext(ctx *models.BrowserContext) error {
	_, err := s.db.Exec(`
	INSERT INTO browser_context (timestamp, browser_name, url, domain, page_title, last_updated)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(browser_name) DO UPDATE SET
	    timestamp    = excluded.timestamp,
	    url          = excluded.url,
	    domain       = excluded.domain,
	    page_title   = excluded.page_title,
	    last_updated = excluded.last_updated
	WHERE excluded.timestamp >= browser_context.timestamp`,
		ctx.Timestamp.Unix(), ctx.BrowserName, ctx.URL, ctx.Domain, ctx.Title, ctx.LastUpdated.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert browser context: %w", err)
	}
	return nil
}

// LatestBrowserContext returns the most recently updated browser context row
// across all browsers, or ErrNotFound when no browser has reported yet.
func (s *Store) LatestBrowserContext() (*models.BrowserContext, error) {
	row := s.db.QueryRow(`
	SELECT browser_name, COALESCE(url, ''), COALESCE(domain, ''), COALESCE(page_title, ''), timestamp, last_updated
	FROM browser_context
	ORDER BY last_updated DESC
	LIMIT 1`)

	var (
		ctx     models.BrowserContext
		ts, upd int64
	)
	err := row.Scan(&ctx.BrowserName, &ctx.URL, &ctx.Domain, &ctx.Title, &ts, &upd)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query browser context: %w", err)
	}
	ctx.Timestamp = time.Unix(ts, 0).UTC()
	ctx.LastUpdated = time.Unix(upd, 0).UTC()
	return &ctx, nil
}
