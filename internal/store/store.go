// Package store persists item recommendations in SQLite
package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	_ "github.com/mattn/go-sqlite3" // sqlite driver

	"github.com/arclens/arclens/internal/errors"
	"github.com/arclens/arclens/internal/resilience"
)

// Item is a recommendation row: what to do with a named item, with optional
// recycle/keep details.
type Item struct {
	Name       string
	Action     string
	RecycleFor string
	KeepFor    string
}

// Store is the SQLite-backed item table. Reads are safe for concurrent use;
// writes happen only on CSV reloads.
type Store struct {
	db      *sql.DB
	csvPath string
}

const schema = `
CREATE TABLE IF NOT EXISTS items (
	name TEXT PRIMARY KEY NOT NULL COLLATE NOCASE,
	action TEXT NOT NULL,
	recycle_for TEXT,
	keep_for TEXT
);
CREATE INDEX IF NOT EXISTS idx_items_name ON items(name COLLATE NOCASE);
`

// Open opens (and if necessary creates) the database at path. csvPath may
// be "" when no CSV source is configured.
func Open(path, csvPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreFailed, "open database")
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.CodeStoreFailed, "init schema")
	}
	return &Store{db: db, csvPath: csvPath}, nil
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// Lookup finds an item by name, case-insensitively. An exact match wins;
// otherwise the shortest name containing the query is returned, which
// absorbs partial reads of long names. Returns nil when nothing matches.
func (s *Store) Lookup(name string) (*Item, error) {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return nil, nil
	}

	row := s.db.QueryRow(
		`SELECT name, action, recycle_for, keep_for FROM items WHERE name = ? COLLATE NOCASE`, clean)
	item, err := scanItem(row)
	if err != nil {
		return nil, err
	}
	if item != nil {
		return item, nil
	}

	row = s.db.QueryRow(
		`SELECT name, action, recycle_for, keep_for FROM items
		 WHERE name LIKE ? COLLATE NOCASE
		 ORDER BY LENGTH(name) ASC LIMIT 1`, "%"+clean+"%")
	return scanItem(row)
}

func scanItem(row *sql.Row) (*Item, error) {
	var it Item
	var recycleFor, keepFor sql.NullString
	err := row.Scan(&it.Name, &it.Action, &recycleFor, &keepFor)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeStoreFailed, "scan item")
	}
	it.RecycleFor = recycleFor.String
	it.KeepFor = keepFor.String
	return &it, nil
}

// Count returns the total number of items.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.CodeStoreFailed, "count items")
	}
	return n, nil
}

// Clear removes all items.
func (s *Store) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM items`); err != nil {
		return errors.Wrap(err, errors.CodeStoreFailed, "clear items")
	}
	return nil
}

// LoadCSV upserts items from a CSV file with columns
// name,action,recycle_for,keep_for. Returns the number of rows loaded.
func (s *Store) LoadCSV(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStoreFailed, "open csv")
	}
	defer f.Close()
	return s.loadCSV(f)
}

func (s *Store) loadCSV(r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStoreFailed, "read csv header")
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(strings.ToLower(h))] = i
	}
	if _, ok := col["name"]; !ok {
		return 0, errors.New(errors.CodeStoreFailed, "csv missing name column")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStoreFailed, "begin load")
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO items (name, action, recycle_for, keep_for)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			action = excluded.action,
			recycle_for = excluded.recycle_for,
			keep_for = excluded.keep_for`)
	if err != nil {
		return 0, errors.Wrap(err, errors.CodeStoreFailed, "prepare upsert")
	}
	defer stmt.Close()

	field := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	count := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrap(err, errors.CodeStoreFailed, "read csv row")
		}
		name := field(rec, "name")
		action := field(rec, "action")
		if name == "" || action == "" {
			continue
		}
		if _, err := stmt.Exec(name, action, field(rec, "recycle_for"), field(rec, "keep_for")); err != nil {
			return 0, errors.Wrap(err, errors.CodeStoreFailed, "upsert item")
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, errors.Wrap(err, errors.CodeStoreFailed, "commit load")
	}
	return count, nil
}

// Watch reloads the CSV whenever it is written, until ctx is canceled.
// Reloads retry with backoff because editors and exporters often write the
// file in several chunks.
func (s *Store) Watch(ctx context.Context) error {
	if s.csvPath == "" {
		return errors.New(errors.CodeConfigInvalid, "no csv path configured")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CodeStoreFailed, "create watcher")
	}
	if err := watcher.Add(s.csvPath); err != nil {
		_ = watcher.Close()
		return errors.Wrap(err, errors.CodeStoreFailed, "watch csv")
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				err := resilience.Retry(ctx, resilience.DefaultRetryConfig(), func() error {
					_, err := s.LoadCSV(s.csvPath)
					return err
				})
				if err != nil {
					slog.Error("csv reload failed", "path", s.csvPath, "error", err)
					continue
				}
				n, _ := s.Count()
				slog.Info("item list reloaded", "path", s.csvPath, "items", n)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("csv watcher error", "error", err)
			}
		}
	}()
	return nil
}
