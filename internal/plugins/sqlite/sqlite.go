// Package sqlite implements a database-backed tab store. Configured tabs
// keep their items in a SQLite file next to the tab directory; the tab file
// itself holds only a pointer record naming the database, so the loader can
// recognize its tabs by sniffing the stream like any other backend.
//
// SaveItems rewrites the database rather than the stream it is handed: the
// stream receives only the pointer record. Items therefore survive even if
// the tab file is rewritten by hand, as long as the pointer stays intact.
package sqlite

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"go.clipstack.dev/clipstack/internal/item"
)

const formatName = "clipstack-sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS items (
	row     INTEGER NOT NULL,
	time    TEXT    NOT NULL,
	mime    TEXT    NOT NULL,
	data    BLOB    NOT NULL,
	PRIMARY KEY (row, mime)
);
`

type pointer struct {
	Format  string `json:"format"`
	Version int    `json:"version"`
	Path    string `json:"path"`
}

// Open opens the tab database with the defaults SQLite needs here.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1) // sqlite
	db.SetConnMaxLifetime(0)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("schema: %w", err)
	}
	return db, nil
}

// withTx runs fn in a transaction.
func withTx(db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Loader is the database tab backend.
type Loader struct {
	item.DefaultLoader

	dir  string
	tabs map[string]bool
}

// New returns a loader storing the named tabs as databases under dir.
func New(dir string, tabNames []string) *Loader {
	tabs := make(map[string]bool, len(tabNames))
	for _, name := range tabNames {
		tabs[name] = true
	}
	return &Loader{dir: dir, tabs: tabs}
}

func (*Loader) ID() string { return "sqlite" }

// DBPath returns the database file backing a tab name.
func (l *Loader) DBPath(tabName string) string {
	return filepath.Join(l.dir, url.PathEscape(tabName)+".db")
}

// CanSaveItems claims only the configured tabs.
func (l *Loader) CanSaveItems(tabName string) bool { return l.tabs[tabName] }

// CanLoadItems sniffs the pointer record.
func (l *Loader) CanLoadItems(r io.ReadSeeker) bool {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return false
	}
	var p pointer
	if err := json.Unmarshal(line, &p); err != nil {
		return false
	}
	return p.Format == formatName
}

// LoadItems reads the pointer record, opens the database it names and loads
// rows newest first up to maxItems.
func (l *Loader) LoadItems(tabName string, m *item.Model, r io.ReadSeeker, maxItems int) (item.Saver, error) {
	line, err := bufio.NewReader(r).ReadBytes('\n')
	if err != nil && len(line) == 0 {
		return nil, nil
	}
	var p pointer
	if err := json.Unmarshal(line, &p); err != nil || p.Format != formatName {
		return nil, nil
	}
	path := p.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(l.dir, path)
	}

	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("tab %q: open database: %w", tabName, err)
	}
	defer db.Close()

	if err := loadRows(db, m, maxItems); err != nil {
		return nil, fmt.Errorf("tab %q: %w", tabName, err)
	}
	return &Saver{path: path}, nil
}

// InitializeTab creates an empty database for a configured tab.
func (l *Loader) InitializeTab(tabName string, m *item.Model, maxItems int) (item.Saver, error) {
	if !l.tabs[tabName] {
		return nil, nil
	}
	path := l.DBPath(tabName)
	db, err := Open(path)
	if err != nil {
		return nil, fmt.Errorf("tab %q: create database: %w", tabName, err)
	}
	_ = db.Close()
	return &Saver{path: path}, nil
}

// SelfTests exercises a full database round trip in a temporary file.
func (l *Loader) SelfTests() []item.SelfTest {
	return []item.SelfTest{{
		Name: "database round trip",
		Run: func() error {
			path := filepath.Join(l.dir, ".selftest.db")
			db, err := Open(path)
			if err != nil {
				return err
			}
			defer db.Close()

			m := item.NewModel()
			m.Append(item.New(map[string][]byte{item.MimeText: []byte("hello")}))
			if err := storeRows(db, m); err != nil {
				return err
			}
			got := item.NewModel()
			if err := loadRows(db, got, 0); err != nil {
				return err
			}
			if got.Len() != 1 || got.At(0).Text() != "hello" {
				return fmt.Errorf("round trip mismatch")
			}
			return nil
		},
	}}
}

func loadRows(db *sql.DB, m *item.Model, maxItems int) error {
	rows, err := db.Query(`SELECT row, time, mime, data FROM items ORDER BY row, mime`)
	if err != nil {
		return err
	}
	defer rows.Close()

	type entry struct {
		t    time.Time
		data map[string][]byte
	}
	var order []int
	entries := make(map[int]*entry)
	for rows.Next() {
		var (
			row  int
			ts   string
			mime string
			data []byte
		)
		if err := rows.Scan(&row, &ts, &mime, &data); err != nil {
			return err
		}
		e, ok := entries[row]
		if !ok {
			e = &entry{data: make(map[string][]byte)}
			if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
				e.t = t
			}
			entries[row] = e
			order = append(order, row)
		}
		e.data[mime] = data
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, row := range order {
		if maxItems > 0 && m.Len() >= maxItems {
			break
		}
		e := entries[row]
		it := item.New(e.data)
		if !e.t.IsZero() {
			it.Time = e.t
		}
		m.Append(it)
	}
	return nil
}

func storeRows(db *sql.DB, m *item.Model) error {
	return withTx(db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM items`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`INSERT INTO items (row, time, mime, data) VALUES (?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for row, it := range m.Items() {
			ts := it.Time.UTC().Format(time.RFC3339Nano)
			for mime, data := range it.DataMap() {
				if _, err := stmt.Exec(row, ts, mime, data); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Saver writes items into the tab's database and only the pointer record
// into the stream.
type Saver struct {
	item.DefaultSaver
	path string
}

// SaveItems rewrites the database contents and emits the pointer record.
func (s *Saver) SaveItems(tabName string, m *item.Model, w io.Writer) error {
	db, err := Open(s.path)
	if err != nil {
		return fmt.Errorf("tab %q: open database: %w", tabName, err)
	}
	defer db.Close()

	if err := storeRows(db, m); err != nil {
		return fmt.Errorf("tab %q: store: %w", tabName, err)
	}
	return json.NewEncoder(w).Encode(pointer{
		Format:  formatName,
		Version: 1,
		Path:    filepath.Base(s.path),
	})
}

var _ item.Loader = (*Loader)(nil)
var _ item.Saver = (*Saver)(nil)
