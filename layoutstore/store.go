// Copyright © 2025 Texelation contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: layoutstore/store.go
// Summary: SQLite persistence of window geometry between sessions.
// Usage: Restore after the named windows are added to the registry; SaveWindows
// before the desktop exits. Unnamed windows are never stored.

package layoutstore

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/framegrace/texeldesk/geom"
	"github.com/framegrace/texeldesk/texel"
	_ "modernc.org/sqlite"
)

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS placements (
    name     TEXT PRIMARY KEY,
    x        INTEGER NOT NULL,
    y        INTEGER NOT NULL,
    width    INTEGER NOT NULL,
    height   INTEGER NOT NULL,
    state    TEXT NOT NULL DEFAULT 'normal',
    z        INTEGER NOT NULL DEFAULT 0,
    saved_at INTEGER NOT NULL            -- UnixNano
);
`

// Placement is the stored geometry of one named window. Bounds is the
// normal (unmaximized) geometry.
type Placement struct {
	Name   string
	Bounds geom.Rect
	State  texel.WindowState
	Z      int
	Saved  time.Time
}

// Store is a layout database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the layout database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create layout dir: %w", err)
	}
	dsn := path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open layout db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect layout db: %w", err)
	}
	s := &Store{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create layout schema: %w", err)
	}
	var version int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.Exec("INSERT INTO schema_version (version) VALUES (?)", schemaVersion)
		if err != nil {
			return fmt.Errorf("record layout schema version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read layout schema version: %w", err)
	case version > schemaVersion:
		return fmt.Errorf("layout db version %d is newer than supported %d", version, schemaVersion)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) save(e execer, p Placement) error {
	if p.Name == "" {
		return errors.New("placement needs a window name")
	}
	_, err := e.Exec(`
INSERT INTO placements (name, x, y, width, height, state, z, saved_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET
    x = excluded.x, y = excluded.y, width = excluded.width, height = excluded.height,
    state = excluded.state, z = excluded.z, saved_at = excluded.saved_at`,
		p.Name, p.Bounds.X, p.Bounds.Y, p.Bounds.W, p.Bounds.H, p.State.String(), p.Z, s.now().UnixNano())
	if err != nil {
		return fmt.Errorf("save placement %q: %w", p.Name, err)
	}
	return nil
}

// Save inserts or replaces a placement.
func (s *Store) Save(p Placement) error {
	return s.save(s.db, p)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPlacement(row scanner) (Placement, error) {
	var (
		p     Placement
		state string
		saved int64
	)
	if err := row.Scan(&p.Name, &p.Bounds.X, &p.Bounds.Y, &p.Bounds.W, &p.Bounds.H, &state, &p.Z, &saved); err != nil {
		return Placement{}, err
	}
	p.State = parseState(state)
	p.Saved = time.Unix(0, saved)
	return p, nil
}

func parseState(s string) texel.WindowState {
	switch s {
	case texel.StateMinimized.String():
		return texel.StateMinimized
	case texel.StateMaximized.String():
		return texel.StateMaximized
	}
	return texel.StateNormal
}

const selectPlacement = "SELECT name, x, y, width, height, state, z, saved_at FROM placements"

// Load returns the placement stored for name.
func (s *Store) Load(name string) (Placement, bool, error) {
	p, err := scanPlacement(s.db.QueryRow(selectPlacement+" WHERE name = ?", name))
	if errors.Is(err, sql.ErrNoRows) {
		return Placement{}, false, nil
	}
	if err != nil {
		return Placement{}, false, fmt.Errorf("load placement %q: %w", name, err)
	}
	return p, true, nil
}

// All returns every placement bottom to top.
func (s *Store) All() ([]Placement, error) {
	rows, err := s.db.Query(selectPlacement + " ORDER BY z, name")
	if err != nil {
		return nil, fmt.Errorf("list placements: %w", err)
	}
	defer rows.Close()
	var out []Placement
	for rows.Next() {
		p, err := scanPlacement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan placement: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete forgets the placement for name.
func (s *Store) Delete(name string) error {
	if _, err := s.db.Exec("DELETE FROM placements WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete placement %q: %w", name, err)
	}
	return nil
}

// SaveWindows stores every named window of reg in one transaction and
// returns how many were written.
func (s *Store) SaveWindows(reg *texel.Registry) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin layout save: %w", err)
	}
	defer tx.Rollback()

	n := 0
	for _, w := range reg.ZOrdered() {
		if w.Name() == "" {
			continue
		}
		p := Placement{Name: w.Name(), Bounds: w.RestoreBounds(), State: w.State(), Z: w.Z()}
		if err := s.save(tx, p); err != nil {
			return 0, err
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit layout save: %w", err)
	}
	return n, nil
}

// Restore applies stored placements to the named windows of reg, lowest
// stored z first, and returns how many windows were placed.
func (s *Store) Restore(reg *texel.Registry) (int, error) {
	placements, err := s.All()
	if err != nil {
		return 0, err
	}
	byName := make(map[string]*texel.Window)
	for _, w := range reg.Windows() {
		if w.Name() != "" {
			byName[w.Name()] = w
		}
	}
	n := 0
	for _, p := range placements {
		w := byName[p.Name]
		if w == nil {
			continue
		}
		if w.State() != texel.StateNormal {
			reg.Restore(w)
		}
		reg.SetBounds(w, p.Bounds)
		switch p.State {
		case texel.StateMaximized:
			reg.Maximize(w)
		case texel.StateMinimized:
			if !reg.Minimize(w) {
				log.Printf("Layout: Could not minimize %q", p.Name)
			}
		default:
			reg.Activate(w)
		}
		n++
	}
	return n, nil
}
