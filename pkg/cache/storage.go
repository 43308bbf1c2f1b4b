package cache

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// schemaVersion tags the cache file format. An unknown version is
// discarded and rebuilt rather than migrated; the cache is advisory data.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS cache_info (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS code_entries (
	level INTEGER NOT NULL,
	code TEXT NOT NULL,
	name TEXT,
	use_count INTEGER NOT NULL,
	last_used TIMESTAMP NOT NULL,
	PRIMARY KEY (level, code)
);

CREATE TABLE IF NOT EXISTS text_entries (
	field TEXT NOT NULL,
	text TEXT NOT NULL,
	use_count INTEGER NOT NULL,
	last_used TIMESTAMP NOT NULL,
	PRIMARY KEY (field, text)
);
`

// Load reads the cache file at path into a new store. Loading is
// best-effort: a missing, locked, or corrupt file yields an empty cache
// and a nil error so startup never fails on cache state.
func Load(path string, capPerLevel int) *Store {
	s := New(capPerLevel)
	if _, err := os.Stat(path); err != nil {
		return s
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return s
	}
	defer db.Close()

	var version int
	if err := db.QueryRow("SELECT version FROM cache_info LIMIT 1").Scan(&version); err != nil || version != schemaVersion {
		return s
	}

	rows, err := db.Query("SELECT level, code, name, use_count, last_used FROM code_entries")
	if err != nil {
		return s
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Level, &e.Code, &e.Name, &e.UseCount, &e.LastUsed); err != nil {
			return New(capPerLevel)
		}
		key := byLower(e.Code)
		if s.codes[e.Level] == nil {
			s.codes[e.Level] = map[string]*Entry{}
		}
		ec := e
		s.codes[e.Level][key] = &ec
		s.evict(e.Level)
	}

	trows, err := db.Query("SELECT field, text, use_count, last_used FROM text_entries")
	if err != nil {
		return s
	}
	defer trows.Close()
	for trows.Next() {
		var e TextEntry
		if err := trows.Scan(&e.Field, &e.Text, &e.UseCount, &e.LastUsed); err != nil {
			break
		}
		if s.texts[e.Field] == nil {
			s.texts[e.Field] = map[string]*TextEntry{}
		}
		et := e
		s.texts[e.Field][byLower(e.Text)] = &et
	}

	return s
}

// Save writes the full store to the cache file at path, replacing prior
// contents in one transaction. The database handle is always closed, on
// failure included.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("open cache db: %w", err)
	}
	defer db.Close()

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("init cache schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin cache save: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, stmt := range []string{
		"DELETE FROM cache_info",
		"DELETE FROM code_entries",
		"DELETE FROM text_entries",
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("reset cache tables: %w", err)
		}
	}
	if _, err := tx.Exec("INSERT INTO cache_info (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("write cache version: %w", err)
	}

	for level, byCode := range s.codes {
		for _, e := range byCode {
			_, err := tx.Exec(
				"INSERT OR REPLACE INTO code_entries (level, code, name, use_count, last_used) VALUES (?, ?, ?, ?, ?)",
				level, e.Code, e.Name, e.UseCount, e.LastUsed,
			)
			if err != nil {
				return fmt.Errorf("write cache entry: %w", err)
			}
		}
	}
	for field, byText := range s.texts {
		for _, e := range byText {
			_, err := tx.Exec(
				"INSERT OR REPLACE INTO text_entries (field, text, use_count, last_used) VALUES (?, ?, ?, ?)",
				field, e.Text, e.UseCount, e.LastUsed,
			)
			if err != nil {
				return fmt.Errorf("write cache text entry: %w", err)
			}
		}
	}

	return tx.Commit()
}

// MigrateLegacy copies a cache file from a previous install location when
// the new path does not exist yet. It never overwrites an existing cache
// and never fails startup.
func MigrateLegacy(newPath, legacyPath string) {
	if _, err := os.Stat(newPath); err == nil {
		return
	}
	src, err := os.Open(legacyPath)
	if err != nil {
		return
	}
	defer src.Close()

	if err := os.MkdirAll(filepath.Dir(newPath), 0755); err != nil {
		return
	}
	dst, err := os.Create(newPath)
	if err != nil {
		return
	}
	defer dst.Close()
	_, _ = io.Copy(dst, src)
}

func byLower(v string) string {
	return strings.ToLower(collapse(v))
}
