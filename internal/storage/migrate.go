package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

type migration struct {
	version int
	name    string
}

// MigrateUp applies every embedded migration newer than the database's
// user_version, oldest first.
func MigrateUp(db *sql.DB) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	ups, err := listMigrations(".up.sql")
	if err != nil {
		return err
	}
	for _, m := range ups {
		if m.version <= current {
			continue
		}
		if err := applyMigration(db, m, m.version); err != nil {
			return err
		}
	}
	return nil
}

// MigrateDown reverts every applied migration, newest first.
func MigrateDown(db *sql.DB) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	downs, err := listMigrations(".down.sql")
	if err != nil {
		return err
	}
	for i := len(downs) - 1; i >= 0; i-- {
		m := downs[i]
		if m.version > current {
			continue
		}
		if err := applyMigration(db, m, m.version-1); err != nil {
			return err
		}
	}
	return nil
}

// SchemaVersion reports the last applied migration version.
func SchemaVersion(db *sql.DB) (int, error) {
	var v int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

func listMigrations(suffix string) ([]migration, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*"+suffix)
	if err != nil {
		return nil, fmt.Errorf("glob migrations: %w", err)
	}
	out := make([]migration, 0, len(entries))
	for _, name := range entries {
		base := path.Base(name)
		prefix, _, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		v, err := strconv.Atoi(prefix)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("migration %s: bad version %q", name, prefix)
		}
		out = append(out, migration{version: v, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

func applyMigration(db *sql.DB, m migration, setVersion int) error {
	body, err := migrationFiles.ReadFile(m.name)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", m.name, err)
	}
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", m.name, err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(string(body)); err != nil {
		return fmt.Errorf("apply migration %s: %w", m.name, err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, setVersion)); err != nil {
		return fmt.Errorf("record migration %s: %w", m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", m.name, err)
	}
	return nil
}
