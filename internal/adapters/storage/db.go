package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// migration is one forward-only schema step.
type migration struct {
	version int
	name    string
	apply   func(tx *sql.Tx) error
}

// migrations is the ordered schema history. Append only; never edit a released step.
var migrations = []migration{
	{version: 1, name: "baseline", apply: migrateBaseline},
	{version: 2, name: "instance_scrub_trigger", apply: migrateInstanceScrubTrigger},
	{version: 3, name: "instance_deletion_terminal", apply: migrateInstanceDeletionTerminal},
	{version: 4, name: "instance_file_path_index", apply: migrateInstanceFilePathIndex},
}

// LatestSchemaVersion returns the version MigrateDB brings a database to.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the currently applied schema version (0 for a fresh database).
// PRE: db is a valid database connection
// POST: Returns the highest applied version
func SchemaVersion(db *sql.DB) (int, error) {
	var exists int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'`).Scan(&exists)
	if err != nil {
		return 0, fmt.Errorf("failed to inspect schema_version: %w", err)
	}
	if exists == 0 {
		return 0, nil
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema_version: %w", err)
	}
	return int(v.Int64), nil
}

// MigrateDB applies every pending migration, each in its own transaction.
// PRE: db is a valid database connection
// POST: Schema is at LatestSchemaVersion; re-running is a no-op
func MigrateDB(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
	)`); err != nil {
		return fmt.Errorf("failed to create schema_version: %w", err)
	}

	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migration %d: begin: %w", m.version, err)
		}
		if err := m.apply(tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: record version: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: commit: %w", m.version, err)
		}
		slog.Info("schema_migrated", "version", m.version, "name", m.name)
	}
	return nil
}

// migrateBaseline creates the form and instance tables.
// Instances reference forms by (jr_form_id, jr_version) only. There is
// deliberately no FOREIGN KEY: an instance may outlive every matching form row.
func migrateBaseline(tx *sql.Tx) error {
	schema := `
	CREATE TABLE IF NOT EXISTS form (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		jr_form_id TEXT NOT NULL,
		jr_version TEXT NOT NULL DEFAULT '',
		form_file_path TEXT NOT NULL,
		md5_hash TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		state TEXT NOT NULL DEFAULT 'active'
	);

	CREATE INDEX IF NOT EXISTS idx_form_logical_id ON form (jr_form_id, jr_version);

	CREATE TABLE IF NOT EXISTS instance (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL DEFAULT '',
		submission_uri TEXT NOT NULL DEFAULT '',
		instance_file_path TEXT NOT NULL,
		jr_form_id TEXT NOT NULL,
		jr_version TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		can_edit_when_complete INTEGER NOT NULL DEFAULT 1,
		last_status_change_at TEXT NOT NULL,
		deleted_at TEXT,
		geometry_type TEXT,
		geometry TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_instance_logical_id ON instance (jr_form_id, jr_version);
	`
	_, err := tx.Exec(schema)
	return err
}

// migrateInstanceScrubTrigger makes the storage layer null geometry whenever
// an instance becomes deleted, whichever statement set deleted_at. The
// trigger runs inside the triggering statement, so flag and scrub commit together.
func migrateInstanceScrubTrigger(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TRIGGER IF NOT EXISTS instance_scrub_on_delete
	AFTER UPDATE OF deleted_at ON instance
	FOR EACH ROW WHEN NEW.deleted_at IS NOT NULL AND (NEW.geometry_type IS NOT NULL OR NEW.geometry IS NOT NULL)
	BEGIN
		UPDATE instance SET geometry_type = NULL, geometry = NULL WHERE id = NEW.id;
	END;

	CREATE TRIGGER IF NOT EXISTS instance_scrub_on_insert
	AFTER INSERT ON instance
	FOR EACH ROW WHEN NEW.deleted_at IS NOT NULL AND (NEW.geometry_type IS NOT NULL OR NEW.geometry IS NOT NULL)
	BEGIN
		UPDATE instance SET geometry_type = NULL, geometry = NULL WHERE id = NEW.id;
	END;
	`)
	return err
}

// migrateInstanceDeletionTerminal rejects any statement that clears deleted_at
// or restores geometry on a deleted instance.
func migrateInstanceDeletionTerminal(tx *sql.Tx) error {
	_, err := tx.Exec(`
	CREATE TRIGGER IF NOT EXISTS instance_deleted_is_terminal
	BEFORE UPDATE ON instance
	FOR EACH ROW WHEN OLD.deleted_at IS NOT NULL
		AND (NEW.deleted_at IS NULL OR NEW.geometry_type IS NOT NULL OR NEW.geometry IS NOT NULL)
	BEGIN
		SELECT RAISE(ABORT, 'instance is deleted');
	END;
	`)
	return err
}

func migrateInstanceFilePathIndex(tx *sql.Tx) error {
	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_instance_file_path ON instance (instance_file_path)`)
	return err
}
