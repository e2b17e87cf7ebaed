package storage

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the latest schema version supported by the migrator.
const SchemaVersion = 1

// migrate ensures the SQLite schema exists and is upgraded to SchemaVersion.
func migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`)
	if err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	err = db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current)
	if err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}

	if current >= SchemaVersion {
		return nil
	}

	transaction, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	_, err = transaction.Exec(`
		CREATE TABLE IF NOT EXISTS trials (
			subject_id TEXT NOT NULL,
			trial_number INTEGER NOT NULL,
			run INTEGER NOT NULL,
			stimulus TEXT NOT NULL,
			extra TEXT NULL,
			map_id TEXT NOT NULL,
			yes_key TEXT NOT NULL,
			no_key TEXT NOT NULL,
			yes_instr TEXT NOT NULL,
			no_instr TEXT NOT NULL,
			ideal_onset REAL NOT NULL,
			response_key TEXT NULL,
			response_onset REAL NULL,
			created_at TEXT NOT NULL,
			PRIMARY KEY (subject_id, trial_number)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate: create trials table: %w", err)
	}

	_, err = transaction.Exec(`CREATE INDEX IF NOT EXISTS idx_trials_subject_run ON trials(subject_id, run);`)
	if err != nil {
		return fmt.Errorf("migrate: create idx_trials_subject_run: %w", err)
	}

	_, err = transaction.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion)
	if err != nil {
		return fmt.Errorf("migrate: record schema version: %w", err)
	}

	err = transaction.Commit()
	if err != nil {
		return fmt.Errorf("migrate: commit transaction: %w", err)
	}

	return nil
}
