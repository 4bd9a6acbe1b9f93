package db

import (
	"context"
	"fmt"
)

// schema holds the DDL for the four application tables. Statements are
// idempotent so Migrate can run on every startup.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'patient' CHECK (role IN ('patient', 'caretaker')),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS medications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		dosage TEXT NOT NULL,
		frequency TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS medication_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		medication_id INTEGER NOT NULL REFERENCES medications(id),
		user_id INTEGER NOT NULL REFERENCES users(id),
		taken_at TEXT NOT NULL,
		photo_url TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (medication_id, taken_at)
	)`,
	`CREATE TABLE IF NOT EXISTS patient_caretaker (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_id INTEGER NOT NULL REFERENCES users(id),
		caretaker_id INTEGER NOT NULL REFERENCES users(id),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (patient_id, caretaker_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_medications_user ON medications(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_medication_logs_user_date ON medication_logs(user_id, taken_at)`,
	`CREATE INDEX IF NOT EXISTS idx_patient_caretaker_caretaker ON patient_caretaker(caretaker_id)`,
}

// Migrate creates the application tables and indexes if they do not exist.
func Migrate(ctx context.Context, d *DB) error {
	for _, stmt := range schema {
		if _, err := d.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
