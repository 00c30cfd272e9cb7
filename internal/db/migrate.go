package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// Migrate runs all schema migrations.
func Migrate(db *sql.DB) error {
	for i, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			// Tolerate "duplicate column name" errors from ALTER TABLE
			// since the migration system re-runs all statements.
			if strings.Contains(err.Error(), "duplicate column name") {
				continue
			}
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return nil
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS journal_entries (
		id          TEXT PRIMARY KEY,
		session_id  TEXT NOT NULL,
		emotion     TEXT NOT NULL
		            CHECK(emotion IN ('neutral','anxious','sad','angry','tired','happy','calm','motivated','grateful')),
		category    TEXT NOT NULL,
		advice_json TEXT NOT NULL DEFAULT '[]',
		message     TEXT NOT NULL DEFAULT '',
		created_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_created ON journal_entries(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_journal_session ON journal_entries(session_id)`,
	// v2: record which backend produced the turn
	`ALTER TABLE journal_entries ADD COLUMN source TEXT NOT NULL DEFAULT ''`,
}
