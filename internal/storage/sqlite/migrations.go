package sqlite

import (
	"context"
	"database/sql"
)

// Migrate runs all database migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrations := []string{
		// Cached test results, keyed by model fingerprint and combination
		`CREATE TABLE IF NOT EXISTS results (
			namespace TEXT NOT NULL,
			combination BLOB NOT NULL,
			display TEXT NOT NULL,
			outcome INTEGER NOT NULL,
			cause TEXT,
			recorded_at DATETIME NOT NULL,
			PRIMARY KEY (namespace, combination)
		)`,

		// Sessions table
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			model_path TEXT,
			fingerprint TEXT NOT NULL,
			strength INTEGER NOT NULL,
			state TEXT NOT NULL,
			executed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			finished_at DATETIME
		)`,

		// Characterization reports, one per session
		`CREATE TABLE IF NOT EXISTS reports (
			session_id TEXT PRIMARY KEY,
			failure_inducing_json TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
		)`,

		`CREATE INDEX IF NOT EXISTS idx_sessions_state ON sessions(state)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.ExecContext(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}
