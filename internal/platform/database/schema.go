package database

import "database/sql"

// Schema holds the complete DDL. Applied by cmd/migrate and by test fixtures;
// every statement is idempotent so reruns are safe.
var Schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tokens (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		token_hash TEXT UNIQUE NOT NULL,
		token_prefix TEXT NOT NULL,
		scopes TEXT NOT NULL,
		expires_at INTEGER,
		last_used_at INTEGER,
		revoked INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tokens_user ON tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tokens_prefix ON tokens(token_prefix)`,
	`CREATE TABLE IF NOT EXISTS audit_logs (
		id TEXT PRIMARY KEY,
		token_id TEXT,
		timestamp INTEGER NOT NULL,
		ip_address TEXT NOT NULL,
		method TEXT NOT NULL,
		endpoint TEXT NOT NULL,
		status_code INTEGER NOT NULL,
		authorized INTEGER NOT NULL,
		reason TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_token ON audit_logs(token_id, timestamp)`,
	`CREATE TABLE IF NOT EXISTS workspaces (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id),
		name TEXT NOT NULL,
		description TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS fcs_files (
		id TEXT PRIMARY KEY,
		workspace_id TEXT NOT NULL REFERENCES workspaces(id),
		filename TEXT NOT NULL,
		event_count INTEGER NOT NULL DEFAULT 0,
		parameter_count INTEGER NOT NULL DEFAULT 0,
		analyzed_at INTEGER,
		created_at INTEGER NOT NULL
	)`,
}

func Migrate(db *sql.DB) error {
	for _, stmt := range Schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
