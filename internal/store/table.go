package store

import (
	"database/sql"

	"github.com/rotisserie/eris"
)

const schemaVersion = 1

// Migrate applies schema versions tracked in PRAGMA user_version.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return eris.Wrap(err, "begin migrate")
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return eris.Wrap(err, "read user_version")
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	// ---- Schema v1 ----

	stmts := []string{`
CREATE TABLE IF NOT EXISTS applicants (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  mail_id TEXT NOT NULL,
  received_at TEXT NOT NULL,
  source TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  city TEXT NOT NULL DEFAULT '',
  position TEXT NOT NULL DEFAULT '',
  code TEXT NOT NULL DEFAULT '',
  exported_at TEXT NOT NULL
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_applicants_mail_id
ON applicants(mail_id);`, `
CREATE INDEX IF NOT EXISTS idx_applicants_received_at
ON applicants(received_at);`, `
CREATE INDEX IF NOT EXISTS idx_applicants_source
ON applicants(source);`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return eris.Wrap(err, "migrate v1")
		}
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return eris.Wrap(err, "set user_version")
	}
	return tx.Commit()
}
