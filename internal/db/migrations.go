package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Migrate applies the idempotent DDL for the feedback bank:
//   - feedback_modules, feedback_questions, feedback_elements (ordered tree)
//   - site_settings (key/value flags such as site_locked)
//   - event_log (change log of feedback mutations)
//
// Timestamps are stored as unix nanoseconds in both dialects.
func Migrate(ctx context.Context, db *sql.DB, driver Driver) error {
	if db == nil {
		return fmt.Errorf("migrations: db is nil")
	}

	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	default:
		return fmt.Errorf("migrations: unsupported driver %q (expected postgres|sqlite)", driver)
	}

	// Try the whole script first; fall back to one statement at a time for
	// drivers that reject multi-statement Exec.
	if _, err := db.ExecContext(ctx, schema); err != nil {
		for _, stmt := range splitSQL(schema) {
			if _, e := db.ExecContext(ctx, stmt); e != nil {
				return fmt.Errorf("migrations: failed at:\n%s\nerr: %w", firstLine(stmt), e)
			}
		}
	}
	return nil
}

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS feedback_modules (
  id          TEXT PRIMARY KEY,
  title       TEXT NOT NULL,
  description TEXT,
  position    INTEGER NOT NULL,
  created_at  INTEGER NOT NULL,
  updated_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback_questions (
  id          TEXT PRIMARY KEY,
  module_id   TEXT NOT NULL REFERENCES feedback_modules(id) ON DELETE CASCADE,
  title       TEXT NOT NULL,
  description TEXT,
  position    INTEGER NOT NULL,
  created_at  INTEGER NOT NULL,
  updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS feedback_questions_module_pos_idx
  ON feedback_questions (module_id, position);

-- module_id is always set, question_id is NULL for module-level elements.
CREATE TABLE IF NOT EXISTS feedback_elements (
  id          TEXT PRIMARY KEY,
  module_id   TEXT NOT NULL REFERENCES feedback_modules(id) ON DELETE CASCADE,
  question_id TEXT REFERENCES feedback_questions(id) ON DELETE CASCADE,
  content     TEXT NOT NULL,
  position    INTEGER NOT NULL,
  created_at  INTEGER NOT NULL,
  updated_at  INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS feedback_elements_module_pos_idx
  ON feedback_elements (module_id, question_id, position);

CREATE TABLE IF NOT EXISTS site_settings (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  typ        TEXT NOT NULL,
  key        TEXT NOT NULL,
  data       TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS feedback_modules (
  id          TEXT PRIMARY KEY,
  title       TEXT NOT NULL,
  description TEXT,
  position    INTEGER NOT NULL,
  created_at  BIGINT NOT NULL,
  updated_at  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback_questions (
  id          TEXT PRIMARY KEY,
  module_id   TEXT NOT NULL REFERENCES feedback_modules(id) ON DELETE CASCADE,
  title       TEXT NOT NULL,
  description TEXT,
  position    INTEGER NOT NULL,
  created_at  BIGINT NOT NULL,
  updated_at  BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS feedback_questions_module_pos_idx
  ON feedback_questions (module_id, position);

CREATE TABLE IF NOT EXISTS feedback_elements (
  id          TEXT PRIMARY KEY,
  module_id   TEXT NOT NULL REFERENCES feedback_modules(id) ON DELETE CASCADE,
  question_id TEXT REFERENCES feedback_questions(id) ON DELETE CASCADE,
  content     TEXT NOT NULL,
  position    INTEGER NOT NULL,
  created_at  BIGINT NOT NULL,
  updated_at  BIGINT NOT NULL
);

CREATE INDEX IF NOT EXISTS feedback_elements_module_pos_idx
  ON feedback_elements (module_id, question_id, position);

CREATE TABLE IF NOT EXISTS site_settings (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS event_log (
  seq        BIGSERIAL PRIMARY KEY,
  typ        TEXT NOT NULL,
  key        TEXT NOT NULL,
  data       TEXT NOT NULL,
  created_at BIGINT NOT NULL
);
`

func splitSQL(s string) []string {
	raw := strings.Split(s, ";")
	out := make([]string, 0, len(raw))
	for _, part := range raw {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part+";")
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
