package sqlstore

import (
	"fmt"
	"strings"
)

// Timestamps are stored as epoch seconds so both dialects share one DDL.
// Only the self-assigned id columns differ.

const sharedSchema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL DEFAULT '',
	initial_budget   BIGINT NOT NULL,
	effective_budget BIGINT NOT NULL,
	created_at       BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id     TEXT PRIMARY KEY,
	points BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS prize_stock (
	campaign_id TEXT NOT NULL,
	prize_id    TEXT NOT NULL,
	level       INTEGER NOT NULL,
	PRIMARY KEY (campaign_id, prize_id)
);

CREATE TABLE IF NOT EXISTS user_experience (
	campaign_id        TEXT NOT NULL,
	user_id            TEXT NOT NULL,
	empty_streak       INTEGER NOT NULL,
	recent_high_count  INTEGER NOT NULL,
	anti_high_cooldown INTEGER NOT NULL,
	PRIMARY KEY (campaign_id, user_id)
);

CREATE TABLE IF NOT EXISTS global_stats (
	campaign_id TEXT PRIMARY KEY,
	draw_count  BIGINT NOT NULL,
	empty_count BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS draw_records (
	campaign_id TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	request_id  TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	tier        TEXT NOT NULL,
	prize_id    TEXT NOT NULL DEFAULT '',
	cost        BIGINT NOT NULL,
	mechanisms  TEXT NOT NULL DEFAULT '[]',
	created_at  BIGINT NOT NULL,
	PRIMARY KEY (campaign_id, user_id, request_id, seq)
);
`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	audit_id    TEXT NOT NULL DEFAULT '',
	campaign_id TEXT NOT NULL,
	user_id     TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	ref_key     TEXT NOT NULL DEFAULT '',
	created_at  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
	id          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	campaign_id TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	kind        TEXT NOT NULL,
	value       TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	consumed    INTEGER NOT NULL DEFAULT 0,
	created_at  BIGINT NOT NULL
);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_records (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	audit_id    TEXT NOT NULL DEFAULT '',
	campaign_id TEXT NOT NULL,
	user_id     TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	action      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	ref_key     TEXT NOT NULL DEFAULT '',
	created_at  BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	campaign_id TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	kind        TEXT NOT NULL,
	value       TEXT NOT NULL DEFAULT '',
	actor       TEXT NOT NULL DEFAULT '',
	consumed    INTEGER NOT NULL DEFAULT 0,
	created_at  BIGINT NOT NULL
);
`

// one active setting per campaign+user+kind; consumed rows stay for audit
const settingsIndex = `
CREATE UNIQUE INDEX IF NOT EXISTS user_settings_active
	ON user_settings (campaign_id, user_id, kind) WHERE consumed = 0;
`

func (s *Store) ensureSchema() error {
	ddl := sharedSchema
	if s.dialect == DriverPostgres {
		ddl += postgresSchema
	} else {
		ddl += sqliteSchema
	}
	ddl += settingsIndex

	for _, stmt := range splitStatements(ddl) {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

// splitStatements breaks the DDL on semicolons; none of our statements
// embed one in a literal.
func splitStatements(ddl string) []string {
	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
