// Package sqlstore is the database/sql implementation of store.DB with two
// wired dialects: Postgres through the pgx stdlib adapter and SQLite
// through modernc.org/sqlite. One set of queries serves both; the only
// dialect splits are row locking, the audit id column and the connection
// setup.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	sqlite "modernc.org/sqlite"

	"github.com/xtding233/lottery-engine/internal/store"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store implements store.DB over database/sql.
type Store struct {
	db      *sql.DB
	dialect string
	log     zerolog.Logger
}

// Open connects, applies dialect setup and ensures the schema exists.
func Open(driver, dsn string, log zerolog.Logger) (*Store, error) {
	var db *sql.DB
	switch driver {
	case DriverPostgres:
		config, err := pgx.ParseConfig(dsn)
		if err != nil {
			return nil, fmt.Errorf("parse postgres dsn: %w", err)
		}
		// Simple protocol avoids prepared-statement clashes behind poolers.
		config.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
		db = stdlib.OpenDB(*config)
		db.SetConnMaxIdleTime(4 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(2)
		if err := db.Ping(); err != nil {
			db.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
	case DriverSQLite:
		if !strings.Contains(dsn, "?") {
			dsn += "?_txlock=immediate"
		}
		conn, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		pragmas := []string{
			"PRAGMA journal_mode=WAL",
			"PRAGMA synchronous=NORMAL",
			"PRAGMA foreign_keys=ON",
			"PRAGMA busy_timeout=5000",
		}
		for _, pragma := range pragmas {
			if _, err := conn.Exec(pragma); err != nil {
				conn.Close()
				return nil, fmt.Errorf("set pragma: %w", err)
			}
		}
		// pragmas are per connection; a single connection keeps them applied
		// and serializes writers the way SQLite wants anyway
		conn.SetMaxOpenConns(1)
		db = conn
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}

	s := &Store{db: db, dialect: driver, log: log}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	log.Info().Str("driver", driver).Msg("database ready")
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

// sqlTx is the one Tx shape this store accepts. It stays valid only while
// its RunInTx call is on the stack.
type sqlTx struct {
	store.TxMarker
	tx     *sql.Tx
	owner  *Store
	active bool
}

// RunInTx runs fn in one transaction, rolling back on error or panic.
func (s *Store) RunInTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	h := &sqlTx{tx: tx, owner: s, active: true}
	defer func() { h.active = false }()

	defer func() {
		if p := recover(); p != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.log.Error().Err(rbErr).Msg("rollback after panic failed")
			}
			panic(p)
		}
	}()

	if err := fn(h); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.log.Error().Err(rbErr).Err(err).Msg("rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// handle validates that tx was minted by this store's RunInTx and is still
// on the stack.
func (s *Store) handle(tx store.Tx) (*sqlTx, error) {
	h, ok := tx.(*sqlTx)
	if !ok || h.owner != s || !h.active {
		return nil, store.ErrNoTransaction
	}
	return h, nil
}

// lock is the row-lock suffix for SELECTs that must serialize writers.
// SQLite write transactions lock the whole database, so nothing is needed.
func (s *Store) lock() string {
	if s.dialect == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// SQLITE_CONSTRAINT is the low byte of every constraint extended code.
const sqliteConstraint = 19

// isUniqueViolation recognizes unique/primary key violations of either
// dialect.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var sqErr *sqlite.Error
	if errors.As(err, &sqErr) {
		return sqErr.Code()&0xff == sqliteConstraint
	}
	return false
}
