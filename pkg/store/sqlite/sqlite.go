// Package sqlite implements a Backend that keeps each store in a SQLite table.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/voiceledger/pkg/api"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Config holds configuration for the SQLite backend.
type Config struct {
	// Path is the database file. Its directory is created if missing.
	// ":memory:" opens a private in-memory database.
	Path string
}

// Backend is a SQLite database with one table per store.
type Backend struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens the database at cfg.Path.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	dsn := cfg.Path
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o750); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
		dsn = cfg.Path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection serializes every write and keeps :memory: databases
	// alive across calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("sqlite backend initialized", "path", cfg.Path)
	return &Backend{db: db, logger: logger}, nil
}

// Store creates the table for name if needed and returns its store.
func (b *Backend) Store(ctx context.Context, name string) (api.Store, error) {
	if err := api.ValidateStoreName(name); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		amount TEXT NOT NULL,
		bank_name TEXT NOT NULL DEFAULT '',
		account_number INTEGER NOT NULL DEFAULT 0,
		beneficiary_number INTEGER NOT NULL DEFAULT 0,
		recorded_at TEXT NOT NULL
	)`, name)
	if _, err := b.db.ExecContext(ctx, query); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", name, err)
	}

	return &Store{name: name, db: b.db, logger: b.logger.With("store", name)}, nil
}

// Close closes the database.
func (b *Backend) Close() error {
	if err := b.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	return nil
}

// Store is one table of the database.
type Store struct {
	name   string
	db     *sql.DB
	logger *slog.Logger
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Append inserts record as a new row.
func (s *Store) Append(ctx context.Context, record api.Record) error {
	query := fmt.Sprintf(`INSERT INTO %q
		(id, kind, amount, bank_name, account_number, beneficiary_number, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, s.name)

	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		string(record.Kind),
		record.Amount.String(),
		record.BankName,
		record.AccountNumber,
		record.BeneficiaryNumber,
		record.RecordedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	s.logger.Debug("appended record", "id", record.ID)
	return nil
}

// LoadAll returns the rows in insertion order. A row whose amount or
// timestamp cannot be parsed yields api.ErrCorruptStore.
func (s *Store) LoadAll(ctx context.Context) ([]api.Record, error) {
	query := fmt.Sprintf(`SELECT id, kind, amount, bank_name, account_number, beneficiary_number, recorded_at
		FROM %q ORDER BY seq`, s.name)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	records := []api.Record{}
	for rows.Next() {
		var (
			r          api.Record
			kind       string
			amount     string
			recordedAt string
		)
		if err := rows.Scan(&r.ID, &kind, &amount, &r.BankName, &r.AccountNumber, &r.BeneficiaryNumber, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w: %v", api.ErrCorruptStore, err)
		}

		r.Kind = api.Kind(kind)
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("record %s amount: %w: %v", r.ID, api.ErrCorruptStore, err)
		}
		if r.RecordedAt, err = time.Parse(time.RFC3339Nano, recordedAt); err != nil {
			return nil, fmt.Errorf("record %s timestamp: %w: %v", r.ID, api.ErrCorruptStore, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}
