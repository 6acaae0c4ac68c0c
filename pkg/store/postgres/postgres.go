// Package postgres implements a Backend that keeps each store in a PostgreSQL table.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

//go:embed schema.sql
var schemaSQL string

// Config holds the PostgreSQL backend configuration.
type Config struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	// URL, when set, is used instead of the individual connection fields.
	URL string

	// MaxPoolSize is the maximum number of connections in the pool.
	MaxPoolSize int
}

// connString builds a libpq connection string from cfg, applying defaults.
func (cfg Config) connString() string {
	if cfg.URL != "" {
		return cfg.URL
	}
	if cfg.Port == 0 {
		cfg.Port = 5432
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "disable"
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)
}

// Backend is a PostgreSQL connection pool with one table per store.
type Backend struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New connects to PostgreSQL.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = 4
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.connString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxPoolSize)
	poolConfig.MaxConnLifetime = 1 * time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("connected to PostgreSQL",
		"host", poolConfig.ConnConfig.Host,
		"port", poolConfig.ConnConfig.Port,
		"database", poolConfig.ConnConfig.Database,
	)

	return &Backend{pool: pool, logger: logger}, nil
}

// Store creates the table for name if needed and returns its store.
func (b *Backend) Store(ctx context.Context, name string) (api.Store, error) {
	if err := api.ValidateStoreName(name); err != nil {
		return nil, err
	}

	table := pgx.Identifier{name}.Sanitize()
	if _, err := b.pool.Exec(ctx, fmt.Sprintf(schemaSQL, table)); err != nil {
		return nil, fmt.Errorf("creating table %s: %w", name, err)
	}

	b.logger.Debug("table ready", "table", name)
	return &Store{name: name, table: table, pool: b.pool, logger: b.logger.With("store", name)}, nil
}

// Close closes the connection pool.
func (b *Backend) Close() error {
	b.pool.Close()
	b.logger.Info("closed PostgreSQL connection pool")
	return nil
}

// Store is one table of the database.
type Store struct {
	name   string
	table  string
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Append inserts record as a new row. Amounts travel as text so no precision
// is lost between decimal.Decimal and NUMERIC.
func (s *Store) Append(ctx context.Context, record api.Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, kind, amount, bank_name, account_number, beneficiary_number, recorded_at)
		VALUES ($1, $2, $3::text::numeric, $4, $5, $6, $7)
	`, s.table)

	_, err := s.pool.Exec(ctx, query,
		record.ID,
		string(record.Kind),
		record.Amount.String(),
		record.BankName,
		record.AccountNumber,
		record.BeneficiaryNumber,
		// TIMESTAMPTZ keeps microseconds and would otherwise round.
		record.RecordedAt.Truncate(time.Microsecond),
	)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}

	s.logger.Debug("appended record", "id", record.ID)
	return nil
}

// LoadAll returns the rows in insertion order.
func (s *Store) LoadAll(ctx context.Context) ([]api.Record, error) {
	query := fmt.Sprintf(`
		SELECT id, kind, amount::text, bank_name, account_number, beneficiary_number, recorded_at
		FROM %s ORDER BY seq
	`, s.table)

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (api.Record, error) {
		var (
			r      api.Record
			kind   string
			amount string
		)
		if err := row.Scan(&r.ID, &kind, &amount, &r.BankName, &r.AccountNumber, &r.BeneficiaryNumber, &r.RecordedAt); err != nil {
			return api.Record{}, err
		}
		r.Kind = api.Kind(kind)
		r.RecordedAt = r.RecordedAt.UTC()

		var err error
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return api.Record{}, fmt.Errorf("record %s amount: %w: %v", r.ID, api.ErrCorruptStore, err)
		}
		return r, nil
	})
	if err != nil {
		return nil, fmt.Errorf("collecting records: %w", err)
	}
	return records, nil
}
