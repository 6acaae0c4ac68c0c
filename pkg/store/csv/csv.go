// Package csv implements a Backend that keeps each store in a CSV file.
package csv

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ArionMiles/voiceledger/pkg/api"
	"github.com/ArionMiles/voiceledger/pkg/store/appendfile"
	"github.com/ArionMiles/voiceledger/pkg/store/filelock"
)

// Extension is the file extension of store files.
const Extension = ".csv"

// Headers is the header row of every store file.
var Headers = []string{"ID", "Kind", "Amount", "BankName", "AccountNumber", "BeneficiaryNumber", "RecordedAt"}

// Config holds configuration for the CSV backend.
type Config struct {
	// Dir is the directory store files live in. It is created if missing.
	Dir string
}

// Backend opens one CSV file per store inside a directory.
type Backend struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// New creates a CSV backend rooted at cfg.Dir.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("dir is required")
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	logger.Info("csv backend initialized", "dir", cfg.Dir)
	return &Backend{
		dir:    cfg.Dir,
		logger: logger,
		stores: make(map[string]*Store),
	}, nil
}

// Store returns the store for name.
func (b *Backend) Store(_ context.Context, name string) (api.Store, error) {
	if err := api.ValidateStoreName(name); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.stores[name]; ok {
		return s, nil
	}

	path := filepath.Join(b.dir, name+Extension)
	s := &Store{
		name:   name,
		path:   path,
		lock:   filelock.New(path + ".lock"),
		logger: b.logger.With("store", name),
	}
	b.stores[name] = s
	return s, nil
}

// Close releases nothing; files are opened per operation.
func (b *Backend) Close() error {
	return nil
}

// Store is a single CSV file with a header row and one row per record.
type Store struct {
	name   string
	path   string
	lock   *filelock.Lock
	logger *slog.Logger
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Path returns the path of the backing file.
func (s *Store) Path() string {
	return s.path
}

// Append writes record as one row, preceded by the header row if the file is
// new.
func (s *Store) Append(ctx context.Context, record api.Record) error {
	return s.lock.Exclusive(ctx, func() error {
		f, size, err := appendfile.Open(s.path)
		if err != nil {
			return fmt.Errorf("opening csv store: %w", err)
		}

		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if size == 0 {
			_ = w.Write(Headers)
		}
		_ = w.Write(MarshalRow(record))
		w.Flush()
		if err := w.Error(); err != nil {
			_ = f.Close()
			return fmt.Errorf("encoding csv row: %w", err)
		}

		if _, err := f.Write(buf.Bytes()); err != nil {
			if closeErr := f.Close(); closeErr != nil {
				return fmt.Errorf("writing csv row: %w (close error: %w)", err, closeErr)
			}
			return fmt.Errorf("writing csv row: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing csv store: %w", err)
		}

		s.logger.Debug("appended record", "id", record.ID)
		return nil
	})
}

// LoadAll reads every row of the file. A missing or empty file yields no
// records, and a missing one is not created; a wrong header or unparseable
// row yields api.ErrCorruptStore.
func (s *Store) LoadAll(ctx context.Context) ([]api.Record, error) {
	records := []api.Record{}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return records, nil
	}

	err := s.lock.Shared(ctx, func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("reading csv store: %w", err)
		}
		if len(data) == 0 {
			return nil
		}

		r := csv.NewReader(bytes.NewReader(data))
		r.FieldsPerRecord = len(Headers)

		header, err := r.Read()
		if err != nil {
			return fmt.Errorf("reading header: %w: %v", api.ErrCorruptStore, err)
		}
		if !slices.Equal(header, Headers) {
			return fmt.Errorf("unexpected header %v: %w", header, api.ErrCorruptStore)
		}

		for {
			row, err := r.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading row: %w: %v", api.ErrCorruptStore, err)
			}

			record, err := UnmarshalRow(row)
			if err != nil {
				line, _ := r.FieldPos(0)
				return fmt.Errorf("line %d: %w: %v", line, api.ErrCorruptStore, err)
			}
			records = append(records, record)
		}
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// MarshalRow converts r to a row in Headers order. Zero account and
// beneficiary numbers are left empty.
func MarshalRow(r api.Record) []string {
	row := []string{r.ID, string(r.Kind), r.Amount.String(), r.BankName, "", "", r.RecordedAt.Format(time.RFC3339Nano)}
	if r.AccountNumber != 0 {
		row[4] = strconv.FormatInt(r.AccountNumber, 10)
	}
	if r.BeneficiaryNumber != 0 {
		row[5] = strconv.FormatInt(r.BeneficiaryNumber, 10)
	}
	return row
}

// UnmarshalRow parses a row produced by MarshalRow.
func UnmarshalRow(row []string) (api.Record, error) {
	if len(row) != len(Headers) {
		return api.Record{}, fmt.Errorf("expected %d fields, got %d", len(Headers), len(row))
	}
	amount, err := decimal.NewFromString(row[2])
	if err != nil {
		return api.Record{}, fmt.Errorf("amount: %w", err)
	}
	account, err := optionalInt(row[4])
	if err != nil {
		return api.Record{}, fmt.Errorf("account number: %w", err)
	}
	beneficiary, err := optionalInt(row[5])
	if err != nil {
		return api.Record{}, fmt.Errorf("beneficiary number: %w", err)
	}
	recordedAt, err := time.Parse(time.RFC3339Nano, row[6])
	if err != nil {
		return api.Record{}, fmt.Errorf("recorded at: %w", err)
	}

	return api.Record{
		ID:                row[0],
		Kind:              api.Kind(row[1]),
		Amount:            amount,
		BankName:          row[3],
		AccountNumber:     account,
		BeneficiaryNumber: beneficiary,
		RecordedAt:        recordedAt,
	}, nil
}

func optionalInt(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
