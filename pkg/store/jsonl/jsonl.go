// Package jsonl implements a Backend that keeps each store in a JSON Lines file.
package jsonl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/ArionMiles/voiceledger/pkg/api"
	"github.com/ArionMiles/voiceledger/pkg/store/appendfile"
	"github.com/ArionMiles/voiceledger/pkg/store/filelock"
)

// Extension is the file extension of store files.
const Extension = ".jsonl"

// maxLineSize bounds a single record line when reading.
const maxLineSize = 1 << 20

// Config holds configuration for the JSON Lines backend.
type Config struct {
	// Dir is the directory store files live in. It is created if missing.
	Dir string
}

// Backend opens one JSON Lines file per store inside a directory.
type Backend struct {
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// New creates a JSON Lines backend rooted at cfg.Dir.
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

	logger.Info("jsonl backend initialized", "dir", cfg.Dir)
	return &Backend{
		dir:    cfg.Dir,
		logger: logger,
		stores: make(map[string]*Store),
	}, nil
}

// Store returns the store for name. Repeated calls return the same store so
// that all writes to one file share one write path.
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

// Store is a single JSON Lines file holding one record per line.
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

// Append writes record as a single line at the end of the file.
func (s *Store) Append(ctx context.Context, record api.Record) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshaling record: %w", err)
	}
	line = append(line, '\n')

	return s.lock.Exclusive(ctx, func() error {
		f, _, err := appendfile.Open(s.path)
		if err != nil {
			return fmt.Errorf("opening jsonl store: %w", err)
		}

		if _, err := f.Write(line); err != nil {
			if closeErr := f.Close(); closeErr != nil {
				return fmt.Errorf("writing record: %w (close error: %w)", err, closeErr)
			}
			return fmt.Errorf("writing record: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing jsonl store: %w", err)
		}

		s.logger.Debug("appended record", "id", record.ID)
		return nil
	})
}

// LoadAll reads every record in the file. A missing file yields no records
// and leaves the directory untouched; a line that is not a JSON record yields
// api.ErrCorruptStore.
func (s *Store) LoadAll(ctx context.Context) ([]api.Record, error) {
	var records []api.Record
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return []api.Record{}, nil
	}

	err := s.lock.Shared(ctx, func() error {
		data, err := os.ReadFile(s.path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return fmt.Errorf("reading jsonl store: %w", err)
		}

		records, err = decode(data)
		return err
	})
	if err != nil {
		return nil, err
	}

	if records == nil {
		records = []api.Record{}
	}
	return records, nil
}

func decode(data []byte) ([]api.Record, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var records []api.Record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var r api.Record
		if err := json.Unmarshal(line, &r); err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", lineNo, api.ErrCorruptStore, err)
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning: %w: %v", api.ErrCorruptStore, err)
	}
	return records, nil
}
