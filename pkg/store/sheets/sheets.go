// Package sheets implements a Backend that keeps each store in a tab of a
// Google Sheets spreadsheet.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/ArionMiles/voiceledger/pkg/api"
	"github.com/ArionMiles/voiceledger/pkg/store/csv"
)

// DefaultRetryDelay is the wait between attempts when the API rate limits us.
const DefaultRetryDelay = 30 * time.Second

// Config holds configuration for the Sheets backend.
type Config struct {
	// SheetTitle is the title for a new spreadsheet (if SheetID is empty).
	SheetTitle string
	// SheetID is the ID of an existing spreadsheet to use.
	SheetID string
	// RetryDelay is the delay between rate-limited attempts.
	// Defaults to DefaultRetryDelay.
	RetryDelay time.Duration
}

// Backend is a spreadsheet with one tab per store.
type Backend struct {
	client        *sheets.Service
	spreadsheetID string
	retryDelay    time.Duration
	logger        *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// New opens the spreadsheet named by cfg.SheetID, or creates one titled
// cfg.SheetTitle. opts are passed to the Sheets client, typically
// option.WithHTTPClient with an OAuth client.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...option.ClientOption) (*Backend, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.SheetID == "" && cfg.SheetTitle == "" {
		return nil, fmt.Errorf("either sheet id or sheet title is required")
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultRetryDelay
	}

	client, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	b := &Backend{
		client:     client,
		retryDelay: cfg.RetryDelay,
		logger:     logger,
		stores:     make(map[string]*Store),
	}

	spreadsheet, err := b.initSpreadsheet(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing spreadsheet: %w", err)
	}
	b.spreadsheetID = spreadsheet.SpreadsheetId

	logger.Info("sheets backend initialized", "spreadsheet_id", b.spreadsheetID)
	return b, nil
}

func (b *Backend) initSpreadsheet(ctx context.Context, cfg Config) (*sheets.Spreadsheet, error) {
	if cfg.SheetID != "" {
		spreadsheet, err := b.client.Spreadsheets.Get(cfg.SheetID).Context(ctx).Do()
		if err == nil {
			b.logger.Info("using existing spreadsheet", "title", spreadsheet.Properties.Title, "id", cfg.SheetID)
			return spreadsheet, nil
		}
		if cfg.SheetTitle == "" {
			return nil, fmt.Errorf("getting spreadsheet %s: %w", cfg.SheetID, err)
		}
		b.logger.Warn("failed to get spreadsheet, will create new one", "id", cfg.SheetID, "error", err)
	}

	spreadsheet, err := b.client.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{
			Title: cfg.SheetTitle,
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating spreadsheet: %w", err)
	}

	b.logger.Info("created new spreadsheet", "title", cfg.SheetTitle, "id", spreadsheet.SpreadsheetId)
	return spreadsheet, nil
}

// SpreadsheetID returns the ID of the spreadsheet being written to.
func (b *Backend) SpreadsheetID() string {
	return b.spreadsheetID
}

// Store returns the store for name, adding a tab with a header row if the
// spreadsheet does not have one yet.
func (b *Backend) Store(ctx context.Context, name string) (api.Store, error) {
	if err := api.ValidateStoreName(name); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s, ok := b.stores[name]; ok {
		return s, nil
	}

	if err := b.ensureTab(ctx, name); err != nil {
		return nil, err
	}

	s := &Store{
		name:          name,
		client:        b.client,
		spreadsheetID: b.spreadsheetID,
		retryDelay:    b.retryDelay,
		logger:        b.logger.With("store", name),
	}
	b.stores[name] = s
	return s, nil
}

func (b *Backend) ensureTab(ctx context.Context, name string) error {
	spreadsheet, err := b.client.Spreadsheets.Get(b.spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("getting spreadsheet: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == name {
			return nil
		}
	}

	_, err = b.client.Spreadsheets.BatchUpdate(b.spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: name},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("adding sheet %s: %w", name, err)
	}

	header := make([]any, len(csv.Headers))
	for i, h := range csv.Headers {
		header[i] = h
	}
	_, err = b.client.Spreadsheets.Values.Update(b.spreadsheetID, headerRange(name), &sheets.ValueRange{
		Values: [][]any{header},
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing headers: %w", err)
	}

	b.logger.Info("added sheet", "sheet", name)
	return nil
}

// Close releases nothing; the Sheets client holds no open resources.
func (b *Backend) Close() error {
	return nil
}

// Store is one tab of the spreadsheet: a header row and one row per record.
type Store struct {
	name          string
	client        *sheets.Service
	spreadsheetID string
	retryDelay    time.Duration
	logger        *slog.Logger

	mu sync.Mutex
}

// Name returns the store name.
func (s *Store) Name() string {
	return s.name
}

// Append adds record as a new row. Rate-limited requests are retried.
func (s *Store) Append(ctx context.Context, record api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := csv.MarshalRow(record)
	values := make([]any, len(row))
	for i, v := range row {
		values[i] = v
	}
	req := &sheets.ValueRange{Values: [][]any{values}}

	err := retry.Do(
		func() error {
			_, err := s.client.Spreadsheets.Values.Append(s.spreadsheetID, dataRange(s.name), req).
				ValueInputOption("RAW").
				InsertDataOption("INSERT_ROWS").
				Context(ctx).
				Do()
			return err
		},
		retry.RetryIf(func(err error) bool {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
				s.logger.Warn("rate limited, will retry", "error", err)
				return true
			}
			return false
		}),
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(s.retryDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("appending row to sheet: %w", err)
	}

	s.logger.Debug("appended record", "id", record.ID)
	return nil
}

// LoadAll reads every row of the tab. An empty tab yields no records; a
// wrong header or unparseable row yields api.ErrCorruptStore.
func (s *Store) LoadAll(ctx context.Context) ([]api.Record, error) {
	resp, err := s.client.Spreadsheets.Values.Get(s.spreadsheetID, dataRange(s.name)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet: %w", err)
	}

	records := []api.Record{}
	if len(resp.Values) == 0 {
		return records, nil
	}

	if header := cells(resp.Values[0]); !slices.Equal(header, csv.Headers) {
		return nil, fmt.Errorf("unexpected header %v: %w", header, api.ErrCorruptStore)
	}

	for i, raw := range resp.Values[1:] {
		row := cells(raw)
		// Trailing empty cells are omitted by the API.
		for len(row) < len(csv.Headers) {
			row = append(row, "")
		}
		record, err := csv.UnmarshalRow(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %v", i+2, api.ErrCorruptStore, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func cells(raw []any) []string {
	row := make([]string, len(raw))
	for i, v := range raw {
		row[i] = fmt.Sprint(v)
	}
	return row
}

func headerRange(name string) string {
	return fmt.Sprintf("%s!A1:G1", name)
}

func dataRange(name string) string {
	return fmt.Sprintf("%s!A1:G", name)
}
