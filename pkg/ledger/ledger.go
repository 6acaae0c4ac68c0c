// Package ledger writes classified transactions to their per-kind stores and
// reads them back.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

var digitsOnly = regexp.MustCompile(`^[0-9]+$`)

// Ledger routes records to one store per transaction kind.
type Ledger struct {
	stores map[string]api.Store
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator overrides the record ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) { l.newID = newID }
}

// New creates a ledger over the given stores, keyed by their names.
func New(stores []api.Store, logger *slog.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}

	l := &Ledger{
		stores: make(map[string]api.Store, len(stores)),
		logger: logger,
		now:    func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:  func() string { return uuid.NewString() },
	}
	for _, s := range stores {
		l.stores[s.Name()] = s
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record converts a classification into a record and appends it to the store
// for its kind. Unclassified or incomplete classifications fail with
// api.ErrInsufficientData and unparseable tokens with api.ErrMalformedNumber;
// in both cases no store is touched.
func (l *Ledger) Record(ctx context.Context, c api.Classification) (api.Record, error) {
	record, err := BuildRecord(c)
	if err != nil {
		return api.Record{}, err
	}
	record.ID = l.newID()
	record.RecordedAt = l.now()

	store, err := l.store(c.Kind.StoreName())
	if err != nil {
		return api.Record{}, err
	}

	if err := store.Append(ctx, record); err != nil {
		return api.Record{}, fmt.Errorf("appending to %s: %w", store.Name(), err)
	}

	l.logger.Info("recorded transaction",
		"store", store.Name(),
		"id", record.ID,
		"amount", record.Amount.String(),
	)
	return record, nil
}

// LoadAll returns every record in the named store. A store that has never
// been written to yields an empty slice.
func (l *Ledger) LoadAll(ctx context.Context, storeName string) ([]api.Record, error) {
	store, err := l.store(storeName)
	if err != nil {
		return nil, err
	}

	records, err := store.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", storeName, err)
	}
	if records == nil {
		records = []api.Record{}
	}

	l.logger.Debug("loaded records", "store", storeName, "count", len(records))
	return records, nil
}

func (l *Ledger) store(name string) (api.Store, error) {
	s, ok := l.stores[name]
	if !ok {
		return nil, fmt.Errorf("no store named %q", name)
	}
	return s, nil
}

// BuildRecord maps a classification onto the record layout of its kind:
// the first number is the amount, the second the account or beneficiary
// number. ID and RecordedAt are left for the caller to fill.
func BuildRecord(c api.Classification) (api.Record, error) {
	switch c.Kind {
	case api.KindMoneyTransfer:
		if len(c.Numbers) < 2 || c.BankName == "" {
			return api.Record{}, fmt.Errorf("money transfer needs an amount, account number and bank: %w", api.ErrInsufficientData)
		}
	case api.KindAirtimeTopup:
		if len(c.Numbers) < 2 {
			return api.Record{}, fmt.Errorf("airtime topup needs an amount and beneficiary number: %w", api.ErrInsufficientData)
		}
	default:
		return api.Record{}, fmt.Errorf("%s utterance: %w", kindLabel(c.Kind), api.ErrInsufficientData)
	}

	amount, err := parseAmount(c.Numbers[0])
	if err != nil {
		return api.Record{}, err
	}
	number, err := parseNumber(c.Numbers[1])
	if err != nil {
		return api.Record{}, err
	}

	record := api.Record{
		Kind:   c.Kind,
		Amount: amount,
	}
	if c.Kind == api.KindMoneyTransfer {
		record.BankName = c.BankName
		record.AccountNumber = number
	} else {
		record.BeneficiaryNumber = number
	}
	return record, nil
}

func kindLabel(k api.Kind) string {
	if k == "" {
		return "empty kind"
	}
	return string(k)
}

func parseAmount(token string) (decimal.Decimal, error) {
	if !digitsOnly.MatchString(token) {
		return decimal.Decimal{}, fmt.Errorf("amount %q: %w", token, api.ErrMalformedNumber)
	}
	amount, err := decimal.NewFromString(token)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("amount %q: %w", token, api.ErrMalformedNumber)
	}
	return amount, nil
}

func parseNumber(token string) (int64, error) {
	if !digitsOnly.MatchString(token) {
		return 0, fmt.Errorf("number %q: %w", token, api.ErrMalformedNumber)
	}
	n, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("number %q: %w", token, api.ErrMalformedNumber)
	}
	return n, nil
}
