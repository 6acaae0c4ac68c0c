// Package api defines the core interfaces and data structures for voiceledger.
package api

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the transaction an utterance describes.
type Kind string

const (
	// KindMoneyTransfer is a transfer of money to a bank account.
	KindMoneyTransfer Kind = "money_transfer"
	// KindAirtimeTopup is a phone airtime or data topup.
	KindAirtimeTopup Kind = "airtime_topup"
	// KindUnclassified means no transaction could be identified.
	KindUnclassified Kind = "unclassified"
)

// StoreName returns the name of the store records of this kind are appended to.
// Unclassified utterances have no store and return an empty string.
func (k Kind) StoreName() string {
	switch k {
	case KindMoneyTransfer, KindAirtimeTopup:
		return string(k)
	default:
		return ""
	}
}

// Kinds lists the kinds that are persisted, in display order.
func Kinds() []Kind {
	return []Kind{KindMoneyTransfer, KindAirtimeTopup}
}

// ParseKind maps a store name back to its kind.
func ParseKind(name string) (Kind, bool) {
	for _, k := range Kinds() {
		if string(k) == name {
			return k, true
		}
	}
	return "", false
}

// Ledger errors.
var (
	// ErrInsufficientData means the classification lacks the numbers or bank
	// name its kind needs.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrMalformedNumber means a numeric token could not be converted.
	ErrMalformedNumber = errors.New("malformed number")
	// ErrCorruptStore means a store exists but its contents cannot be parsed.
	ErrCorruptStore = errors.New("corrupt store")
)

// Classification is the result of classifying one utterance.
type Classification struct {
	// Numbers holds the digit runs of the utterance in order of appearance.
	Numbers []string
	// BankName is the canonical name of the recognized bank, empty if none.
	BankName string
	Kind     Kind
}

// Record is one persisted ledger entry.
// Money transfers set BankName and AccountNumber, airtime topups set
// BeneficiaryNumber.
type Record struct {
	ID                string          `json:"id"`
	Kind              Kind            `json:"kind"`
	Amount            decimal.Decimal `json:"amount"`
	BankName          string          `json:"bank_name,omitempty"`
	AccountNumber     int64           `json:"account_number,omitempty"`
	BeneficiaryNumber int64           `json:"beneficiary_number,omitempty"`
	RecordedAt        time.Time       `json:"recorded_at"`
}

// Store is a named, append-only collection of records.
// Implementations must serialize Append calls and keep every appended record
// independently parseable. LoadAll on a store that does not exist yet returns
// an empty slice.
type Store interface {
	Name() string
	Append(ctx context.Context, record Record) error
	LoadAll(ctx context.Context) ([]Record, error)
}

// Backend opens named stores that share one underlying resource, such as a
// directory, a database pool or a spreadsheet.
type Backend interface {
	// Store opens the named store, creating its table or tab if the backend
	// needs one. Names must match StoreNamePattern.
	Store(ctx context.Context, name string) (Store, error)
	Close() error
}

// StoreNamePattern is the set of valid store names. Backends use store names
// as file names, table names and sheet titles.
var StoreNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateStoreName reports whether name can be used as a store name.
func ValidateStoreName(name string) error {
	if !StoreNamePattern.MatchString(name) {
		return fmt.Errorf("invalid store name %q", name)
	}
	return nil
}

// Transcriber converts captured audio into lowercase text.
// Audio without recognizable speech yields an empty string and no error.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// View is the contents of one store prepared for display. A store that could
// not be read has no records and a non-empty Warning.
type View struct {
	Kind    Kind
	Records []Record
	Warning string
}
