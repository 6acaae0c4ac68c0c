package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	b, err := New(Config{Path: filepath.Join(t.TempDir(), "ledger.db")}, nil)
	require.NoError(t, err)
	defer b.Close()

	s, err := b.Store(ctx, "money_transfer")
	require.NoError(t, err)

	records, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	want := api.Record{
		ID:            "7b0f",
		Kind:          api.KindMoneyTransfer,
		Amount:        decimal.RequireFromString("5000"),
		BankName:      "UBA",
		AccountNumber: 1234567890,
		RecordedAt:    time.Date(2026, 10, 18, 9, 0, 0, 123, time.UTC),
	}
	require.NoError(t, s.Append(ctx, want))

	second := want
	second.ID = "8c1a"
	second.Amount = decimal.RequireFromString("75")
	require.NoError(t, s.Append(ctx, second))

	records, err = s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "7b0f", records[0].ID)
	assert.Equal(t, "5000", records[0].Amount.String())
	assert.Equal(t, "UBA", records[0].BankName)
	assert.Equal(t, int64(1234567890), records[0].AccountNumber)
	assert.True(t, want.RecordedAt.Equal(records[0].RecordedAt))
	assert.Equal(t, "8c1a", records[1].ID)

	// Duplicate IDs are rejected rather than silently overwritten.
	require.Error(t, s.Append(ctx, want))
}

func TestStore_SeparateTables(t *testing.T) {
	ctx := context.Background()
	b, err := New(Config{Path: ":memory:"}, nil)
	require.NoError(t, err)
	defer b.Close()

	transfers, err := b.Store(ctx, "money_transfer")
	require.NoError(t, err)
	topups, err := b.Store(ctx, "airtime_topup")
	require.NoError(t, err)

	require.NoError(t, topups.Append(ctx, api.Record{
		ID:                "t1",
		Kind:              api.KindAirtimeTopup,
		Amount:            decimal.NewFromInt(500),
		BeneficiaryNumber: 8011112222,
	}))

	got, err := transfers.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = topups.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(8011112222), got[0].BeneficiaryNumber)
}

func TestStore_CorruptRow(t *testing.T) {
	ctx := context.Background()
	b, err := New(Config{Path: ":memory:"}, nil)
	require.NoError(t, err)
	defer b.Close()

	s, err := b.Store(ctx, "money_transfer")
	require.NoError(t, err)

	_, err = b.db.ExecContext(ctx, `INSERT INTO "money_transfer" (id, kind, amount, recorded_at) VALUES ('x', 'money_transfer', 'lots', 'now')`)
	require.NoError(t, err)

	_, err = s.LoadAll(ctx)
	require.ErrorIs(t, err, api.ErrCorruptStore)
}

func TestStore_InvalidName(t *testing.T) {
	b, err := New(Config{Path: ":memory:"}, nil)
	require.NoError(t, err)
	defer b.Close()

	_, err = b.Store(context.Background(), `x"; DROP TABLE y; --`)
	require.Error(t, err)
}
