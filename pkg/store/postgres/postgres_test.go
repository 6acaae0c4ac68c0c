package postgres

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

// TestNew_ConnectionFailure tests that the backend returns an error when connection fails.
func TestNew_ConnectionFailure(t *testing.T) {
	cfg := Config{
		Host:     "nonexistent-host.invalid",
		Database: "voiceledger",
		User:     "voiceledger",
		Password: "password",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := New(ctx, cfg, slog.New(slog.NewTextHandler(os.Stdout, nil)))
	require.Error(t, err)
}

func TestConfig_ConnString(t *testing.T) {
	got := Config{Host: "db", Database: "ledger", User: "u", Password: "p"}.connString()
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=ledger sslmode=disable", got)

	got = Config{URL: "postgres://u:p@db/ledger", Host: "ignored"}.connString()
	assert.Equal(t, "postgres://u:p@db/ledger", got)
}

// startPostgres runs a throwaway PostgreSQL container. It needs a Docker
// daemon, so it only runs when VOICELEDGER_TEST_DOCKER is set.
func startPostgres(t *testing.T) string {
	t.Helper()
	if os.Getenv("VOICELEDGER_TEST_DOCKER") == "" {
		t.Skip("VOICELEDGER_TEST_DOCKER not set, skipping integration test")
	}

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("voiceledger"),
		tcpostgres.WithUsername("voiceledger"),
		tcpostgres.WithPassword("password"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := ctr.Terminate(context.Background()); err != nil {
			t.Logf("terminating container: %v", err)
		}
	})

	url, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return url
}

func TestStore_RoundTrip(t *testing.T) {
	url := startPostgres(t)
	ctx := context.Background()

	b, err := New(ctx, Config{URL: url}, nil)
	require.NoError(t, err)
	defer b.Close()

	transfers, err := b.Store(ctx, "money_transfer")
	require.NoError(t, err)
	topups, err := b.Store(ctx, "airtime_topup")
	require.NoError(t, err)

	records, err := transfers.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	want := api.Record{
		ID:            "0b7d5a8e-6b0e-4a44-9f0a-3c2d1e0f9a11",
		Kind:          api.KindMoneyTransfer,
		Amount:        decimal.RequireFromString("5000"),
		BankName:      "UBA",
		AccountNumber: 1234567890,
		RecordedAt:    time.Date(2026, 10, 18, 9, 0, 0, 123456000, time.UTC),
	}
	require.NoError(t, transfers.Append(ctx, want))
	require.NoError(t, topups.Append(ctx, api.Record{
		ID:                "5e9f3f6c-54a7-4f32-8d0c-2f0b4b8c7d22",
		Kind:              api.KindAirtimeTopup,
		Amount:            decimal.NewFromInt(500),
		BeneficiaryNumber: 8011112222,
		RecordedAt:        want.RecordedAt,
	}))

	records, err = transfers.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, want.ID, records[0].ID)
	assert.Equal(t, "5000", records[0].Amount.String())
	assert.Equal(t, "UBA", records[0].BankName)
	assert.Equal(t, int64(1234567890), records[0].AccountNumber)
	assert.Equal(t, want.RecordedAt, records[0].RecordedAt)

	records, err = topups.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(8011112222), records[0].BeneficiaryNumber)
}
