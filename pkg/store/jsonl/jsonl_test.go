package jsonl

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

func newStore(t *testing.T, name string) (*Store, string) {
	t.Helper()
	dir := t.TempDir()

	b, err := New(Config{Dir: dir}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	s, err := b.Store(context.Background(), name)
	require.NoError(t, err)
	return s.(*Store), dir
}

func transfer(id string) api.Record {
	return api.Record{
		ID:            id,
		Kind:          api.KindMoneyTransfer,
		Amount:        decimal.RequireFromString("5000"),
		BankName:      "UBA",
		AccountNumber: 1234567890,
		RecordedAt:    time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
}

func TestLoadAll_MissingStoreIsEmpty(t *testing.T) {
	s, dir := newStore(t, "money_transfer")

	records, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.NotNil(t, records)

	_, err = os.Stat(filepath.Join(dir, "money_transfer.jsonl"))
	assert.True(t, os.IsNotExist(err), "loading must not create the store file")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "loading must not create a lock file either")
}

func TestAppendThenLoadAll(t *testing.T) {
	s, _ := newStore(t, "money_transfer")
	ctx := context.Background()

	first := transfer("a")
	second := transfer("b")
	second.Amount = decimal.RequireFromString("12")
	second.BankName = "ECO BANK"

	require.NoError(t, s.Append(ctx, first))
	require.NoError(t, s.Append(ctx, second))

	records, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "5000", records[0].Amount.String())
	assert.Equal(t, "UBA", records[0].BankName)
	assert.Equal(t, int64(1234567890), records[0].AccountNumber)
	assert.True(t, first.RecordedAt.Equal(records[0].RecordedAt))

	assert.Equal(t, "b", records[1].ID)
	assert.Equal(t, "12", records[1].Amount.String())
	assert.Equal(t, "ECO BANK", records[1].BankName)
}

func TestAppend_OneRecordPerLine(t *testing.T) {
	s, _ := newStore(t, "airtime_topup")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Append(ctx, api.Record{
			ID:                fmt.Sprintf("r%d", i),
			Kind:              api.KindAirtimeTopup,
			Amount:            decimal.NewFromInt(500),
			BeneficiaryNumber: 8011112222,
		}))
	}

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Contains(t, line, `"beneficiary_number":8011112222`)
		assert.NotContains(t, line, "bank_name")
	}
}

func TestAppend_Concurrent(t *testing.T) {
	s, _ := newStore(t, "money_transfer")
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, s.Append(ctx, transfer(fmt.Sprintf("id-%d", i))))
		}(i)
	}
	wg.Wait()

	records, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, writers)
}

func TestLoadAll_Corrupt(t *testing.T) {
	s, _ := newStore(t, "money_transfer")
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, transfer("ok")))

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("{\"id\": \"half\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.LoadAll(ctx)
	require.ErrorIs(t, err, api.ErrCorruptStore)
	assert.Contains(t, err.Error(), "line 2")
}

func TestAppend_AfterPartialLine(t *testing.T) {
	s, _ := newStore(t, "money_transfer")
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, transfer("a")))

	// An interrupted write leaves a fragment with no trailing newline.
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString(`{"id":"torn","kind":"money_tr`)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, s.Append(ctx, transfer("b")))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)

	last, err := decode([]byte(lines[2]))
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "b", last[0].ID)

	// The fragment is still reported, but only the fragment.
	_, err = s.LoadAll(ctx)
	require.ErrorIs(t, err, api.ErrCorruptStore)
	assert.Contains(t, err.Error(), "line 2")

	repaired := lines[0] + "\n" + lines[2] + "\n"
	require.NoError(t, os.WriteFile(s.Path(), []byte(repaired), 0o600))

	records, err := s.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "a", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestLoadAll_SkipsBlankLines(t *testing.T) {
	s, _ := newStore(t, "money_transfer")
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, transfer("one")))
	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.WriteString("\n  \n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, s.Append(ctx, transfer("two")))

	records, err := s.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestBackend_Store(t *testing.T) {
	b, err := New(Config{Dir: t.TempDir()}, nil)
	require.NoError(t, err)

	ctx := context.Background()
	s1, err := b.Store(ctx, "money_transfer")
	require.NoError(t, err)
	s2, err := b.Store(ctx, "money_transfer")
	require.NoError(t, err)
	assert.Same(t, s1, s2)

	_, err = b.Store(ctx, "../escape")
	require.Error(t, err)

	_, err = New(Config{}, nil)
	require.Error(t, err)
}
