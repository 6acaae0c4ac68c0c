package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

func newDefault(t *testing.T) *Classifier {
	t.Helper()
	c, err := New(DefaultVocabulary())
	require.NoError(t, err)
	return c
}

func TestClassify(t *testing.T) {
	c := newDefault(t)

	tests := []struct {
		name        string
		text        string
		wantKind    api.Kind
		wantBank    string
		wantNumbers []string
	}{
		{
			name:        "money transfer to UBA",
			text:        "transfer 5000 to UBA account 1234567890",
			wantKind:    api.KindMoneyTransfer,
			wantBank:    "UBA",
			wantNumbers: []string{"5000", "1234567890"},
		},
		{
			name:        "airtime recharge",
			text:        "recharge 500 for 08011112222",
			wantKind:    api.KindAirtimeTopup,
			wantNumbers: []string{"500", "08011112222"},
		},
		{
			name:        "no numbers",
			text:        "hello there",
			wantKind:    api.KindUnclassified,
			wantNumbers: nil,
		},
		{
			name:        "money keyword and lowercase multi-word bank",
			text:        "send money 200 to eco   bank 0099887766 please 7",
			wantKind:    api.KindMoneyTransfer,
			wantBank:    "ECO BANK",
			wantNumbers: []string{"200", "0099887766"},
		},
		{
			name:        "money transfer takes priority over airtime",
			text:        "transfer 100 airtime to opay 5551234",
			wantKind:    api.KindMoneyTransfer,
			wantBank:    "OPAY",
			wantNumbers: []string{"100", "5551234"},
		},
		{
			name:        "transfer without bank falls through to airtime",
			text:        "transfer 100 data bundle to 08022223333",
			wantKind:    api.KindAirtimeTopup,
			wantNumbers: []string{"100", "08022223333"},
		},
		{
			name:        "single number is never classified",
			text:        "transfer 5000 to UBA",
			wantKind:    api.KindUnclassified,
			wantBank:    "UBA",
			wantNumbers: []string{"5000"},
		},
		{
			name:        "single number with airtime keyword",
			text:        "buy airtime 500",
			wantKind:    api.KindUnclassified,
			wantNumbers: []string{"500"},
		},
		{
			name:        "unclassified keeps all numbers",
			text:        "pay 1 2 3 to UBA",
			wantKind:    api.KindUnclassified,
			wantBank:    "UBA",
			wantNumbers: []string{"1", "2", "3"},
		},
		{
			name:        "bank name must be a whole word",
			text:        "transfer 10 to tubas 1234",
			wantKind:    api.KindUnclassified,
			wantNumbers: []string{"10", "1234"},
		},
		{
			name:        "decimals and commas split into separate runs",
			text:        "transfer 1,500.50 to smart pay 321",
			wantKind:    api.KindMoneyTransfer,
			wantBank:    "SMART PAY",
			wantNumbers: []string{"1", "500"},
		},
		{
			name:        "first bank wins",
			text:        "money 10 from uba to opay 20",
			wantKind:    api.KindMoneyTransfer,
			wantBank:    "UBA",
			wantNumbers: []string{"10", "20"},
		},
		{
			name:        "bank inside a non-ASCII word",
			text:        "transfer 500 to éuba 123",
			wantKind:    api.KindUnclassified,
			wantNumbers: []string{"500", "123"},
		},
		{
			name:        "bank glued to digits or underscore",
			text:        "transfer 500 to uba123 or _opay 9",
			wantKind:    api.KindUnclassified,
			wantNumbers: []string{"500", "123", "9"},
		},
		{
			name:        "later whole-word bank after a rejected one",
			text:        "transfer 500 from ñuba to uba 123",
			wantKind:    api.KindMoneyTransfer,
			wantBank:    "UBA",
			wantNumbers: []string{"500", "123"},
		},
		{
			name:        "bank followed by punctuation",
			text:        "transfer 500 to UBA, 123",
			wantKind:    api.KindMoneyTransfer,
			wantBank:    "UBA",
			wantNumbers: []string{"500", "123"},
		},
		{
			name:        "non-ASCII digits are tokens",
			text:        "transfer 500 to UBA ١٢٣ 77",
			wantKind:    api.KindMoneyTransfer,
			wantBank:    "UBA",
			wantNumbers: []string{"500", "١٢٣"},
		},
		{
			name:        "empty",
			text:        "",
			wantKind:    api.KindUnclassified,
			wantNumbers: nil,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(tc.text)
			assert.Equal(t, tc.wantKind, got.Kind)
			assert.Equal(t, tc.wantBank, got.BankName)
			assert.Equal(t, tc.wantNumbers, got.Numbers)
		})
	}
}

func TestClassify_FewerThanTwoNumbersAlwaysUnclassified(t *testing.T) {
	c := newDefault(t)

	for _, text := range []string{
		"transfer money to UBA account",
		"transfer 1 to UBA",
		"airtime card topup recharge data bundle 9",
		"money opay smart pay eco bank",
	} {
		t.Run(text, func(t *testing.T) {
			assert.Equal(t, api.KindUnclassified, c.Classify(text).Kind)
		})
	}
}

func TestNew_InvalidVocabulary(t *testing.T) {
	base := DefaultVocabulary()

	tests := []struct {
		name   string
		mutate func(v *Vocabulary)
		errMsg string
	}{
		{"no banks", func(v *Vocabulary) { v.Banks = nil }, "no banks"},
		{"blank bank", func(v *Vocabulary) { v.Banks = []string{"UBA", "  "} }, "blank bank"},
		{"no transfer keywords", func(v *Vocabulary) { v.TransferKeywords = nil }, "no transfer keywords"},
		{"blank airtime keyword", func(v *Vocabulary) { v.AirtimeKeywords = []string{""} }, "blank airtime keyword"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := base
			tc.mutate(&v)
			_, err := New(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestParseVocabulary(t *testing.T) {
	v, err := ParseVocabulary([]byte(`{
		"banks": ["Kuda", "First Bank"],
		"transferKeywords": ["send"],
		"airtimeKeywords": ["Airtime"]
	}`))
	require.NoError(t, err)

	c, err := New(v)
	require.NoError(t, err)

	got := c.Classify("send 300 to first bank 12345")
	assert.Equal(t, api.KindMoneyTransfer, got.Kind)
	assert.Equal(t, "First Bank", got.BankName)

	got = c.Classify("AIRTIME 50 for 0801")
	assert.Equal(t, api.KindAirtimeTopup, got.Kind)

	_, err = ParseVocabulary([]byte(`{"banks":`))
	require.Error(t, err)
}
