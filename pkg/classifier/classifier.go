// Package classifier turns free-form utterances into transaction classifications.
package classifier

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ArionMiles/voiceledger/pkg/api"
)

// digitRun matches decimal digits in any script. Non-ASCII runs are kept as
// tokens so that the ledger rejects them instead of skipping to the next run.
var digitRun = regexp.MustCompile(`\p{Nd}+`)

// minNumbers is the number of digit runs a transaction needs: amount, then
// account or beneficiary number.
const minNumbers = 2

// Vocabulary holds the words the classifier recognizes.
type Vocabulary struct {
	// Banks are canonical bank names. Words inside a name may be separated
	// by any whitespace in the utterance.
	Banks []string `json:"banks"`
	// TransferKeywords signal intent to send money.
	TransferKeywords []string `json:"transferKeywords"`
	// AirtimeKeywords signal an airtime or data purchase.
	AirtimeKeywords []string `json:"airtimeKeywords"`
}

// DefaultVocabulary returns the built-in vocabulary.
func DefaultVocabulary() Vocabulary {
	return Vocabulary{
		Banks:            []string{"OPAY", "SMART PAY", "UBA", "ECO BANK"},
		TransferKeywords: []string{"transfer", "money"},
		AirtimeKeywords:  []string{"airtime", "card", "topup", "recharge", "data", "bundle"},
	}
}

// ParseVocabulary decodes a JSON vocabulary.
func ParseVocabulary(data []byte) (Vocabulary, error) {
	var v Vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("parsing vocabulary: %w", err)
	}
	return v, nil
}

// Classifier classifies utterances against a vocabulary.
type Classifier struct {
	bankPattern      *regexp.Regexp
	canonical        map[string]string
	transferKeywords []string
	airtimeKeywords  []string
}

// New compiles a classifier for the given vocabulary.
func New(vocab Vocabulary) (*Classifier, error) {
	if len(vocab.Banks) == 0 {
		return nil, fmt.Errorf("vocabulary has no banks")
	}

	alternatives := make([]string, 0, len(vocab.Banks))
	canonical := make(map[string]string, len(vocab.Banks))
	for _, bank := range vocab.Banks {
		words := strings.Fields(bank)
		if len(words) == 0 {
			return nil, fmt.Errorf("vocabulary has a blank bank name")
		}
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		alternatives = append(alternatives, strings.Join(quoted, `\s+`))
		canonical[normalize(bank)] = strings.Join(words, " ")
	}

	transfer, err := keywords(vocab.TransferKeywords, "transfer")
	if err != nil {
		return nil, err
	}
	airtime, err := keywords(vocab.AirtimeKeywords, "airtime")
	if err != nil {
		return nil, err
	}

	// Word boundaries are checked by bank, Unicode-aware.
	pattern, err := regexp.Compile(`(?i)(?:` + strings.Join(alternatives, "|") + `)`)
	if err != nil {
		return nil, fmt.Errorf("compiling bank pattern: %w", err)
	}

	return &Classifier{
		bankPattern:      pattern,
		canonical:        canonical,
		transferKeywords: transfer,
		airtimeKeywords:  airtime,
	}, nil
}

func keywords(in []string, kind string) ([]string, error) {
	if len(in) == 0 {
		return nil, fmt.Errorf("vocabulary has no %s keywords", kind)
	}
	out := make([]string, 0, len(in))
	for _, kw := range in {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			return nil, fmt.Errorf("vocabulary has a blank %s keyword", kind)
		}
		out = append(out, kw)
	}
	return out, nil
}

// normalize folds case and collapses whitespace so that "eco   bank" and
// "ECO BANK" map to the same canonical name.
func normalize(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Classify extracts digit runs and a bank name from text and decides which
// transaction, if any, it describes. It never fails.
func (c *Classifier) Classify(text string) api.Classification {
	result := api.Classification{
		Numbers: digitRun.FindAllString(text, -1),
		Kind:    api.KindUnclassified,
	}

	result.BankName = c.bank(text)

	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, c.transferKeywords) && result.BankName != "" && len(result.Numbers) >= minNumbers:
		result.Kind = api.KindMoneyTransfer
		result.Numbers = result.Numbers[:minNumbers]
	case containsAny(lower, c.airtimeKeywords) && len(result.Numbers) >= minNumbers:
		result.Kind = api.KindAirtimeTopup
		result.Numbers = result.Numbers[:minNumbers]
	}

	return result
}

// bank returns the canonical name of the first bank mentioned in text as a
// whole word, or "" if there is none.
func (c *Classifier) bank(text string) string {
	for _, loc := range c.bankPattern.FindAllStringIndex(text, -1) {
		before, _ := utf8.DecodeLastRuneInString(text[:loc[0]])
		after, _ := utf8.DecodeRuneInString(text[loc[1]:])
		if isWordRune(before) || isWordRune(after) {
			continue
		}
		return c.canonical[normalize(text[loc[0]:loc[1]])]
	}
	return ""
}

// isWordRune reports whether r can be part of a word. utf8.RuneError, which
// marks the start or end of text, is not.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
