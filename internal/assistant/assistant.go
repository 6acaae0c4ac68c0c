// Package assistant runs one chat interaction: classify the user's text,
// record the transaction and compose a reply.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ArionMiles/voiceledger/pkg/api"
	"github.com/ArionMiles/voiceledger/pkg/classifier"
	"github.com/ArionMiles/voiceledger/pkg/conversation"
	"github.com/ArionMiles/voiceledger/pkg/ledger"
)

// Replies that do not depend on the transaction.
const (
	ReplyNotUnderstood = "Sorry, I could not understand your audio."
	ReplyNoTransaction = "Sorry, I could not find a transaction in your message."
)

const (
	replyProcessing   = "Your %s is being processed"
	replyInsufficient = "Insufficient numbers found for %s."
	replyCouldNotSave = "Sorry, your transaction could not be saved: %v"
	warnCouldNotLoad  = "Could not load %s: %v"
)

// ErrNoTranscriber is returned by HandleAudio when the assistant was built
// without a transcriber.
var ErrNoTranscriber = errors.New("no transcriber configured")

// Reply is the assistant's answer to one message.
type Reply struct {
	Text string
	// Kind is the classification of the message. It is empty when the
	// message was never classified.
	Kind api.Kind
	// Record is the stored record, nil when nothing was written.
	Record *api.Record
}

// Assistant ties the classifier, the ledger and an optional transcriber
// together. It keeps no conversation state of its own.
type Assistant struct {
	classifier  *classifier.Classifier
	ledger      *ledger.Ledger
	transcriber api.Transcriber
	logger      *slog.Logger
}

// New creates an assistant. transcriber may be nil, in which case HandleAudio
// fails with ErrNoTranscriber.
func New(c *classifier.Classifier, l *ledger.Ledger, transcriber api.Transcriber, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assistant{
		classifier:  c,
		ledger:      l,
		transcriber: transcriber,
		logger:      logger,
	}
}

// HandleText classifies text, records the transaction and returns conv with
// the new turn appended. Blank text returns conv unchanged and an empty reply.
func (a *Assistant) HandleText(ctx context.Context, conv conversation.Conversation, text string) (conversation.Conversation, Reply) {
	text = strings.TrimSpace(text)
	if text == "" {
		return conv, Reply{}
	}

	c := a.classifier.Classify(text)
	a.logger.Debug("classified message", "kind", c.Kind, "numbers", len(c.Numbers), "bank", c.BankName)

	reply := Reply{Kind: c.Kind}
	record, err := a.ledger.Record(ctx, c)
	switch {
	case err == nil:
		reply.Record = &record
		reply.Text = fmt.Sprintf(replyProcessing, cases.Title(language.English).String(label(c.Kind)))
	case errors.Is(err, api.ErrInsufficientData):
		if c.Kind.StoreName() == "" {
			reply.Text = ReplyNoTransaction
		} else {
			reply.Text = fmt.Sprintf(replyInsufficient, label(c.Kind))
		}
	default:
		a.logger.Error("failed to record transaction", "kind", c.Kind, "error", err)
		reply.Text = fmt.Sprintf(replyCouldNotSave, err)
	}

	return conv.Append(conversation.Turn{User: text, Assistant: reply.Text}), reply
}

// HandleAudio transcribes audio and handles the transcript like typed text.
// When nothing could be understood the reply says so and conv is returned
// unchanged. Transcription failures are returned to the caller.
func (a *Assistant) HandleAudio(ctx context.Context, conv conversation.Conversation, audio []byte) (conversation.Conversation, Reply, error) {
	if a.transcriber == nil {
		return conv, Reply{}, ErrNoTranscriber
	}

	text, err := a.transcriber.Transcribe(ctx, audio)
	if err != nil {
		return conv, Reply{}, fmt.Errorf("transcribing audio: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		a.logger.Info("no speech recognized", "bytes", len(audio))
		return conv, Reply{Text: ReplyNotUnderstood}, nil
	}

	conv, reply := a.HandleText(ctx, conv, text)
	return conv, reply, nil
}

// View loads the store for kind. Read failures, including corrupt stores,
// produce an empty view carrying a warning instead of an error.
func (a *Assistant) View(ctx context.Context, kind api.Kind) api.View {
	view := api.View{Kind: kind, Records: []api.Record{}}

	records, err := a.ledger.LoadAll(ctx, kind.StoreName())
	if err != nil {
		a.logger.Warn("failed to load store", "kind", kind, "error", err)
		view.Warning = fmt.Sprintf(warnCouldNotLoad, label(kind), err)
		return view
	}

	view.Records = records
	return view
}

// label renders a kind as lowercase words, e.g. "money transfer".
func label(k api.Kind) string {
	return strings.ReplaceAll(string(k), "_", " ")
}
