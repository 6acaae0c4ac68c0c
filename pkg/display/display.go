// Package display renders ledger views and conversations for the terminal.
package display

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ArionMiles/voiceledger/pkg/api"
	"github.com/ArionMiles/voiceledger/pkg/conversation"
)

// NoData is shown in place of a table when a store has no records.
const NoData = "No data found in the database."

// TimeFormat is the layout of the Recorded At column.
const TimeFormat = "2006-01-02 15:04:05"

// columns returns the header row for a kind.
func columns(kind api.Kind) []string {
	switch kind {
	case api.KindMoneyTransfer:
		return []string{"Amount", "Bank", "Account Number", "Recorded At"}
	case api.KindAirtimeTopup:
		return []string{"Amount", "Beneficiary Number", "Recorded At"}
	default:
		return []string{"Amount", "Recorded At"}
	}
}

func row(kind api.Kind, r api.Record) []string {
	recordedAt := r.RecordedAt.UTC().Format(TimeFormat)
	switch kind {
	case api.KindMoneyTransfer:
		return []string{r.Amount.String(), r.BankName, strconv.FormatInt(r.AccountNumber, 10), recordedAt}
	case api.KindAirtimeTopup:
		return []string{r.Amount.String(), strconv.FormatInt(r.BeneficiaryNumber, 10), recordedAt}
	default:
		return []string{r.Amount.String(), recordedAt}
	}
}

// Title returns the human-readable name of a kind, e.g. "Money Transfer".
func Title(kind api.Kind) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(kind), "_", " "))
}

// Records renders view as a titled table. A warning, if any, is shown above
// the table; an empty view renders NoData.
func Records(view api.View) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(Title(view.Kind)))
	b.WriteString("\n")

	if view.Warning != "" {
		b.WriteString(WarningStyle.Render("Warning: " + view.Warning))
		b.WriteString("\n")
	}

	if len(view.Records) == 0 {
		b.WriteString(SubtleStyle.Render(NoData))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, 0, len(view.Records))
	for _, r := range view.Records {
		rows = append(rows, row(view.Kind, r))
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(SubtleStyle).
		Headers(columns(view.Kind)...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return TableHeaderStyle
			}
			return TableCellStyle
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// Conversation renders every turn as a "User:" line followed by an
// "Assistant:" line.
func Conversation(conv conversation.Conversation) string {
	if conv.Len() == 0 {
		return SubtleStyle.Render("No messages yet.") + "\n"
	}

	var b strings.Builder
	for _, turn := range conv.Turns {
		b.WriteString(UserStyle.Render("User:"))
		b.WriteString(" ")
		b.WriteString(turn.User)
		b.WriteString("\n")
		b.WriteString(AssistantStyle.Render("Assistant:"))
		b.WriteString(" ")
		b.WriteString(turn.Assistant)
		b.WriteString("\n")
	}
	return b.String()
}

// Reply renders a single assistant reply.
func Reply(text string) string {
	return AssistantStyle.Render("Assistant:") + " " + text + "\n"
}
