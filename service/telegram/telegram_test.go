package telegram

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/brojonat/cobuy/service/aggregator"
	"github.com/brojonat/cobuy/service/metadata"
	"github.com/brojonat/cobuy/service/ranking"
	"github.com/brojonat/cobuy/service/signal"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	err  error
	sent []*bot.SendMessageParams
}

func (f *fakeSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	f.sent = append(f.sent, params)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Message{ID: len(f.sent)}, nil
}

type fakeReporter struct {
	report *ranking.Report
	err    error
	lastK  int
}

func (f *fakeReporter) Report(ctx context.Context, k int) (*ranking.Report, error) {
	f.lastK = k
	return f.report, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMessage() signal.Message {
	snap := aggregator.Snapshot{
		TokenID: "MINT1",
		Buyers:  map[string]decimal.Decimal{"W1": decimal.RequireFromString("1.2")},
	}
	return signal.Render(signal.NewAlert(snap, metadata.UnknownToken("MINT1"), time.Now()), "")
}

func TestNotifier_Notify(t *testing.T) {
	sender := &fakeSender{}
	n := NewNotifier(sender, "-1001234")

	require.NoError(t, n.Notify(context.Background(), testMessage()))
	require.Len(t, sender.sent, 1)

	params := sender.sent[0]
	assert.Equal(t, int64(-1001234), params.ChatID)
	assert.Equal(t, models.ParseModeHTML, params.ParseMode)
	require.NotNil(t, params.LinkPreviewOptions)
	require.NotNil(t, params.LinkPreviewOptions.IsDisabled)
	assert.True(t, *params.LinkPreviewOptions.IsDisabled)
	assert.Contains(t, params.Text, "<b>1 Wallets Have Bought Unknown (???)</b>")
	assert.Equal(t, "telegram", n.Name())
}

func TestNotifier_Username(t *testing.T) {
	sender := &fakeSender{}
	require.NoError(t, NewNotifier(sender, "@cobuy_alerts").Notify(context.Background(), testMessage()))
	assert.Equal(t, "@cobuy_alerts", sender.sent[0].ChatID)
}

func TestNotifier_Error(t *testing.T) {
	sender := &fakeSender{err: errors.New("Forbidden: bot is not a member")}
	err := NewNotifier(sender, "@c").Notify(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot is not a member")
}

func topUpdate(text string) *models.Update {
	return &models.Update{Message: &models.Message{Text: text, Chat: models.Chat{ID: 42}}}
}

func TestHandleTop(t *testing.T) {
	reporter := &fakeReporter{report: &ranking.Report{
		Considered: 1,
		Entries: []ranking.Entry{{
			Rank: 1, TokenAddress: "MINT1", TokenName: "Dog", TokenSymbol: "DOG",
			MarketCapAtSignal: 100000, CurrentMarketCap: 450000, Multiple: 4.5,
		}},
	}}
	sender := &fakeSender{}
	cmds := NewCommands(reporter, 10, testLogger())

	cmds.handleTop(context.Background(), sender, topUpdate("/top"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, int64(42), sender.sent[0].ChatID)
	assert.Contains(t, sender.sent[0].Text, "Dog (DOG) x4.50")
	assert.Equal(t, 10, reporter.lastK)
}

func TestHandleTop_EmptyState(t *testing.T) {
	sender := &fakeSender{}
	cmds := NewCommands(&fakeReporter{report: &ranking.Report{}}, 10, testLogger())

	cmds.handleTop(context.Background(), sender, topUpdate("/top"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, ranking.NoSignalsMessage, sender.sent[0].Text)
}

func TestHandleTop_ReporterError(t *testing.T) {
	sender := &fakeSender{}
	cmds := NewCommands(&fakeReporter{err: errors.New("db down")}, 10, testLogger())

	cmds.handleTop(context.Background(), sender, topUpdate("/top"))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, "Ranking is unavailable right now.", sender.sent[0].Text)
}

func TestHandleTop_IgnoresNonMessageUpdates(t *testing.T) {
	sender := &fakeSender{}
	cmds := NewCommands(&fakeReporter{report: &ranking.Report{}}, 10, testLogger())

	cmds.handleTop(context.Background(), sender, &models.Update{})
	assert.Empty(t, sender.sent)
}

func TestParseTopArg(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"/top", 10},
		{"/top 5", 5},
		{"/top@cobuy_bot 3", 3},
		{"/top zero", 10},
		{"/top -2", 10},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, parseTopArg(tt.text, 10))
		})
	}
}

func TestIsTopCommand(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"/top", true},
		{"/top 5", true},
		{"/top@cobuy_bot", true},
		{"/top@cobuy_bot 3", true},
		{"  /top  ", true},
		{"/tops", false},
		{"/topology", false},
		{"show /top", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			update := &models.Update{Message: &models.Message{Text: tt.text}}
			assert.Equal(t, tt.want, isTopCommand(update))
		})
	}

	assert.False(t, isTopCommand(&models.Update{}))
	assert.False(t, isTopCommand(nil))
}
