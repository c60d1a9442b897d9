// Package telegram delivers alerts to a Telegram channel and answers chat
// commands.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/brojonat/cobuy/service/ranking"
	"github.com/brojonat/cobuy/service/signal"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
)

// Sender is the part of *bot.Bot used to post messages.
type Sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Notifier posts rendered alerts to a channel.
type Notifier struct {
	sender    Sender
	channelID string
}

// NewNotifier creates a Notifier posting to channelID, which is either a
// numeric chat id or an @channel username.
func NewNotifier(sender Sender, channelID string) *Notifier {
	return &Notifier{sender: sender, channelID: channelID}
}

func (n *Notifier) Name() string { return "telegram" }

// Notify implements signal.Notifier.
func (n *Notifier) Notify(ctx context.Context, msg signal.Message) error {
	_, err := n.sender.SendMessage(ctx, htmlMessage(chatID(n.channelID), msg.HTML))
	if err != nil {
		return fmt.Errorf("send to %s: %w", n.channelID, err)
	}
	return nil
}

func htmlMessage(chat any, text string) *bot.SendMessageParams {
	return &bot.SendMessageParams{
		ChatID:             chat,
		Text:               text,
		ParseMode:          models.ParseModeHTML,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	}
}

// chatID passes numeric ids as integers and usernames through unchanged.
func chatID(s string) any {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id
	}
	return s
}

// Reporter builds ranking reports.
type Reporter interface {
	Report(ctx context.Context, k int) (*ranking.Report, error)
}

// Commands answers chat commands. It only reads persisted state.
type Commands struct {
	reporter Reporter
	topK     int
	logger   *slog.Logger
}

// NewCommands creates the command handlers.
func NewCommands(reporter Reporter, topK int, logger *slog.Logger) *Commands {
	return &Commands{reporter: reporter, topK: topK, logger: logger}
}

// HandleTop answers "/top [k]" with the ranking report.
func (c *Commands) HandleTop(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handleTop(ctx, b, update)
}

func (c *Commands) handleTop(ctx context.Context, sender Sender, update *models.Update) {
	if update == nil || update.Message == nil {
		return
	}
	chat := update.Message.Chat.ID

	k := parseTopArg(update.Message.Text, c.topK)
	report, err := c.reporter.Report(ctx, k)

	text := ""
	if err != nil {
		c.logger.ErrorContext(ctx, "ranking report failed", "chat_id", chat, "error", err)
		text = "Ranking is unavailable right now."
	} else {
		text = report.Text()
	}

	if _, err := sender.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:             chat,
		Text:               text,
		LinkPreviewOptions: &models.LinkPreviewOptions{IsDisabled: bot.True()},
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to reply to command", "command", "/top", "chat_id", chat, "error", err)
	}
}

// isTopCommand matches "/top" and "/top@botname" as the command word, with or
// without arguments. "/tops" and "/topology" do not match.
func isTopCommand(update *models.Update) bool {
	if update == nil || update.Message == nil {
		return false
	}
	fields := strings.Fields(update.Message.Text)
	if len(fields) == 0 {
		return false
	}
	return fields[0] == "/top" || strings.HasPrefix(fields[0], "/top@")
}

// parseTopArg reads the optional count from "/top 5" or "/top@bot 5".
func parseTopArg(text string, fallback int) int {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return fallback
	}
	k, err := strconv.Atoi(fields[1])
	if err != nil || k < 1 {
		return fallback
	}
	return k
}

// NewBot creates a bot with the command handlers registered. Updates are
// only processed once the returned bot's Start is called.
func NewBot(token string, cmds *Commands, logger *slog.Logger) (*bot.Bot, error) {
	b, err := bot.New(token,
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {}),
		bot.WithErrorsHandler(func(err error) {
			logger.Warn("telegram bot error", "error", err)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	b.RegisterHandlerMatchFunc(isTopCommand, cmds.HandleTop)

	return b, nil
}
