// Package telegram is the employee-facing Telegram bot: registration,
// test links, results, HR statistics and the advisor chat. It also
// delivers the scheduled reminders and tips as a reminder.Notifier.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nyashahama/burnout-detector-backend/internal/advisor"
	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

// ─── DEPENDENCIES ─────────────────────────────────────────────────────────────

// Sender is the part of *tgbotapi.BotAPI the bot uses. Tests record the
// outgoing messages instead.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Store is the subset of *store.Store the bot calls.
type Store interface {
	RegisterTelegramUser(ctx context.Context, p store.TelegramUserParams) (db.User, error)
	LatestResult(ctx context.Context, employeeID string) (db.TestResult, error)
	EmployeeHistories(ctx context.Context) ([]stats.EmployeeHistory, error)
	SetNotifications(ctx context.Context, employeeID string, enabled bool) (db.User, error)
}

// Querier is the subset of db.Querier the bot calls.
type Querier interface {
	ListAdminChatIDs(ctx context.Context) ([]int64, error)
	InsertChatMessage(ctx context.Context, arg db.InsertChatMessageParams) (db.ChatMessage, error)
}

// Config holds the bot's presentation settings.
type Config struct {
	// WebAppURL is opened by the "take the test" buttons.
	WebAppURL string
	// BotUsername is shown in the DM hint for group chats.
	BotUsername string
	// StatsWindow is the look-back of the /stats recent test count.
	StatsWindow time.Duration
}

// ─── BOT ──────────────────────────────────────────────────────────────────────

// Bot handles updates and sends notifications.
type Bot struct {
	api     Sender
	store   Store
	q       Querier
	advisor advisor.Advisor
	cfg     Config
	logger  *slog.Logger

	tipIdx atomic.Uint64
	now    func() time.Time
}

// New constructs a Bot.
func New(api Sender, st Store, q Querier, adv advisor.Advisor, cfg Config, logger *slog.Logger) *Bot {
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 30 * 24 * time.Hour
	}
	return &Bot{
		api:     api,
		store:   st,
		q:       q,
		advisor: adv,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Run handles updates until ctx is cancelled or the channel is closed. Each
// update is handled on its own goroutine so a slow advisor reply does not
// hold up other chats.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	b.logger.Info("telegram: bot started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("telegram: bot stopped")
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			go b.HandleUpdate(ctx, u)
		}
	}
}

// HandleUpdate dispatches one update. Only messages are handled.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	msg := u.Message
	if msg == nil || msg.Chat == nil {
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("telegram: panic handling update", "panic", rec, "chat_id", msg.Chat.ID)
		}
	}()

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	if msg.Text != "" {
		b.handleText(ctx, msg)
	}
}

// ─── SENDING ──────────────────────────────────────────────────────────────────

func (b *Bot) send(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		b.logger.Error("telegram: send failed", "chat_id", chatID, "error", err)
	}
	return err
}

func (b *Bot) sendWithButton(chatID int64, text, button string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(button, b.cfg.WebAppURL)),
	)
	_, err := b.api.Send(msg)
	return err
}

// isBadRequest reports whether Telegram rejected the request with HTTP 400,
// which is what an unusable button URL produces.
func isBadRequest(err error) bool {
	var tgErr *tgbotapi.Error
	return errors.As(err, &tgErr) && tgErr.Code == 400
}

func employeeID(chatID int64) string { return strconv.FormatInt(chatID, 10) }
