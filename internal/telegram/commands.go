package telegram

import (
	"context"
	"errors"
	"slices"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nyashahama/burnout-detector-backend/internal/db"
	"github.com/nyashahama/burnout-detector-backend/internal/stats"
	"github.com/nyashahama/burnout-detector-backend/internal/store"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	log := b.logger.With("chat_id", chatID, "command", msg.Command())
	log.Debug("telegram: command")

	// Everything except /start and /help needs a private chat.
	private := msg.Chat.IsPrivate()

	switch msg.Command() {
	case "start":
		b.handleStart(ctx, msg)
	case "help":
		if private {
			b.send(chatID, helpText)
		} else {
			b.send(chatID, dmHint(b.cfg.BotUsername))
		}
	case "test", "result", "stats", "stop", "resume":
		if !private {
			b.send(chatID, dmHint(b.cfg.BotUsername))
			return
		}
		switch msg.Command() {
		case "test":
			if err := b.sendWithButton(chatID, testPrompt, buttonTakeTest); err != nil {
				log.Error("telegram: send test button failed", "error", err)
			}
		case "result":
			b.handleResult(ctx, chatID)
		case "stats":
			b.handleStats(ctx, chatID)
		case "stop":
			b.setNotifications(ctx, chatID, false)
		case "resume":
			b.setNotifications(ctx, chatID, true)
		}
	default:
		b.send(chatID, unknownCommand)
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	firstName, lastName := "User", ""
	if msg.From != nil {
		if msg.From.FirstName != "" {
			firstName = msg.From.FirstName
		}
		lastName = msg.From.LastName
	}

	// Only private chats are employees; a group ID would be counted as one.
	if !msg.Chat.IsPrivate() {
		b.send(chatID, welcomeGroup(firstName, b.cfg.BotUsername))
		return
	}

	if _, err := b.store.RegisterTelegramUser(ctx, store.TelegramUserParams{
		ChatID:    chatID,
		FirstName: firstName,
		LastName:  lastName,
	}); err != nil {
		// The welcome still goes out; /start can be repeated.
		b.logger.Error("telegram: register user failed", "chat_id", chatID, "error", err)
	}
	if err := b.sendWithButton(chatID, welcomePrivate(firstName), buttonOpenApp); err != nil {
		b.logger.Error("telegram: send welcome failed", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleResult(ctx context.Context, chatID int64) {
	row, err := b.store.LatestResult(ctx, employeeID(chatID))
	switch {
	case errors.Is(err, store.ErrNoTestResults):
		b.send(chatID, noResultText)
	case err != nil:
		b.logger.Error("telegram: latest result failed", "chat_id", chatID, "error", err)
		b.send(chatID, errorText)
	default:
		b.send(chatID, formatResult(store.ResultFromRow(row), row.CreatedAt))
	}
}

func (b *Bot) handleStats(ctx context.Context, chatID int64) {
	admins, err := b.q.ListAdminChatIDs(ctx)
	if err != nil {
		b.logger.Error("telegram: list admins failed", "error", err)
		b.send(chatID, errorText)
		return
	}
	if !slices.Contains(admins, chatID) {
		b.send(chatID, notAdminText)
		return
	}

	histories, err := b.store.EmployeeHistories(ctx)
	if err != nil {
		b.logger.Error("telegram: load histories failed", "error", err)
		b.send(chatID, errorText)
		return
	}
	s := stats.Compute(histories, stats.Options{Now: b.now(), RecentWindow: b.cfg.StatsWindow})
	b.send(chatID, formatStats(s, b.cfg.StatsWindow))
}

func (b *Bot) setNotifications(ctx context.Context, chatID int64, enabled bool) {
	_, err := b.store.SetNotifications(ctx, employeeID(chatID), enabled)
	switch {
	case errors.Is(err, store.ErrUserNotFound):
		b.send(chatID, notRegisteredText)
	case err != nil:
		b.logger.Error("telegram: set notifications failed", "chat_id", chatID, "error", err)
		b.send(chatID, errorText)
	case enabled:
		b.send(chatID, resumedText)
	default:
		b.send(chatID, stoppedText)
	}
}

// handleText answers free text. Private chats get an advisor reply grounded
// on the latest result; group chats get the DM hint.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	if !msg.Chat.IsPrivate() {
		b.send(chatID, dmHint(b.cfg.BotUsername))
		return
	}

	id := employeeID(chatID)
	row, err := b.store.LatestResult(ctx, id)
	if errors.Is(err, store.ErrNoTestResults) {
		if err := b.sendWithButton(chatID, noResultText, buttonTakeTest); err != nil {
			b.logger.Error("telegram: send test button failed", "chat_id", chatID, "error", err)
		}
		return
	}
	if err != nil {
		b.logger.Error("telegram: latest result failed", "chat_id", chatID, "error", err)
		b.send(chatID, errorText)
		return
	}

	reply, err := b.advisor.Reply(ctx, store.ResultFromRow(row), msg.Text)
	if err != nil {
		b.logger.Error("telegram: advisor failed", "chat_id", chatID, "error", err)
		b.send(chatID, errorText)
		return
	}

	if _, err := b.q.InsertChatMessage(ctx, db.InsertChatMessageParams{
		EmployeeID: id,
		Message:    msg.Text,
		Response:   reply,
	}); err != nil {
		b.logger.Error("telegram: save chat message failed", "chat_id", chatID, "error", err)
	}
	b.send(chatID, reply)
}
