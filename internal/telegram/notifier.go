package telegram

import (
	"context"
	"fmt"
)

// SendTestReminder sends the retest reminder with a button. If Telegram
// rejects the button (HTTP 400) the plain-text variant is sent instead.
func (b *Bot) SendTestReminder(_ context.Context, chatID int64) error {
	err := b.sendWithButton(chatID, reminderText, buttonRetake)
	if err == nil {
		return nil
	}
	if !isBadRequest(err) {
		return fmt.Errorf("telegram: send reminder: %w", err)
	}
	b.logger.Warn("telegram: reminder button rejected, sending plain text", "chat_id", chatID, "error", err)
	if err := b.send(chatID, reminderPlainText); err != nil {
		return fmt.Errorf("telegram: send plain reminder: %w", err)
	}
	return nil
}

// SendTip sends the next tip from the rotation.
func (b *Bot) SendTip(_ context.Context, chatID int64) error {
	if err := b.send(chatID, b.nextTip()); err != nil {
		return fmt.Errorf("telegram: send tip: %w", err)
	}
	return nil
}

func (b *Bot) nextTip() string {
	i := b.tipIdx.Add(1) - 1
	return tips[i%uint64(len(tips))]
}
