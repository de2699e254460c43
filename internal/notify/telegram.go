package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the slice of tgbotapi.BotAPI used here.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSender posts alerts to one Telegram chat.
type TelegramSender struct {
	bot    botAPI
	chatID int64
}

// NewTelegramSender authenticates the bot token against the Telegram API.
func NewTelegramSender(token string, chatID int64) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: chatID}, nil
}

// Name returns "telegram".
func (s *TelegramSender) Name() string { return "telegram" }

// Send posts body as a plain text message.
func (s *TelegramSender) Send(ctx context.Context, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(s.chatID, body)
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
