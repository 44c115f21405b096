package notify

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender delivers alerts via the Telegram Bot API.
type TelegramSender struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewTelegramSender creates a TelegramSender for the given bot token and
// chat ID.
func NewTelegramSender(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}

	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &TelegramSender{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// Send posts the message as plain text with link previews disabled. Retries
// with linear backoff on transient API failures.
func (t *TelegramSender) Send(ctx context.Context, message string) error {
	msg := tgbotapi.NewMessage(t.chatID, message)
	msg.DisableWebPagePreview = true

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := t.bot.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err
		time.Sleep(t.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("send after %d retries: %w", t.maxRetries, lastErr)
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
