package notify

import (
	"fmt"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"payflow/internal/models"
	"payflow/internal/outcome"
)

// Notifier reports checkout outcomes to the merchant's Telegram chat.
// Send-only: the bot never polls for updates.
type Notifier struct {
	bot    *tele.Bot
	chatID int64
	logger *zap.Logger
}

// New builds a notifier, or returns (nil, nil) when no token is
// configured. A nil *Notifier is safe to use everywhere and does nothing.
func New(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	if token == "" || chatID == 0 {
		return nil, nil
	}
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Notifier{bot: bot, chatID: chatID, logger: logger}, nil
}

// PaymentOutcome implements outcome.Notifier.
func (n *Notifier) PaymentOutcome(rec *outcome.Record) {
	if n == nil {
		return
	}
	var text string
	switch rec.Status {
	case models.PaymentStatusCompleted:
		text = fmt.Sprintf("✅ Payment settled\n%s — %s %s\n%d ticket(s) issued\nRef: %s",
			rec.Payment.ItemName, rec.Payment.Amount.String(), rec.Payment.Currency,
			len(rec.Tickets), rec.Payment.Reference)
	case models.PaymentStatusFailed:
		text = fmt.Sprintf("❌ Payment failed\n%s — %s %s\nReason: %s\nRef: %s",
			rec.Payment.ItemName, rec.Payment.Amount.String(), rec.Payment.Currency,
			rec.FailureMessage, rec.Payment.Reference)
	case models.PaymentStatusTimeout:
		text = fmt.Sprintf("⏳ Payment unconfirmed (timed out waiting)\n%s — %s %s\nRef: %s",
			rec.Payment.ItemName, rec.Payment.Amount.String(), rec.Payment.Currency,
			rec.Payment.Reference)
	default:
		return
	}
	n.send(text)
}

// Summary sends the daily status digest assembled by the scheduler.
func (n *Notifier) Summary(text string) {
	if n == nil {
		return
	}
	n.send(text)
}

func (n *Notifier) send(text string) {
	_, err := n.bot.Send(tele.ChatID(n.chatID), text, &tele.SendOptions{
		DisableWebPagePreview: true,
	})
	if err != nil {
		n.logger.Warn("telegram notification failed", zap.Error(err))
	}
}
