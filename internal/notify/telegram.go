// Package notify отправляет уведомления о бронированиях в служебный Telegram-чат.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/consultation_scheduler/internal/model"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// sender описывает часть *bot.Bot, которая нужна уведомителю
type sender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

type TelegramNotifier struct {
	bot    sender
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier создаёт бота для отправки сообщений. Обновления бот не получает.
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	return newTelegramNotifier(b, chatID, logger), nil
}

func newTelegramNotifier(s sender, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:    s,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) BookingCreated(ctx context.Context, booking *model.Booking) error {
	return n.send(ctx, formatBooking("✅ <b>New booking</b>", booking))
}

func (n *TelegramNotifier) BookingCanceled(ctx context.Context, booking *model.Booking) error {
	return n.send(ctx, formatBooking("❌ <b>Booking canceled</b>", booking))
}

func (n *TelegramNotifier) send(ctx context.Context, text string) error {
	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    n.chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}

	n.logger.Debug("Booking notification sent", zap.Int64("chat_id", n.chatID))
	return nil
}

func formatBooking(header string, b *model.Booking) string {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "📅 %s (%s)\n", b.Date, b.Date.Weekday())
	fmt.Fprintf(&sb, "🕐 %s-%s\n", b.StartTime, b.EndTime)
	fmt.Fprintf(&sb, "💰 %s\n", b.ConsultationFee.StringFixed(2))
	fmt.Fprintf(&sb, "🎥 %s\n", html.EscapeString(b.SessionType))
	fmt.Fprintf(&sb, "\nLawyer: <code>%s</code>\nClient: <code>%s</code>\nBooking: <code>%s</code>",
		b.LawyerID, b.ClientID, b.ID)
	return sb.String()
}

// Nop ничего не отправляет. Используется, когда TELEGRAM_TOKEN не задан.
type Nop struct{}

func (Nop) BookingCreated(context.Context, *model.Booking) error  { return nil }
func (Nop) BookingCanceled(context.Context, *model.Booking) error { return nil }
