package notify

import (
	"context"
	"fmt"
	"strings"

	"beachrent/internal/domain"
	"beachrent/internal/events"
	"beachrent/internal/timeutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const queueSize = 32

// TelegramNotifier posts report and reset summaries to the configured chats.
// Sending happens on the Start goroutine so that event publishers never wait on Telegram.
type TelegramNotifier struct {
	bot     domain.TelegramSender
	chatIDs []int64
	clock   *timeutil.Clock
	logger  *zerolog.Logger
	queue   chan string
}

func NewTelegramNotifier(bot domain.TelegramSender, chatIDs []int64, clock *timeutil.Clock, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:     bot,
		chatIDs: chatIDs,
		clock:   clock,
		logger:  logger,
		queue:   make(chan string, queueSize),
	}
}

// Subscribe registers the notifier on the bus.
func (n *TelegramNotifier) Subscribe(bus *events.EventBus) {
	bus.Subscribe(events.EventReportGenerated, n.onReportGenerated)
	bus.Subscribe(events.EventDayReset, n.onDayReset)
}

// Start delivers queued messages until ctx is cancelled.
func (n *TelegramNotifier) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case text := <-n.queue:
			n.broadcast(text)
		}
	}
}

func (n *TelegramNotifier) onReportGenerated(ev *events.Event) error {
	var p events.ReportEventPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode report event: %w", err)
	}
	return n.enqueue(formatReport(p))
}

func (n *TelegramNotifier) onDayReset(ev *events.Event) error {
	var p events.DayResetPayload
	if err := ev.Decode(&p); err != nil {
		return fmt.Errorf("decode reset event: %w", err)
	}
	at := p.At.In(n.clock.Location()).Format("02.01.2006 15:04")
	return n.enqueue(fmt.Sprintf("🌅 *Beach reset* at %s\nHotel umbrellas assigned: %d", at, p.HotelUmbrellas))
}

func (n *TelegramNotifier) enqueue(text string) error {
	if len(n.chatIDs) == 0 {
		return nil
	}
	select {
	case n.queue <- text:
		return nil
	default:
		return fmt.Errorf("notification queue is full")
	}
}

func (n *TelegramNotifier) broadcast(text string) {
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Msg("telegram send error")
		}
	}
}

func formatReport(p events.ReportEventPayload) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *Daily report %s*\n", p.ReportDate)
	fmt.Fprintf(&sb, "Beach rentals: %d\n", p.TotalRentedBeach)
	fmt.Fprintf(&sb, "Hotel beds: %d\n", p.TotalRentedHotel)
	fmt.Fprintf(&sb, "Extra beds: %d\n", p.ExtraBedsRented)
	fmt.Fprintf(&sb, "Total: %s lei", p.TotalEarnings.StringFixed(2))
	return sb.String()
}
