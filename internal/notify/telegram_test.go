package notify

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"beachrent/internal/events"
	"beachrent/internal/timeutil"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegramSender struct {
	mock.Mock
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		m.mu.Lock()
		m.sent = append(m.sent, msg)
		m.mu.Unlock()
	}
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *mockTelegramSender) messages() []tgbotapi.MessageConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), m.sent...)
}

func newNotifier(t *testing.T, sender *mockTelegramSender, chats []int64) (*TelegramNotifier, *events.EventBus) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	clock, err := timeutil.NewClock("Europe/Bucharest")
	require.NoError(t, err)

	n := NewTelegramNotifier(sender, chats, clock, &logger)
	bus := events.NewEventBus(&logger)
	n.Subscribe(bus)
	return n, bus
}

func TestTelegramNotifier_ReportGenerated(t *testing.T) {
	sender := new(mockTelegramSender)
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, nil)
	n, bus := newNotifier(t, sender, []int64{100, 200})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Start(ctx)

	require.NoError(t, bus.PublishJSON(events.EventReportGenerated, events.ReportEventPayload{
		ReportID:         3,
		ReportDate:       "2024-07-01",
		TotalRentedBeach: 12,
		TotalRentedHotel: 76,
		ExtraBedsRented:  2,
		TotalEarnings:    decimal.NewFromInt(700),
	}))

	require.Eventually(t, func() bool { return len(sender.messages()) == 2 }, time.Second, 10*time.Millisecond)
	msgs := sender.messages()
	assert.Equal(t, int64(100), msgs[0].ChatID)
	assert.Equal(t, int64(200), msgs[1].ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, msgs[0].ParseMode)
	assert.True(t, strings.Contains(msgs[0].Text, "2024-07-01"))
	assert.True(t, strings.Contains(msgs[0].Text, "700.00"))
}

func TestTelegramNotifier_DayResetAndSendError(t *testing.T) {
	sender := new(mockTelegramSender)
	sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("blocked by user"))
	n, bus := newNotifier(t, sender, []int64{100})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go n.Start(ctx)

	require.NoError(t, bus.PublishJSON(events.EventDayReset, events.DayResetPayload{
		HotelUmbrellas: 38,
		At:             time.Date(2024, 7, 1, 21, 0, 0, 0, time.UTC),
	}))

	require.Eventually(t, func() bool { return len(sender.messages()) == 1 }, time.Second, 10*time.Millisecond)
	assert.Contains(t, sender.messages()[0].Text, "02.07.2024 00:00")
	assert.Contains(t, sender.messages()[0].Text, "38")
}

func TestTelegramNotifier_NoChats(t *testing.T) {
	sender := new(mockTelegramSender)
	_, bus := newNotifier(t, sender, nil)

	require.NoError(t, bus.PublishJSON(events.EventDayReset, events.DayResetPayload{}))
	sender.AssertNotCalled(t, "Send", mock.Anything)
}
