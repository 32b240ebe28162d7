package events

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus(nil)

	var received *Event
	var callCount int
	bus.Subscribe(EventReportGenerated, func(event *Event) error {
		received = event
		callCount++
		return nil
	})

	err := bus.PublishJSON(EventReportGenerated, ReportEventPayload{
		ReportID:      7,
		ReportDate:    "2024-07-01",
		TotalEarnings: decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, callCount)
	require.NotNil(t, received)
	assert.Equal(t, EventReportGenerated, received.Type)
	assert.False(t, received.CreatedAt.IsZero())

	var decoded ReportEventPayload
	require.NoError(t, received.Decode(&decoded))
	assert.Equal(t, int64(7), decoded.ReportID)
	assert.True(t, decimal.NewFromInt(150).Equal(decoded.TotalEarnings))
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus(nil)
	var order []int

	bus.Subscribe(EventDayReset, func(_ *Event) error { order = append(order, 1); return nil })
	bus.Subscribe(EventDayReset, func(_ *Event) error { order = append(order, 2); return nil })
	bus.Subscribe(EventBedFreed, func(_ *Event) error { order = append(order, 3); return nil })

	bus.Publish(&Event{Type: EventDayReset})

	assert.Equal(t, []int{1, 2}, order)
}

func TestEventBusHandlerErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	bus := NewEventBus(&logger)

	called := false
	bus.Subscribe(EventBedRented, func(_ *Event) error { return errors.New("telegram down") })
	bus.Subscribe(EventBedRented, func(_ *Event) error { called = true; return nil })

	require.NoError(t, bus.PublishJSON(EventBedRented, BedEventPayload{UmbrellaID: 5}))

	assert.True(t, called)
	assert.Contains(t, buf.String(), "telegram down")
}

func TestEventBusNil(t *testing.T) {
	var bus *EventBus
	assert.NoError(t, bus.PublishJSON(EventBedFreed, nil))
}

func TestPublishJSON_Unserializable(t *testing.T) {
	bus := NewEventBus(nil)
	assert.Error(t, bus.PublishJSON(EventBedFreed, make(chan int)))
}
