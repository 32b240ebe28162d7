package events

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	EventBedRented       = "bed_rented"
	EventBedFreed        = "bed_freed"
	EventExtraBedAdded   = "extra_bed_added"
	EventExtraBedRemoved = "extra_bed_removed"
	EventReportGenerated = "report_generated"
	EventReportDeleted   = "report_deleted"
	EventDayReset        = "day_reset"
)

// BedEventPayload describes a bed transition.
type BedEventPayload struct {
	UmbrellaID int64           `json:"umbrella_id"`
	Side       string          `json:"side"`
	Status     string          `json:"status"`
	Renter     string          `json:"renter,omitempty"`
	Price      decimal.Decimal `json:"price"`
	ActorID    int64           `json:"actor_id"`
	At         time.Time       `json:"at"`
}

// ExtraBedEventPayload describes a change of an umbrella's extra-bed stack.
type ExtraBedEventPayload struct {
	UmbrellaID int64     `json:"umbrella_id"`
	BedNumber  int       `json:"bed_number"`
	Count      int       `json:"count"`
	ActorID    int64     `json:"actor_id"`
	At         time.Time `json:"at"`
}

// ReportEventPayload identifies a generated or deleted daily report.
type ReportEventPayload struct {
	ReportID         int64           `json:"report_id"`
	ReportDate       string          `json:"report_date,omitempty"`
	TotalRentedBeach int             `json:"total_rented_beach"`
	TotalRentedHotel int             `json:"total_rented_hotel"`
	ExtraBedsRented  int             `json:"extra_beds_rented"`
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	ActorID          int64           `json:"actor_id"`
}

// DayResetPayload summarizes the state after a reset.
type DayResetPayload struct {
	HotelUmbrellas int       `json:"hotel_umbrellas"`
	ActorID        int64     `json:"actor_id"`
	At             time.Time `json:"at"`
}

// Event represents a lightweight domain event.
type Event struct {
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// Decode unmarshals the event payload into v.
func (e *Event) Decode(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus. Handler failures are logged to logger when it is not nil.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// Publish notifies subscribers of the event type. Handlers run synchronously in subscription order.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	b.mu.RUnlock()

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		if err := handler(event); err != nil && b.logger != nil {
			b.logger.Warn().Err(err).Str("event", event.Type).Msg("Event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	b.Publish(&Event{Type: eventType, Payload: raw, CreatedAt: time.Now()})
	return nil
}
