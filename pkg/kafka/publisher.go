package kafka

import (
	"context"
	"time"

	"roombook/pkg/model"
)

const (
	EventBookingCreated   = "booking.created"
	EventBookingCancelled = "booking.cancelled"

	bookingSchemaVersion = "1"
)

// BookingPublisher is the producer surface the booking service depends on.
type BookingPublisher interface {
	PublishBooking(ctx context.Context, eventType string, event model.BookingEvent) error
	Close() error
}

type EventPublisher struct {
	producer *Producer
	source   string
	timeout  time.Duration
}

func NewEventPublisher(producer *Producer, source string, timeout time.Duration) *EventPublisher {
	return &EventPublisher{producer: producer, source: source, timeout: timeout}
}

func (p *EventPublisher) PublishBooking(ctx context.Context, eventType string, event model.BookingEvent) error {
	msg, err := NewMessage().
		WithKey(event.RoomID).
		WithValue(event).
		WithEventType(eventType).
		WithSchemaVersion(bookingSchemaVersion).
		WithSource(p.source).
		WithCorrelationID(correlationID(ctx)).
		Build()
	if err != nil {
		return err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	return p.producer.Publish(ctx, msg)
}

func (p *EventPublisher) Close() error {
	return p.producer.Close()
}

// NopPublisher drops events. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishBooking(context.Context, string, model.BookingEvent) error { return nil }
func (NopPublisher) Close() error                                                   { return nil }

type correlationKey struct{}

// WithCorrelationID tags ctx so published events carry the request id.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
