package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/gymstack/gymstack-backend/pkg/logger"
)

// ExchangeGymEvents is the topic exchange the WebSocket edge consumes.
// Routing keys are "gym.<id>.<event>", one room per tenant.
const ExchangeGymEvents = "gym.events"

// Realtime event names pushed to gym rooms
const (
	EventBodyMetricsChanged  = "bodyMetricsChanged"
	EventLookupChanged       = "lookupChanged"
	EventNotificationCreated = "notificationCreated"
	EventAttendanceMarked    = "attendanceMarked"
	EventChallengeUpdated    = "challengeUpdated"
)

// Emitter is the real-time push contract. Delivery is best-effort: callers
// never fail a write because an emit failed.
type Emitter interface {
	Emit(ctx context.Context, gymID int64, event string, payload interface{})
}

// Envelope is the wire format pushed to gym rooms
type Envelope struct {
	ID        string      `json:"id"`
	Event     string      `json:"event"`
	GymID     int64       `json:"gym_id"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// GymEmitter publishes gym room events to the gym.events exchange.
type GymEmitter struct {
	channel *amqp.Channel
	logger  *logger.Logger
}

// NewGymEmitter declares the exchange and returns an emitter bound to it.
func NewGymEmitter(rmq *RabbitMQ, log *logger.Logger) (*GymEmitter, error) {
	if err := rmq.DeclareExchange(ExchangeGymEvents); err != nil {
		return nil, fmt.Errorf("failed to declare exchange %s: %w", ExchangeGymEvents, err)
	}

	return &GymEmitter{
		channel: rmq.Channel(),
		logger:  log,
	}, nil
}

// Emit publishes one event to the gym's room. Failures are logged, never returned.
func (e *GymEmitter) Emit(ctx context.Context, gymID int64, event string, payload interface{}) {
	env := Envelope{
		ID:        fmt.Sprintf("%d-%d", gymID, time.Now().UnixNano()),
		Event:     event,
		GymID:     gymID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	body, err := json.Marshal(env)
	if err != nil {
		e.logger.Error().Err(err).Str("event", event).Msg("failed to marshal realtime event")
		return
	}

	routingKey := fmt.Sprintf("gym.%d.%s", gymID, event)

	err = e.channel.PublishWithContext(ctx,
		ExchangeGymEvents, // exchange
		routingKey,        // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Transient,
			Body:         body,
		},
	)
	if err != nil {
		e.logger.Warn().Err(err).Str("routing_key", routingKey).Msg("realtime emit failed")
		return
	}

	e.logger.Debug().
		Str("routing_key", routingKey).
		Str("event", event).
		Msg("realtime event published")
}

// NoopEmitter discards events. Used when RabbitMQ is disabled and in tests.
type NoopEmitter struct{}

func (NoopEmitter) Emit(context.Context, int64, string, interface{}) {}
