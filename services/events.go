package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const RoomsAssignedQueue = "rooms.assigned"

// RoomsAssignedEvent is published after a layout was written, by auto-assign or by a manual save.
type RoomsAssignedEvent struct {
	UserID     uint   `json:"user_id"`
	ProgramID  uint   `json:"program_id"`
	HotelName  string `json:"hotel_name"`
	LayoutID   *uint  `json:"layout_id"`
	Version    int    `json:"version"`
	Source     string `json:"source"`
	Rooms      int    `json:"rooms"`
	Occupants  int    `json:"occupants"`
	Unassigned []uint `json:"unassigned,omitempty"`
	OccurredAt string `json:"occurred_at"`
}

type EventPublisher interface {
	PublishRoomsAssigned(ctx context.Context, ev RoomsAssignedEvent) error
}

var (
	_ EventPublisher = NoopPublisher{}
	_ EventPublisher = (*AMQPPublisher)(nil)
)

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishRoomsAssigned(context.Context, RoomsAssignedEvent) error { return nil }

// AMQPPublisher sends events to a durable queue on RabbitMQ, one connection per event.
type AMQPPublisher struct {
	URL   string
	Queue string
}

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{URL: url, Queue: RoomsAssignedQueue}
}

func (p *AMQPPublisher) PublishRoomsAssigned(ctx context.Context, ev RoomsAssignedEvent) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("❌ rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("❌ rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.Queue, true, false, false, false, nil); err != nil {
		log.Printf("❌ rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return ch.PublishWithContext(ctx, "", p.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
