package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ajcoder25/bookverse/pkg/models"
)

const OrderPlaced = "order.placed"

// OrderPlacedEvent is the message body published after checkout.
type OrderPlacedEvent struct {
	Type        string             `json:"type"`
	OrderNumber string             `json:"order_number"`
	UserID      string             `json:"user_id"`
	Items       []models.OrderLine `json:"items"`
	TotalAmount string             `json:"total_amount"`
	PlacedAt    time.Time          `json:"placed_at"`
}

func NewOrderPlacedEvent(order *models.Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		Type:        OrderPlaced,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Items:       order.Items,
		TotalAmount: order.TotalAmount.StringFixed(2),
		PlacedAt:    order.CreatedAt,
	}
}

// Publisher announces order events to downstream consumers.
type Publisher interface {
	PublishOrderPlaced(ctx context.Context, order *models.Order) error
	Close() error
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) PublishOrderPlaced(context.Context, *models.Order) error { return nil }
func (Nop) Close() error                                           { return nil }

// RabbitPublisher publishes persistent JSON messages to a durable queue.
type RabbitPublisher struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string
	mu    sync.Mutex // amqp channels are not safe for concurrent publishing
}

func NewRabbitPublisher(url, queue string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}
	log.Printf("Publishing order events to queue %q", queue)
	return &RabbitPublisher{conn: conn, ch: ch, queue: queue}, nil
}

func (p *RabbitPublisher) PublishOrderPlaced(ctx context.Context, order *models.Order) error {
	body, err := json.Marshal(NewOrderPlacedEvent(order))
	if err != nil {
		return fmt.Errorf("marshal order event %s: %w", order.OrderNumber, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    order.OrderNumber,
		Type:         OrderPlaced,
		Timestamp:    order.CreatedAt,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish order event %s: %w", order.OrderNumber, err)
	}
	return nil
}

func (p *RabbitPublisher) Close() error {
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
