// Package events publishes domain events to RabbitMQ.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/example/grocer/internal/models"
)

// OrderPlacedType is the event type of OrderPlacedEvent.
const OrderPlacedType = "order.placed"

// OrderPlacedEvent is published once per committed order.
type OrderPlacedEvent struct {
	Type        string          `json:"type"`
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      uuid.UUID       `json:"userId"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
	ItemCount   int             `json:"itemCount"`
	PlacedAt    time.Time       `json:"placedAt"`
}

// NewOrderPlacedEvent builds the event for order.
func NewOrderPlacedEvent(order *models.Order) OrderPlacedEvent {
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return OrderPlacedEvent{
		Type:        OrderPlacedType,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Subtotal:    order.Subtotal,
		Discount:    order.DiscountAmount,
		Total:       order.TotalAmount,
		ItemCount:   count,
		PlacedAt:    order.PlacedAt,
	}
}

// Publisher sends order events to a durable queue.
type Publisher struct {
	conn  *amqp.Connection
	queue string
	lg    *zap.Logger

	// amqp channels are not safe for concurrent publishing.
	mu      sync.Mutex
	channel *amqp.Channel
}

// NewPublisher connects to the broker and declares queue.
func NewPublisher(url, queue string, lg *zap.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to rabbitmq")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, errors.Wrap(err, "open channel")
	}

	if _, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, errors.Wrapf(err, "declare queue %q", queue)
	}

	lg.Info("RabbitMQ publisher ready", zap.String("queue", queue))
	return &Publisher{conn: conn, channel: ch, queue: queue, lg: lg}, nil
}

// OrderPlaced publishes an OrderPlacedEvent for order.
func (p *Publisher) OrderPlaced(ctx context.Context, order *models.Order) error {
	body, err := json.Marshal(NewOrderPlacedEvent(order))
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.channel.Publish("", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		MessageId:    order.ID.String(),
		Type:         OrderPlacedType,
		Timestamp:    time.Now(),
	}); err != nil {
		return errors.Wrap(err, "publish order event")
	}

	p.lg.Debug("Order event published", zap.String("order_number", order.OrderNumber))
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var chErr error
	if p.channel != nil {
		chErr = p.channel.Close()
	}
	connErr := p.conn.Close()
	if chErr != nil {
		return errors.Wrap(chErr, "close channel")
	}
	if connErr != nil {
		return errors.Wrap(connErr, "close connection")
	}
	return nil
}
