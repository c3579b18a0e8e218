package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"food-marketplace/internal/logger"
	"food-marketplace/internal/models"
)

// Publisher publishes outbox events to the events exchange
type Publisher struct {
	conn   *Connection
	logger *logger.Logger
}

func NewPublisher(conn *Connection, log *logger.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: log,
	}
}

// Name identifies the broker in relay metrics
func (p *Publisher) Name() string { return "rabbitmq" }

// Publish sends event with its type as routing key
func (p *Publisher) Publish(ctx context.Context, event models.Event) error {
	if p.conn.IsClosed() {
		if err := p.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	publishing, err := buildPublishing(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = p.conn.Channel().PublishWithContext(
		ctx,
		EventsExchange, // exchange
		event.Type,     // routing key
		false,          // mandatory
		false,          // immediate
		publishing,
	)
	if err != nil {
		p.logger.Error("message_publish_failed",
			fmt.Sprintf("Failed to publish message to exchange %s", EventsExchange),
			"", err, map[string]interface{}{
				"exchange":    EventsExchange,
				"routing_key": event.Type,
				"event_id":    event.EventID.String(),
			})
		return fmt.Errorf("failed to publish message: %w", err)
	}

	p.logger.Debug("message_published",
		fmt.Sprintf("Published message to exchange %s", EventsExchange),
		"", map[string]interface{}{
			"exchange":     EventsExchange,
			"routing_key":  event.Type,
			"message_size": len(publishing.Body),
		})
	return nil
}

// buildPublishing renders a persistent JSON message whose id is the event
// id, so consumers can drop redeliveries
func buildPublishing(event models.Event) (amqp091.Publishing, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	return amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		MessageId:    event.EventID.String(),
		Type:         event.Type,
		Timestamp:    event.CreatedAt,
		Headers:      amqp091.Table{"key": event.Key},
	}, nil
}

// Close closes the publisher
func (p *Publisher) Close() error {
	return p.conn.Close()
}
