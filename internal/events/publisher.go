// Package events publishes domain events over AMQP for downstream
// consumers (reporting, webhooks). The publisher is optional: a nil
// *Publisher is a valid no-op sink, so the workflow layer never has to
// branch on whether messaging is configured.
package events

import (
	"context"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"atlas/internal/log"
)

type Publisher struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	logger   *log.Logger
}

func NewPublisher(url, exchange string, logger *log.Logger) (*Publisher, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig()).WithComponent(log.ComponentEvents)
	}
	return &Publisher{conn: conn, channel: channel, exchange: exchange, logger: logger}, nil
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// QuoteConverted announces a successful quote conversion.
func (p *Publisher) QuoteConverted(ctx context.Context, msg QuoteConvertedMessage) {
	p.publish(ctx, "quote.converted", msg)
}

// InstallmentsPaid announces a bulk mark-paid operation.
func (p *Publisher) InstallmentsPaid(ctx context.Context, msg InstallmentsPaidMessage) {
	p.publish(ctx, "installment.paid", msg)
}

// ClientDeleted announces a cascade delete.
func (p *Publisher) ClientDeleted(ctx context.Context, msg ClientDeletedMessage) {
	p.publish(ctx, "client.deleted", msg)
}

// publish is best effort: a failed publish is logged, never surfaced, so
// messaging trouble cannot fail a committed write.
func (p *Publisher) publish(ctx context.Context, key string, msg interface{ body() ([]byte, error) }) {
	if p == nil {
		return
	}
	body, err := msg.body()
	if err != nil {
		p.logger.Error("encode event", log.FieldError, err.Error(), "routing_key", key)
		return
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, key, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Body:         body,
	})
	if err != nil {
		p.logger.Warn("publish event failed", log.FieldError, err.Error(), "routing_key", key)
	}
}
