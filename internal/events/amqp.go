package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iwvelando/tender-optimizer/pkg/constants"
	amqp "github.com/rabbitmq/amqp091-go"
)

const defaultPublishTimeout = 5 * time.Second

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPConfig selects where run events go. With no exchange, events are sent
// through the default exchange to a durable queue named by RoutingKey.
type AMQPConfig struct {
	URL            string
	Exchange       string
	RoutingKey     string
	PublishTimeout time.Duration
}

// AMQP publishes JSON events over RabbitMQ.
type AMQP struct {
	conn *amqp.Connection
	ch   channel
	cfg  AMQPConfig
}

// NewAMQP dials the broker and declares the target exchange or queue.
func NewAMQP(cfg AMQPConfig) (*AMQP, error) {
	cfg = cfg.withDefaults()
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if cfg.Exchange != "" {
		err = ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil)
	} else {
		_, err = ch.QueueDeclare(cfg.RoutingKey, true, false, false, false, nil)
	}
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare amqp destination: %w", err)
	}
	return &AMQP{conn: conn, ch: ch, cfg: cfg}, nil
}

func newAMQPWithChannel(ch channel, cfg AMQPConfig) *AMQP {
	return &AMQP{ch: ch, cfg: cfg.withDefaults()}
}

func (c AMQPConfig) withDefaults() AMQPConfig {
	if c.RoutingKey == "" {
		c.RoutingKey = constants.DefaultEventRoutingKey
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = defaultPublishTimeout
	}
	return c
}

func (a *AMQP) PublishRunCompleted(ctx context.Context, evt RunCompleted) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode run event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.PublishTimeout)
	defer cancel()

	err = a.ch.PublishWithContext(ctx, a.cfg.Exchange, a.cfg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.RunID.String(),
		Timestamp:    evt.CreatedAt,
		Type:         "run.completed",
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish run %s: %w", evt.RunID, err)
	}
	return nil
}

// Close shuts the channel and connection.
func (a *AMQP) Close() error {
	err := a.ch.Close()
	if a.conn != nil {
		if cerr := a.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
