package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/streadway/amqp"
)

// DefaultExchange receives every session update.
const DefaultExchange = "session_updates"

// Update kinds.
const (
	KindTurnAppended    = "turn.appended"
	KindReportGenerated = "report.generated"
	KindSessionCleared  = "session.cleared"
)

// Update is the JSON body published for a session change.
type Update struct {
	Kind          string    `json:"kind"`
	SessionID     string    `json:"session_id"`
	HistoryLength int       `json:"history_length,omitempty"`
	Format        string    `json:"format,omitempty"`
	At            time.Time `json:"at"`
}

// Publisher fans session updates out to subscribers.
type Publisher interface {
	Publish(ctx context.Context, update Update) error
	Close() error
}

// RoutingKey is the topic a session's updates are published under.
func RoutingKey(sessionID string) string {
	return fmt.Sprintf("session.%s", sessionID)
}

// Nop discards updates.
type Nop struct{}

func (Nop) Publish(context.Context, Update) error { return nil }
func (Nop) Close() error                          { return nil }

// AMQPPublisher publishes updates to a topic exchange.
type AMQPPublisher struct {
	conn     *amqp.Connection
	exchange string

	mu sync.Mutex
	ch *amqp.Channel
}

// DialAMQP connects to the broker and declares the exchange.
func DialAMQP(url, exchange string) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, errors.Wrap(err, "connect to rabbitmq")
	}

	p := &AMQPPublisher{conn: conn, exchange: exchange}
	ch, err := p.channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, errors.Wrapf(err, "declare exchange %s", exchange)
	}
	return p, nil
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil {
		return p.ch, nil
	}
	ch, err := p.conn.Channel()
	if err != nil {
		return nil, errors.Wrap(err, "open channel")
	}
	p.ch = ch
	return ch, nil
}

// Publish sends update to the session's routing key.
func (p *AMQPPublisher) Publish(_ context.Context, update Update) error {
	body, err := json.Marshal(update)
	if err != nil {
		return errors.Wrap(err, "encode update")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}
	err = ch.Publish(p.exchange, RoutingKey(update.SessionID), false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   update.At,
		Body:        body,
	})
	if err != nil {
		// A failed publish closes the channel; reopen on the next call.
		p.ch = nil
		return errors.Wrapf(err, "publish %s", update.Kind)
	}
	return nil
}

// Close shuts the channel and connection.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	return p.conn.Close()
}
