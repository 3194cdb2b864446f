// file: internals/events/publisher.go
package events

import (
	"log"
	"os"
	"strings"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Routing keys emitted by this service.
const (
	KeyPaymentCompleted         = "payment.completed"
	KeyPaymentFailed            = "payment.failed"
	KeyCertificateStatusChanged = "certificate.status.changed"
)

// Publisher pushes domain events to a topic exchange. A nil Publisher (or one
// built without RABBIT_URL) is a no-op, so callers never have to guard.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

// NewPublisherFromEnv dials RABBIT_URL when set. Returns nil (no-op mode)
// when the variable is empty; returns an error only on a failed dial.
func NewPublisherFromEnv() (*Publisher, error) {
	url := strings.TrimSpace(os.Getenv("RABBIT_URL"))
	if url == "" {
		log.Println("[EVENTS] RABBIT_URL not set, event publishing disabled")
		return nil, nil
	}

	exchange := strings.TrimSpace(os.Getenv("RABBIT_EXCHANGE"))
	if exchange == "" {
		exchange = "barangayku.events"
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	log.Printf("[EVENTS] connected, exchange=%s", exchange)
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// Publish marshals v and emits it under the routing key. Failures are logged,
// never returned; events are best-effort by contract.
func (p *Publisher) Publish(key string, v any) {
	if p == nil || p.ch == nil {
		return
	}
	body, err := sonic.Marshal(v)
	if err != nil {
		log.Printf("[EVENTS] marshal error (%s): %v", key, err)
		return
	}
	if err := p.ch.Publish(p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	}); err != nil {
		log.Printf("[EVENTS] publish error (%s): %v", key, err)
	}
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
}
