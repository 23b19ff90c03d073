// internal/app/system/mailer/mailer.go
package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// DefaultQueue is the queue outbound mail is published to when none is configured.
const DefaultQueue = "mail.outbound"

// Email is a single message to deliver.
type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config configures the outbound mail queue. A blank URL disables
// publishing; messages are logged and dropped.
type Config struct {
	URL      string
	Queue    string
	From     string
	FromName string
}

// envelope is the JSON document a mail-delivery consumer reads off the queue.
type envelope struct {
	From     string    `json:"from"`
	FromName string    `json:"fromName,omitempty"`
	To       string    `json:"to"`
	ToName   string    `json:"toName,omitempty"`
	Subject  string    `json:"subject"`
	Text     string    `json:"text"`
	HTML     string    `json:"html,omitempty"`
	QueuedAt time.Time `json:"queuedAt"`
}

type publishFunc func(ctx context.Context, queue string, msg amqp.Publishing) error

// Mailer hands email off to a RabbitMQ queue. Delivery itself belongs to a
// separate consumer, so Send returns once the broker has the message.
type Mailer struct {
	cfg Config
	log *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	publish publishFunc
}

// New creates a Mailer. No connection is made until the first Send.
func New(cfg Config, logger *zap.Logger) *Mailer {
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	m := &Mailer{cfg: cfg, log: logger}
	m.publish = m.publishAMQP
	return m
}

// Enabled reports whether a broker URL is configured.
func (m *Mailer) Enabled() bool {
	return m != nil && m.cfg.URL != ""
}

// Send publishes e to the mail queue. With no broker configured it logs
// the message and returns nil.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if e.To == "" {
		return errors.New("mailer: recipient required")
	}
	if !m.Enabled() {
		m.log.Info("email not queued (mail queue disabled)",
			zap.String("to", e.To), zap.String("subject", e.Subject))
		return nil
	}

	body, err := json.Marshal(envelope{
		From:     m.cfg.From,
		FromName: m.cfg.FromName,
		To:       e.To,
		ToName:   e.ToName,
		Subject:  e.Subject,
		Text:     e.TextBody,
		HTML:     e.HTMLBody,
		QueuedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return m.publish(ctx, m.cfg.Queue, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// SendAsync publishes e in the background. Failures are logged at Warn and
// never reach the caller.
func (m *Mailer) SendAsync(e Email) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := m.Send(ctx, e); err != nil {
			m.log.Warn("email publish failed",
				zap.String("to", e.To), zap.String("subject", e.Subject), zap.Error(err))
		}
	}()
}

// Close shuts down the broker connection if one is open.
func (m *Mailer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resetLocked()
}

func (m *Mailer) publishAMQP(ctx context.Context, queue string, msg amqp.Publishing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, err := m.channelLocked(queue)
	if err != nil {
		return err
	}
	if err := ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue name
		false, // mandatory
		false, // immediate
		msg,
	); err != nil {
		_ = m.resetLocked()
		return err
	}
	return nil
}

// channelLocked returns an open channel, dialing and declaring the queue
// when the previous connection is gone. Caller holds m.mu.
func (m *Mailer) channelLocked(queue string) (*amqp.Channel, error) {
	if m.conn != nil && !m.conn.IsClosed() && m.ch != nil && !m.ch.IsClosed() {
		return m.ch, nil
	}
	_ = m.resetLocked()

	conn, err := amqp.Dial(m.cfg.URL)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Durable so queued mail survives a broker restart.
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	m.conn, m.ch = conn, ch
	return ch, nil
}

func (m *Mailer) resetLocked() error {
	var err error
	if m.ch != nil {
		_ = m.ch.Close()
		m.ch = nil
	}
	if m.conn != nil {
		err = m.conn.Close()
		m.conn = nil
	}
	if errors.Is(err, amqp.ErrClosed) {
		return nil
	}
	return err
}
