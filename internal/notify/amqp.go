package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// RoutingKey is the topic under which rendered mail is published.
const RoutingKey = "mail.send"

const (
	// RetryHeader counts how many times a message has been sent back to the
	// queue after a failed delivery.
	RetryHeader = "x-retry-count"
	// MaxDeliveryAttempts bounds deliveries per message before it is
	// dead-lettered to "<queue>.dead".
	MaxDeliveryAttempts = 5
)

// AMQPTransport publishes rendered mail to a topic exchange; the notifier
// process consumes it and performs the SMTP delivery.
type AMQPTransport struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPTransport(url, exchange string) (*AMQPTransport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPTransport{conn: conn, ch: ch, exchange: exchange}, nil
}

func (t *AMQPTransport) Deliver(ctx context.Context, m Mail) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return t.ch.PublishWithContext(ctx, t.exchange, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         b,
	})
}

func (t *AMQPTransport) Close() error {
	if t.ch != nil {
		_ = t.ch.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}

// Consumer drains the mail queue into a transport.
type Consumer struct {
	conn        *amqp.Connection
	ch          *amqp.Channel
	queue       string
	transport   Transport
	maxAttempts int
	// retry puts body back on the queue carrying the given retry count.
	retry func(ctx context.Context, body []byte, retries int) error
}

func NewConsumer(url, exchange, queue string, prefetch int, transport Transport) (*Consumer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	fail := func(step string, err error) (*Consumer, error) {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", step, err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	dead := queue + ".dead"
	if _, err := ch.QueueDeclare(dead, true, false, false, false, nil); err != nil {
		return fail("declare dead-letter queue", err)
	}
	q, err := ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    "",
		"x-dead-letter-routing-key": dead,
	})
	if err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(q.Name, RoutingKey, exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}
	if prefetch <= 0 {
		prefetch = 8
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fail("set qos", err)
	}
	c := &Consumer{conn: conn, ch: ch, queue: q.Name, transport: transport, maxAttempts: MaxDeliveryAttempts}
	c.retry = c.republish
	return c, nil
}

func (c *Consumer) republish(ctx context.Context, body []byte, retries int) error {
	return c.ch.PublishWithContext(ctx, "", c.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Headers:      amqp.Table{RetryHeader: int32(retries)},
		Body:         body,
	})
}

// Run consumes until ctx is done. Malformed messages are dropped. Failed
// deliveries are retried up to maxAttempts times and then dead-lettered.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	c.process(ctx, d.Body, retryCount(d.Headers), &d)
}

func retryCount(h amqp.Table) int {
	switch v := h[RetryHeader].(type) {
	case int32:
		return int(v)
	case int64:
		return int(v)
	case int:
		return v
	}
	return 0
}

func (c *Consumer) process(ctx context.Context, body []byte, retries int, ack acknowledger) {
	var m Mail
	if err := json.Unmarshal(body, &m); err != nil {
		logrus.WithError(err).Error("Dropping malformed mail message")
		_ = ack.Nack(false, false)
		return
	}
	err := c.transport.Deliver(ctx, m)
	if err == nil {
		_ = ack.Ack(false)
		return
	}

	log := logrus.WithError(err).WithFields(logrus.Fields{"to": m.To, "attempt": retries + 1})
	limit := c.maxAttempts
	if limit <= 0 {
		limit = MaxDeliveryAttempts
	}
	if retries+1 >= limit || c.retry == nil {
		log.Error("Mail delivery failed, dead-lettering")
		_ = ack.Nack(false, false)
		return
	}
	if rerr := c.retry(ctx, body, retries+1); rerr != nil {
		log.WithField("retry_error", rerr.Error()).Warn("Mail delivery failed and retry publish failed, requeueing")
		_ = ack.Nack(false, true)
		return
	}
	log.Warn("Mail delivery failed, retrying")
	_ = ack.Ack(false)
}

func (c *Consumer) Close() error {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
