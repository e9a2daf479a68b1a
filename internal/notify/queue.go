package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrQueueClosed = errors.New("notification queue closed")

// Queue fans messages out to a fixed pool of workers so a slow mail server
// never holds up the request that produced the message.
type Queue struct {
	dispatcher *Dispatcher
	jobs       chan Message
	timeout    time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewQueue(d *Dispatcher, workers, size int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 64
	}
	q := &Queue{
		dispatcher: d,
		jobs:       make(chan Message, size),
		timeout:    30 * time.Second,
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	return q
}

// Enqueue schedules msg. Unknown templates are rejected immediately; a full
// queue drops the message with a warning.
func (q *Queue) Enqueue(msg Message) error {
	if !q.dispatcher.registry.Has(msg.Template) {
		return fmt.Errorf("%w: %q", ErrUnknownTemplate, msg.Template)
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.jobs <- msg:
	default:
		logrus.WithFields(logrus.Fields{
			"to":       msg.To,
			"template": msg.Template,
		}).Warn("Notification queue full, dropping message")
	}
	return nil
}

func (q *Queue) worker() {
	defer q.wg.Done()
	for msg := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		if err := q.dispatcher.Send(ctx, msg); err != nil {
			logrus.WithError(err).WithFields(logrus.Fields{
				"to":       msg.To,
				"template": msg.Template,
			}).Warn("Failed to send notification")
		}
		cancel()
	}
}

// Close stops accepting messages and waits for queued ones to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
