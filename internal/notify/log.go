package notify

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogTransport records mail instead of sending it. Used in development.
type LogTransport struct{}

func (LogTransport) Deliver(ctx context.Context, m Mail) error {
	logrus.WithFields(logrus.Fields{
		"to":      m.To,
		"subject": m.Subject,
		"bytes":   len(m.HTML),
	}).Info("Email (log transport)")
	return nil
}
