package notify

import (
	"context"
	"log/slog"
	"time"
)

// Message is an outbound mail queued for delivery by a mail worker.
type Message struct {
	Kind      string            `json:"kind"`
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// Notifier dispatches messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the structured log instead of delivering them.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that logs through logger, or the default
// logger when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.InfoContext(ctx, "notification",
		"kind", msg.Kind,
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}

// Counter records the outcome of each sent message.
type Counter interface {
	IncNotification(kind string, err error)
}

type counted struct {
	next    Notifier
	counter Counter
}

// Counted reports every Send on next to c.
func Counted(next Notifier, c Counter) Notifier {
	if c == nil {
		return next
	}
	return &counted{next: next, counter: c}
}

func (n *counted) Send(ctx context.Context, msg Message) error {
	err := n.next.Send(ctx, msg)
	n.counter.IncNotification(msg.Kind, err)
	return err
}
