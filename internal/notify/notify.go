package notify

import (
	"context"
	"errors"
	"fmt"
)

// AlertPrefix is prepended to every outbound alert body.
const AlertPrefix = "🚨 M.U.K.H.T.A.R ALERT: "

// ErrNotificationFailed is returned when no channel delivered the message.
var ErrNotificationFailed = errors.New("notify: notification failed")

// Notifier sends an emergency message to the operator.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// Sender delivers an already formatted body over one transport.
type Sender interface {
	Name() string
	Send(ctx context.Context, body string) error
}

// Logger defines the logging interface used by the Channel.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// FormatAlert returns the outbound body for message.
func FormatAlert(message string) string {
	return AlertPrefix + message
}

// Channel fans an alert out to every configured sender.
// Delivery succeeds when at least one sender accepts the message.
type Channel struct {
	senders []Sender
	logger  Logger
}

// NewChannel creates a channel over senders. Nil senders are skipped.
func NewChannel(senders ...Sender) *Channel {
	c := &Channel{logger: noopLogger{}}
	for _, s := range senders {
		if s != nil {
			c.senders = append(c.senders, s)
		}
	}
	return c
}

// SetLogger sets the logger for the channel.
func (c *Channel) SetLogger(logger Logger) {
	c.logger = logger
}

// Senders returns the names of the configured senders.
func (c *Channel) Senders() []string {
	names := make([]string, len(c.senders))
	for i, s := range c.senders {
		names[i] = s.Name()
	}
	return names
}

// Notify formats message with AlertPrefix and sends it on every sender.
func (c *Channel) Notify(ctx context.Context, message string) error {
	if len(c.senders) == 0 {
		return fmt.Errorf("%w: no channels configured", ErrNotificationFailed)
	}

	body := FormatAlert(message)
	var errs []error
	delivered := 0
	for _, s := range c.senders {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := s.Send(ctx, body); err != nil {
			c.logger.Warn("notification send failed", "channel", s.Name(), "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		delivered++
		c.logger.Info("notification sent", "channel", s.Name())
	}

	if delivered == 0 {
		return fmt.Errorf("%w: %w", ErrNotificationFailed, errors.Join(errs...))
	}
	return nil
}
