// Package notification delivers alerts about failed or degraded signal
// cycles to external channels (Telegram, webhooks) or the log.
package notification

import (
	"context"
	"log/slog"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the structured log. It is the default
// backend when no external channel is configured.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	n.log.Warn("alert",
		slog.String("level", string(alert.Level)),
		slog.String("title", alert.Title),
		slog.String("message", alert.Message),
	)
	return nil
}

// Multi fans an alert out to several backends, returning the first error.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var firstErr error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
