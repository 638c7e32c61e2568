package builtin

import (
	"go.uber.org/zap"

	"github.com/sentineld/sentinel/internal/alert"
)

// LogSubscriber is a sync Subscriber writing every alert through a zap
// logger — the "persistent log" sink spec.md names alongside desktop and
// WebSocket sinks, grounded on the teacher's logger.Info call sites
// threaded through internal/events/processor.go.
type LogSubscriber struct {
	logger *zap.Logger
}

// NewLogSubscriber builds a subscriber logging through logger.
func NewLogSubscriber(logger *zap.Logger) *LogSubscriber {
	return &LogSubscriber{logger: logger}
}

func (l *LogSubscriber) Notify(a alert.Alert) error {
	l.logger.Info("alert",
		zap.String("header", a.Header),
		zap.String("description", a.Description),
		zap.String("source", a.Source),
		zap.String("source_type", a.SourceType),
		zap.Time("timestamp", a.Timestamp),
	)
	return nil
}
