package notify

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// LogSender writes notifications to a logrus logger.
type LogSender struct {
	Logger log.FieldLogger
}

// NewLogSender returns a sender backed by the standard logrus logger.
func NewLogSender() *LogSender {
	return &LogSender{Logger: log.StandardLogger()}
}

func (s *LogSender) Name() string { return "log" }

// Send logs successes at info and failures at warn.
func (s *LogSender) Send(_ context.Context, n Notification) error {
	entry := s.Logger.WithFields(log.Fields{
		"notification_id": n.ID,
		"car_id":          n.CarID,
		"severity":        n.Level,
	})
	if n.Level == LevelError {
		entry.Warn(n.Message)
	} else {
		entry.Info(n.Message)
	}
	return nil
}
