package notify

import (
	"context"

	"github.com/dvloznov/ledger-sync/internal/logger"
)

// LogSink writes the message to the context logger. It never fails.
type LogSink struct{}

// Send logs message at info level.
func (LogSink) Send(ctx context.Context, message string) error {
	log := logger.FromContext(ctx)
	log.Info().Str("text", message).Msg("Notification")
	return nil
}
