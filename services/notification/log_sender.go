package notification

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log. Used when no SMS provider is configured.
type LogSender struct {
	Logger *zap.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) Result {
	s.Logger.Info("Notification",
		zap.Strings("recipients", msg.Recipients),
		zap.String("template", msg.Template),
		zap.String("body", Render(msg.Template, msg.Data)),
	)
	return Result{Success: true}
}
