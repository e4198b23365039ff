package notifier

import (
	"context"

	"go.uber.org/zap"
)

// ConsoleNotifier writes notifications to the structured log. The
// default sink for local runs.
type ConsoleNotifier struct {
	logger *zap.Logger
}

func NewConsoleNotifier(logger *zap.Logger) *ConsoleNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleNotifier{logger: logger}
}

func (n *ConsoleNotifier) Notify(_ context.Context, level Level, message string, details map[string]any) error {
	fields := []zap.Field{zap.String("level", level.String())}
	if len(details) > 0 {
		fields = append(fields, zap.Any("details", details))
	}

	switch level {
	case LevelError:
		n.logger.Error(message, fields...)
	case LevelWarning:
		n.logger.Warn(message, fields...)
	default:
		n.logger.Info(message, fields...)
	}
	return nil
}
