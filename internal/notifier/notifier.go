// Package notifier delivers best-effort run notifications. Delivery
// failures are logged by callers and never abort a pipeline run.
package notifier

import (
	"context"

	"go.uber.org/multierr"
)

// Level classifies a notification.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

func (l Level) String() string { return string(l) }

// Notifier sends one notification. Implementations must be safe to
// call with a nil details map.
type Notifier interface {
	Notify(ctx context.Context, level Level, message string, details map[string]any) error
}

type fanout struct {
	sinks []Notifier
}

// Fanout delivers each notification to every sink, collecting errors
// instead of stopping at the first failure. Nil sinks are skipped.
func Fanout(sinks ...Notifier) Notifier {
	filtered := make([]Notifier, 0, len(sinks))
	for _, sink := range sinks {
		if sink != nil {
			filtered = append(filtered, sink)
		}
	}
	return &fanout{sinks: filtered}
}

func (f *fanout) Notify(ctx context.Context, level Level, message string, details map[string]any) error {
	var err error
	for _, sink := range f.sinks {
		err = multierr.Append(err, sink.Notify(ctx, level, message, details))
	}
	return err
}
