// Package obslog provides the structured logger used throughout the module.
// It keeps the call-site shape of a simple prefix + key-value logger while
// backing it with zerolog so output is structured JSON (or pretty console
// output in development) rather than assembled strings.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps a zerolog.Logger behind a small key-value call surface.
type Logger struct {
	component string
	zl        zerolog.Logger
}

// New creates a component-scoped logger. When pretty is true, output is
// rendered as human-readable console text instead of JSON; pretty is meant
// for local development, JSON for production/queue workers.
func New(component string, pretty bool) *Logger {
	var w zerolog.ConsoleWriter
	var zl zerolog.Logger
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		zl = zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	} else {
		zl = zerolog.New(os.Stdout).With().Timestamp().Str("component", component).Logger()
	}
	return &Logger{component: component, zl: zl}
}

// With returns a child logger scoped to a sub-component name.
func (l *Logger) With(sub string) *Logger {
	return &Logger{component: sub, zl: l.zl.With().Str("subcomponent", sub).Logger()}
}

func (l *Logger) event(ev *zerolog.Event, msg string, keysAndValues ...interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, keysAndValues[i+1])
	}
	ev.Msg(msg)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.event(l.zl.Info(), msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.event(l.zl.Warn(), msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.event(l.zl.Error(), msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.event(l.zl.Debug(), msg, keysAndValues...)
}
