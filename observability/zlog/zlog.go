// Package zlog adapts zerolog to the observability.Logger contract. Nothing
// in the module installs it by default; callers pass it in explicitly
// (for example through processor.WithLogger). Grounded on the
// pack's own zerolog wrapper convention (el-gladiador-medflow-backend's
// pkg/logger).
package zlog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/wudi/gopnik/observability"
)

// Logger wraps a zerolog.Logger to satisfy observability.Logger.
type Logger struct {
	log zerolog.Logger
}

// New returns a Logger writing structured JSON to os.Stdout. When
// console is true, output is rendered human-readable instead, for local
// development.
func New(console bool) *Logger {
	var out io.Writer = os.Stdout
	if console {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return &Logger{log: zerolog.New(out).With().Timestamp().Str("component", "gopnik").Logger()}
}

func apply(e *zerolog.Event, fields []observability.Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			e = e.Str(f.Key(), v)
		case int:
			e = e.Int(f.Key(), v)
		case int64:
			e = e.Int64(f.Key(), v)
		case error:
			e = e.AnErr(f.Key(), v)
		default:
			e = e.Interface(f.Key(), v)
		}
	}
	return e
}

func (l *Logger) Debug(msg string, fields ...observability.Field) {
	apply(l.log.Debug(), fields).Msg(msg)
}

func (l *Logger) Info(msg string, fields ...observability.Field) {
	apply(l.log.Info(), fields).Msg(msg)
}

func (l *Logger) Warn(msg string, fields ...observability.Field) {
	apply(l.log.Warn(), fields).Msg(msg)
}

func (l *Logger) Error(msg string, fields ...observability.Field) {
	apply(l.log.Error(), fields).Msg(msg)
}

func (l *Logger) With(fields ...observability.Field) observability.Logger {
	ctx := l.log.With()
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			ctx = ctx.Str(f.Key(), v)
		case int:
			ctx = ctx.Int(f.Key(), v)
		case int64:
			ctx = ctx.Int64(f.Key(), v)
		case error:
			ctx = ctx.AnErr(f.Key(), v)
		default:
			ctx = ctx.Interface(f.Key(), v)
		}
	}
	return &Logger{log: ctx.Logger()}
}
