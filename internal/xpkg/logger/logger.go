package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a value type; Action and With return enriched copies so
// call sites can chain without touching the parent.
type Logger struct {
	zl zerolog.Logger
}

func New(service, level string) Logger {
	hostname, _ := os.Hostname()

	zl := zerolog.New(os.Stdout).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("service", service).
		Str("hostname", hostname).
		Logger()

	return Logger{zl: zl}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// Action tags every entry emitted through the returned logger.
func (l Logger) Action(action string) Logger {
	return Logger{zl: l.zl.With().Str("action", action).Logger()}
}

// RequestID attaches a per-update request id.
func (l Logger) RequestID(id string) Logger {
	return Logger{zl: l.zl.With().Str("request_id", id).Logger()}
}

// With attaches alternating key/value pairs.
func (l Logger) With(kv ...any) Logger {
	return Logger{zl: l.zl.With().Fields(fields(kv)).Logger()}
}

func (l Logger) Debug(msg string, kv ...any) {
	l.zl.Debug().Fields(fields(kv)).Msg(msg)
}

func (l Logger) Info(msg string, kv ...any) {
	l.zl.Info().Fields(fields(kv)).Msg(msg)
}

func (l Logger) Warn(msg string, kv ...any) {
	l.zl.Warn().Fields(fields(kv)).Msg(msg)
}

func (l Logger) Error(msg string, err error, kv ...any) {
	l.zl.Error().Err(err).Fields(fields(kv)).Msg(msg)
}

func fields(kv []any) map[string]any {
	if len(kv) == 0 {
		return nil
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return m
}
