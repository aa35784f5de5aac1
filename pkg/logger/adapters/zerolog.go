// Package adapters provides logger adapters for integrating external
// logging libraries with chatpush.
package adapters

import (
	"github.com/rs/zerolog"

	"github.com/kart-io/chatpush/pkg/logger"
)

// ZerologAdapter adapts a zerolog.Logger to the chatpush logger interface.
type ZerologAdapter struct {
	log   zerolog.Logger
	level logger.LogLevel
}

// NewZerologAdapter creates a new adapter around the given zerolog logger.
func NewZerologAdapter(log zerolog.Logger, level logger.LogLevel) logger.Logger {
	return &ZerologAdapter{log: log, level: level}
}

// LogMode sets the log level and returns a new logger instance.
func (z *ZerologAdapter) LogMode(level logger.LogLevel) logger.Logger {
	return &ZerologAdapter{log: z.log, level: level}
}

// Info logs an informational message.
func (z *ZerologAdapter) Info(msg string, args ...any) {
	if z.level >= logger.Info {
		z.emit(z.log.Info(), msg, args)
	}
}

// Warn logs a warning message.
func (z *ZerologAdapter) Warn(msg string, args ...any) {
	if z.level >= logger.Warn {
		z.emit(z.log.Warn(), msg, args)
	}
}

// Error logs an error message.
func (z *ZerologAdapter) Error(msg string, args ...any) {
	if z.level >= logger.Error {
		z.emit(z.log.Error(), msg, args)
	}
}

// Debug logs a debug message.
func (z *ZerologAdapter) Debug(msg string, args ...any) {
	if z.level >= logger.Debug {
		z.emit(z.log.Debug(), msg, args)
	}
}

func (z *ZerologAdapter) emit(ev *zerolog.Event, msg string, args []any) {
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			continue
		}
		var val any = "(no value)"
		if i+1 < len(args) {
			val = args[i+1]
		}
		ev = ev.Interface(key, val)
	}
	ev.Msg(msg)
}
