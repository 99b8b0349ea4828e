package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Init configures the global logger on stdout.
func Init(serviceName string, debug bool, format string) {
	InitWithWriter(os.Stdout, serviceName, debug, format)
}

// InitWithWriter is Init with a custom sink. The CLI logs to stderr so
// command output stays pipeable.
func InitWithWriter(out io.Writer, serviceName string, debug bool, format string) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.MessageFieldName = "message"

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	log.Logger = zerolog.New(sink(out, format)).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()

	log.Debug().Str("format", format).Msg("Logger initialized")
}

func sink(out io.Writer, format string) io.Writer {
	if strings.EqualFold(format, FormatJSON) {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		FormatLevel: func(i interface{}) string {
			return fmt.Sprintf("| %-6s|", i)
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprintf("| %s", i)
		},
		FormatFieldName: func(i interface{}) string {
			return fmt.Sprintf("%s:", i)
		},
		FormatFieldValue: func(i interface{}) string {
			return fmt.Sprintf("%s", i)
		},
	}
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

// Fatal exits the process after the event is written.
func Fatal() *zerolog.Event {
	return log.Fatal()
}

// WithLevel starts an event at a level chosen at runtime.
func WithLevel(level zerolog.Level) *zerolog.Event {
	return log.WithLevel(level)
}
