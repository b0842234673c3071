package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the logger. Production writes JSON lines, anything else
// a human readable console format. Both go to stderr; stdout carries command output.
func Init(production bool) {
	level := getLogLevel(production)

	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	Default = New(zerolog.New(newWriter(os.Stderr, production)).With().Timestamp().Logger())

	Default.Debug().
		Str("level", level.String()).
		Bool("json", production).
		Msg("Logger initialized")
}

func newWriter(out io.Writer, production bool) io.Writer {
	if production {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
	}
}

// getLogLevel returns the log level from environment variable
func getLogLevel(production bool) zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if production {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// New wraps an existing zerolog logger
func New(l zerolog.Logger) *Logger {
	return &Logger{logger: l}
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

func ensureDefault() {
	if Default == nil {
		Init(os.Getenv("ODDS_ENVIRONMENT") == "production")
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	ensureDefault()
	Default.Info().Msgf(format, v...)
}

func forComponent(name string) *Logger {
	ensureDefault()
	return Default.WithField("component", name)
}

// ForNavigator creates a logger for the navigation controller
func ForNavigator() *Logger { return forComponent("navigator") }

// ForFetcher creates a logger for the per-race fetcher
func ForFetcher() *Logger { return forComponent("fetcher") }

// ForWorker creates a logger for the batch worker
func ForWorker() *Logger { return forComponent("worker") }

// ForResolver creates a logger for the race identifier resolver
func ForResolver() *Logger { return forComponent("resolver") }

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger { return forComponent("publisher") }

// ForCache creates a logger for the cache
func ForCache() *Logger { return forComponent("cache") }

// ForScheduler creates a logger for the scheduler
func ForScheduler() *Logger { return forComponent("scheduler") }

// ForRace creates a logger tagged with a race identifier
func ForRace(component, raceID string) *Logger {
	return forComponent(component).WithField("race_id", raceID)
}

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	ensureDefault()
	msg := fmt.Sprintf(format, v...)
	Default.Error().
		Str("component", component).
		Err(err).
		Msg(msg)
}
