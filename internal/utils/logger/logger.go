package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu    sync.RWMutex
	out   io.Writer = os.Stderr
	level           = zerolog.InfoLevel
	base            = build(out, level)
)

func build(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	consoleWriter := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
	}
	consoleWriter.FormatLevel = func(i interface{}) string {
		switch i {
		case "info":
			return "\033[32m[INFO]\033[0m" // Green
		case "error":
			return "\033[31m[ERROR]\033[0m" // Red
		case "debug":
			return "\033[36m[DEBUG]\033[0m" // Cyan
		case "warn":
			return "\033[33m[WARN]\033[0m" // Yellow
		case "fatal":
			return "\033[35m[FATAL]\033[0m" // Magenta
		default:
			return fmt.Sprintf("[%s]", i)
		}
	}
	consoleWriter.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	consoleWriter.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("\033[1m%s:\033[0m", i) // Bold field names
	}
	consoleWriter.FormatFieldValue = func(i interface{}) string {
		return fmt.Sprintf("%v", i)
	}

	return zerolog.New(consoleWriter).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// SetLevel changes the minimum level written by every helper in this package.
func SetLevel(lvl zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	base = build(out, level)
}

// SetVerbose switches between debug and info output.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(zerolog.DebugLevel)
		return
	}
	SetLevel(zerolog.InfoLevel)
}

// SetOutput redirects log output, mostly useful in tests. nil restores
// stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
	base = build(out, level)
}

// With returns a logger carrying the given key/value fields.
func With(fields map[string]interface{}) zerolog.Logger {
	l := logger()
	return l.With().Fields(fields).Logger()
}

func Info(message string, args ...interface{}) {
	logger := logger()
	if len(args) == 0 {
		logger.Info().Msg(message)
	} else {
		logger.Info().Msgf(message, args...)
	}
}

func Warn(message string, args ...interface{}) {
	logger := logger()
	if len(args) == 0 {
		logger.Warn().Msg(message)
	} else {
		logger.Warn().Msgf(message, args...)
	}
}

func Error(message string, args ...interface{}) {
	logger := logger()
	if len(args) == 0 {
		logger.Error().Msg(message)
	} else {
		logger.Error().Msgf(message, args...)
	}
}

func Fatal(message string, args ...interface{}) {
	logger := logger()
	if len(args) == 0 {
		logger.Fatal().Msg(message)
	} else {
		logger.Fatal().Msgf(message, args...)
	}
}

func Debug(message string, args ...interface{}) {
	logger := logger()
	if len(args) == 0 {
		logger.Debug().Msg(message)
	} else {
		logger.Debug().Msgf(message, args...)
	}
}
