// Package obslog is the engine's structured-logging wrapper, grounded on
// the teacher's pkg/reporting/logger.go (zerolog-backed Logger with
// level/format configuration and a global convenience logger).
package obslog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Level is a logging verbosity level.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Format selects the log line encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config configures a Logger.
type Config struct {
	Level  Level
	Format Format
	Output io.Writer
}

// Logger is a thin wrapper around a configured zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

// New builds a Logger from cfg, defaulting Output to os.Stdout.
func New(cfg Config) *Logger {
	out := resolveOutput(cfg)
	zl := zerolog.New(out).With().Timestamp().Logger().Level(levelOf(cfg.Level))
	return &Logger{zl: zl}
}

func resolveOutput(cfg Config) io.Writer {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	if cfg.Format == FormatText {
		return zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	return out
}

func levelOf(l Level) zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *Logger) Debug(msg string, fields map[string]any) { l.emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields map[string]any)  { l.emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields map[string]any)  { l.emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields map[string]any) { l.emit(l.zl.Error(), msg, fields) }

func (l *Logger) emit(ev *zerolog.Event, msg string, fields map[string]any) {
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// With returns a child Logger with one additional field attached to every
// subsequent log line.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// InitGlobal installs cfg as the process-wide default logger, used by
// packages that have no Logger of their own threaded through (e.g. the
// pre-connect sweep's swallowed errors, logged for operator visibility).
func InitGlobal(cfg Config) {
	out := resolveOutput(cfg)
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
	zerolog.SetGlobalLevel(levelOf(cfg.Level))
}
