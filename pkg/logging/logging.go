// Package logging sets up the process-wide zerolog logger.
//
// While the full-screen interface owns the terminal, log lines must not reach
// stdout or stderr, so the default destination is a rotated file.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// StderrTarget as a log file sends output to stderr instead of a file.
const StderrTarget = "-"

type Options struct {
	Level string
	// File is the log file path, StderrTarget, or empty to discard.
	File string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// ParseLevel converts a string level into zerolog.Level with a safe default.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	case "info":
		fallthrough
	default:
		return zerolog.InfoLevel
	}
}

// Writer returns the destination for opts.File.
func Writer(opts Options) (io.Writer, error) {
	switch opts.File {
	case "":
		return io.Discard, nil
	case StderrTarget:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
		return nil, errors.Wrapf(err, "could not create log directory for %s", opts.File)
	}
	lj := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    orDefault(opts.MaxSizeMB, 10),
		MaxBackups: orDefault(opts.MaxBackups, 3),
		MaxAge:     orDefault(opts.MaxAgeDays, 28),
	}
	return lj, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// Init installs the global logger and returns it tagged with a fresh session
// id.
func Init(opts Options) (zerolog.Logger, error) {
	w, err := Writer(opts)
	if err != nil {
		return zerolog.Nop(), err
	}

	level := ParseLevel(opts.Level)
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(w).With().
		Timestamp().
		Str("session", uuid.NewString()).
		Logger().
		Level(level)
	log.Logger = logger

	logger.Debug().Str("level", level.String()).Str("file", opts.File).Msg("logger initialized")
	return logger, nil
}
