package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Options select the log level and outputs.
type Options struct {
	Level string
	// File receives every log line; empty disables file output.
	File string
	// Console also writes human-readable lines to Console. Interactive
	// screens leave this nil so log output does not corrupt the display.
	Console io.Writer
	// NoColor disables ANSI colors on Console, e.g. when it is not a terminal.
	NoColor bool
}

// Logger is a zerolog.Logger together with the file it writes to.
type Logger struct {
	zerolog.Logger
	file *os.File
}

// New builds a logger. An unparsable level falls back to info.
func New(opts Options) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}

	var writers []io.Writer
	if opts.Console != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: opts.Console, TimeFormat: time.RFC3339, NoColor: opts.NoColor})
	}

	l := &Logger{}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		l.file = f
		writers = append(writers, f)
	}

	var out io.Writer = io.Discard
	if len(writers) > 0 {
		out = zerolog.MultiLevelWriter(writers...)
	}
	l.Logger = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return l, nil
}

// Component returns a child logger tagged with the component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
