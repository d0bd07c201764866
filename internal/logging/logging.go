package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogFilePath builds a log file path using OS-appropriate path separators.
func LogFilePath(logsDir, appName string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", appName, sessionStart.Format("20060102_150405")),
	)
}

// ParseLevel maps a case-insensitive level name to a zerolog level.
// Unknown names fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return zerolog.TraceLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "INFO":
		return zerolog.InfoLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New builds a logger writing colored console output to console and plain
// console-formatted lines to file. file may be nil.
func New(level zerolog.Level, console io.Writer, file io.Writer) zerolog.Logger {
	writers := []io.Writer{
		zerolog.ConsoleWriter{Out: console, TimeFormat: time.DateTime},
	}
	if file != nil {
		writers = append(writers, zerolog.ConsoleWriter{Out: file, TimeFormat: time.RFC3339, NoColor: true})
	}
	return zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Logger()
}

// Setup opens the session log file under logsDir and returns a logger that
// writes to stdout and that file. The returned closer releases the file.
func Setup(level, logsDir string, start time.Time) (zerolog.Logger, io.Closer, error) {
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to create logs dir: %w", err)
	}
	path := LogFilePath(logsDir, "wowsbot", start)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
	}

	logger := New(ParseLevel(level), os.Stdout, f)
	logger.Info().Str("loglevel", logger.GetLevel().String()).Str("file", path).Msg("Logging set up")
	return logger, f, nil
}

// Component derives a child logger tagged with the component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
