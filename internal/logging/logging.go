package logging

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// New builds the application logger: human-readable console output plus an
// append-only log file, the same dual-sink arrangement the desktop app has
// always kept. The returned closer releases the file handle.
func New(logPath string) (zerolog.Logger, func() error, error) {
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, fmt.Errorf("open log file %s: %w", logPath, err)
	}

	console := zerolog.ConsoleWriter{Out: os.Stderr}
	logger := zerolog.New(zerolog.MultiLevelWriter(console, file)).
		With().Timestamp().Logger()
	return logger, file.Close, nil
}
