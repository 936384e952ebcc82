package utils

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	once   sync.Once
	logger *log.Logger
)

// Logger returns the process wide diagnostics logger, writing to stderr.
func Logger() *log.Logger {
	once.Do(func() {
		logger = NewLogger(os.Stderr)
	})
	return logger
}

func NewLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "hyperbola",
		Level:           log.InfoLevel,
	})
}

// SetLogLevel accepts debug, info, warn and error.
func SetLogLevel(l *log.Logger, level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	l.SetLevel(lvl)
	return nil
}
