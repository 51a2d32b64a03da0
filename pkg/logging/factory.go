// Package logging builds the loggers shared by the command-line tools.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New creates a logger writing to w, normally stderr so that converted
// rows on stdout stay clean. Quiet drops everything below errors and
// takes precedence over verbose.
func New(w io.Writer, quiet, verbose bool) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	switch {
	case quiet:
		logger.SetLevel(log.ErrorLevel)
	case verbose:
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
