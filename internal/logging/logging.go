// Package logging provides the daemon's single structured logger,
// grounded on bnema-waymon/internal/logger: a package-level
// *charmbracelet/log.Logger configured from an environment variable,
// with Infof/Warnf/Fatalf wrappers. Trimmed to what a single-process
// daemon needs — no UI notifier or log-forwarding hooks, since keyd has
// no UI to notify.
package logging

import (
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger is the daemon-wide logger. cmd/keyd passes it to
// dispatcher.WithLogger and logs its own warnings through the helpers
// below.
var Logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

func init() {
	SetLevel(os.Getenv("KEYD_LOG_LEVEL"))
}

// SetLevel maps a level name (case-insensitive; empty defaults to
// info) onto charmbracelet/log's level, the same switch
// bnema-waymon/internal/logger.SetLevel uses.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		Logger.SetLevel(log.DebugLevel)
	case "WARN", "WARNING":
		Logger.SetLevel(log.WarnLevel)
	case "ERROR":
		Logger.SetLevel(log.ErrorLevel)
	default:
		Logger.SetLevel(log.InfoLevel)
	}
}

// Infof logs at info level through Logger. The original daemon logged a
// successful device match in green (daemon.c:184); charmbracelet/log's
// InfoLevel styling already renders this distinctly, so no raw ANSI
// codes are reproduced here.
func Infof(format string, args ...interface{}) { Logger.Infof(format, args...) }

// Warnf logs at warn level through Logger. The original daemon logged an
// ignored device in red (daemon.c:193); WarnLevel is the equivalent.
func Warnf(format string, args ...interface{}) { Logger.Warnf(format, args...) }

// Fatalf logs at fatal level and exits, mirroring daemon.c's die().
func Fatalf(format string, args ...interface{}) { Logger.Fatalf(format, args...) }
