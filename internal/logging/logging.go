package logging

import (
	"io"
	"log/syslog"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"
)

const EnvLogLevel = "XMAS_LOG_LEVEL"

// Level reads the log level from XMAS_LOG_LEVEL, info when unset or unknown.
// There is nothing below debug, trace is taken as debug.
func Level() log.Level {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(EnvLogLevel)))
	switch raw {
	case "warning":
		raw = "warn"
	case "trace":
		raw = "debug"
	}
	level, err := log.ParseLevel(raw)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// New returns a logger writing to stderr.
func New(prefix string) *log.Logger {
	return NewWithWriter(os.Stderr, prefix, true)
}

func NewWithWriter(w io.Writer, prefix string, timestamps bool) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           Level(),
		ReportTimestamp: timestamps,
	})
}

// NewSyslog returns a logger writing to the system logger under the daemon
// facility. Syslog adds its own timestamp and tag, so the entries carry
// neither.
func NewSyslog(tag string) (*log.Logger, error) {
	w, err := syslog.New(syslog.LOG_NOTICE|syslog.LOG_DAEMON, tag)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to syslog")
	}
	logger := log.NewWithOptions(w, log.Options{
		Level:     Level(),
		Formatter: log.LogfmtFormatter,
	})
	return logger, nil
}
