package shared

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// SetupLogger returns the root logger writing to stderr. level is a
// log_level config value; debug overrides it.
func SetupLogger(debug bool, level string) (*log.Logger, error) {
	lvl := log.InfoLevel
	if level != "" {
		var err error
		if lvl, err = log.ParseLevel(level); err != nil {
			return nil, err
		}
	}
	if debug {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	}), nil
}

// QuietLogger only reports errors, for commands whose output is the point.
func QuietLogger(w io.Writer, debug bool) *log.Logger {
	lvl := log.ErrorLevel
	if debug {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{Level: lvl})
}
