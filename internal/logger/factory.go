package logger

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Component returns the default logger tagged with a component prefix.
// It is derived on every call so it follows later level changes.
func Component(name string) *log.Logger {
	return log.Default().WithPrefix(name)
}

// Setup configures the global logger. Debug wins over level.
func Setup(debug bool, level log.Level, format string) {
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(level)
	}

	switch strings.ToLower(format) {
	case "json":
		log.SetFormatter(log.JSONFormatter)
	case "logfmt":
		log.SetFormatter(log.LogfmtFormatter)
	default:
		log.SetFormatter(log.TextFormatter)
	}
}

// ParseLevel maps a config string to a level, defaulting to info.
func ParseLevel(s string) log.Level {
	level, err := log.ParseLevel(strings.ToLower(s))
	if err != nil {
		return log.InfoLevel
	}
	return level
}
