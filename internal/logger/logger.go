package logger

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger. Unknown levels fall back to
// info and unknown formats to JSON.
func Setup(level, format, service string) *log.Entry {
	log.SetLevel(parseLevel(level))

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&log.JSONFormatter{})
	}

	return log.WithField("service", service)
}

func parseLevel(s string) log.Level {
	lvl, err := log.ParseLevel(strings.TrimSpace(s))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}
