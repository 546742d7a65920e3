// Package logging builds the logger used for a backup run.
package logging

import (
	"fmt"
	"io"
	"log/syslog"
	"os"

	"github.com/sirupsen/logrus"
	lsyslog "github.com/sirupsen/logrus/hooks/syslog"
)

// SyslogTag identifies our messages in the system log
const SyslogTag = "ebs-autobackup"

// Options configures the logger
type Options struct {
	Level  string // logrus level name, e.g. "info"
	Syslog bool   // send entries to the local syslog instead of Output
	Output io.Writer
}

// New creates a logger. When syslog is requested but cannot be reached the
// logger keeps writing to Output and says so.
func New(opts Options) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	log := logrus.New()
	log.SetLevel(level)
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if !opts.Syslog {
		return log, nil
	}

	hook, err := lsyslog.NewSyslogHook("", "", syslog.LOG_INFO|syslog.LOG_DAEMON, SyslogTag)
	if err != nil {
		log.WithError(err).Warn("Syslog unavailable, logging to stderr")
		return log, nil
	}

	// syslog stamps its own time
	log.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableColors:    true,
	})
	log.AddHook(hook)
	log.SetOutput(io.Discard)
	return log, nil
}
