package logx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Unknown levels fall back to info, and any
// format other than "text" means JSON.
func New(level, format, service string) *logrus.Entry {
	return newWithOutput(os.Stdout, level, format, service)
}

func newWithOutput(w io.Writer, level, format, service string) *logrus.Entry {
	l := logrus.New()
	l.SetOutput(w)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
	return l.WithField("service", service)
}

// Discard is a logger for tests.
func Discard() *logrus.Entry {
	return newWithOutput(io.Discard, "panic", "text", "test")
}
