// Package tlog wraps logrus the way github.com/go-curses/cdk/log wraps it
// for its own core: a single package-level logger used for conditions the
// render pipeline must report without failing (pool mismatches, dirty-span
// overflow, capability downgrades). Nothing in the rendering core ever
// fails an operation because of what gets logged here.
package tlog

import (
	"os"

	"github.com/sirupsen/logrus"
)

var logger = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	if os.Getenv("TUICORE_DEBUG") != "" {
		l.SetLevel(logrus.TraceLevel)
	}
	return l
}

// SetOutput redirects the logger, mainly for tests that want to capture or
// silence output.
func SetOutput(w interface{ Write([]byte) (int, error) }) {
	logger.SetOutput(w)
}

// Warn logs a recoverable anomaly (pool mismatch, dirty-span overflow).
func Warn(format string, args ...any) {
	logger.Warnf(format, args...)
}

// Trace logs fine-grained diagnostic detail, only emitted when
// TUICORE_DEBUG is set.
func Trace(format string, args ...any) {
	logger.Tracef(format, args...)
}
