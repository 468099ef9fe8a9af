package trellis

import "github.com/sirupsen/logrus"

var log = logrus.New()

// Logger exposes the package logger so applications can redirect or
// reformat trellis output.
func Logger() *logrus.Logger { return log }

// SetLogLevel adjusts verbosity. Unknown levels are ignored with a warning.
func SetLogLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		log.WithField("level", level).Warn("unknown log level")
		return
	}
	log.SetLevel(lvl)
}
