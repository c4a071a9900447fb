package logger

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// Init configures the process logger. Called once from the CLI.
func Init(levelStr string) {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

// L returns the process logger
func L() *logrus.Logger {
	return log
}

// WithStage returns a logger scoped to a pipeline stage and analysis ID
func WithStage(analysisID string, stage string) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"analysis": analysisID,
		"stage":    stage,
	})
}
