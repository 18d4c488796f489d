package zensegur

import (
	"io"
	"os"

	"github.com/bombsimon/logrusr/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func newLog(cfg *Config) *logrus.Logger {
	return NewLogger(os.Stderr, cfg.LogLevel)
}

func NewLogger(out io.Writer, level string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logger.WithField("level", level).Warn("unknown log level, using info")
		lvl = logrus.InfoLevel
	}
	logger.SetLevel(lvl)
	return logger
}

// driverLoggerOptions routes the driver's own logs through logrus. The driver
// stays quiet unless the application runs at debug level.
func driverLoggerOptions(logger *logrus.Logger) *options.LoggerOptions {
	sink := logrusr.New(logger.WithField("component", "mongo-driver")).GetSink()

	opts := options.Logger().SetSink(sink).SetMaxDocumentLength(256)
	if logger.IsLevelEnabled(logrus.DebugLevel) {
		opts.SetComponentLevel(options.LogComponentCommand, options.LogLevelDebug)
		opts.SetComponentLevel(options.LogComponentConnection, options.LogLevelDebug)
	}
	return opts
}
