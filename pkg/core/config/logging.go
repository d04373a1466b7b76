package config

import (
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig contains configuration related to logging
type LogConfig struct {
	// Valid values are 'debug', 'info', 'warning', and 'error'
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn warning error"`
	// The log output format to use.  Valid values are: `text`, `json`.
	Format string `yaml:"format" default:"text" validate:"oneof=text json"`
}

// LogrusLevel returns a logrus log level based on the configured level in
// LogConfig.
func (lc *LogConfig) LogrusLevel() logrus.Level {
	if lc.Level != "" {
		level, err := logrus.ParseLevel(strings.ToLower(lc.Level))
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"level": lc.Level,
			}).Error("Invalid log level")
			return logrus.InfoLevel
		}
		return level
	}
	return logrus.InfoLevel
}

// LogrusFormatter returns the formatter for the configured format, or nil
// if the text formatter set up at startup should be kept.
func (lc *LogConfig) LogrusFormatter() logrus.Formatter {
	if strings.ToLower(lc.Format) == "json" {
		return &logrus.JSONFormatter{}
	}
	return nil
}

// ZapLogger creates a zap logging instance configured similarly to logrus.
func ZapLogger() *zap.Logger {
	var level zapcore.Level
	switch logrus.GetLevel() {
	case logrus.TraceLevel:
		level = zapcore.DebugLevel
	case logrus.DebugLevel:
		level = zapcore.DebugLevel
	case logrus.InfoLevel:
		level = zapcore.InfoLevel
	case logrus.WarnLevel:
		level = zapcore.WarnLevel
	case logrus.ErrorLevel:
		level = zapcore.ErrorLevel
	case logrus.FatalLevel:
		level = zapcore.FatalLevel
	case logrus.PanicLevel:
		level = zapcore.PanicLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)

	switch logrus.StandardLogger().Formatter.(type) {
	case *logrus.JSONFormatter:
		cfg.Encoding = "json"
	default:
		cfg.Encoding = "console"
	}

	logger, err := cfg.Build()
	if err != nil {
		logrus.WithError(err).Warn("Failed creating zap logger, zap logs will be missing")
		return zap.NewNop()
	}
	return logger
}
