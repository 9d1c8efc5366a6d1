package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *logrus.Logger

// InitLogger builds the singleton from the loaded config instead of raw
// environment lookups
func InitLogger(level, logFile string) *logrus.Logger {
	if level != "" {
		os.Setenv("LOG_LEVEL", level)
	}
	if logFile != "" {
		os.Setenv("LOG_FILE", logFile)
	}
	logger = nil
	return GetLogger()
}

// GetLogger returns a singleton logger instance
func GetLogger() *logrus.Logger {
	if logger == nil {
		logger = logrus.New()

		// Set log level from environment or default to info
		level := os.Getenv("LOG_LEVEL")
		if level == "" {
			level = "info"
		}

		logLevel, err := logrus.ParseLevel(level)
		if err != nil {
			logLevel = logrus.InfoLevel
		}
		logger.SetLevel(logLevel)

		// Set formatter
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})

		// Stdout by default; LOG_FILE adds rotated file output
		var out io.Writer = os.Stdout
		if logFile := os.Getenv("LOG_FILE"); logFile != "" {
			out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    50, // MB
				MaxBackups: 5,
				MaxAge:     30, // days
				Compress:   true,
			})
		}
		logger.SetOutput(out)
	}

	return logger
}
