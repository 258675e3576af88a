package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New логгер с единым форматом для репозиториев и сервисов.
// Уровень берется из LOG_LEVEL, по умолчанию info.
func New() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(levelFromEnv())
	return logger
}

func levelFromEnv() logrus.Level {
	raw := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if raw == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(raw)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
