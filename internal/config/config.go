package config

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"attendance-bot/internal/correction"
)

type Config struct {
	TelegramToken   string
	TelegramDebug   bool
	BaseAdminChatID int64

	DatabaseDriver string
	DatabaseURL    string

	HTTPAddr string

	MessagesFile string
	IssueMode    correction.Mode
	Location     *time.Location
}

var instance *Config
var once sync.Once

// GetConfig читает окружение один раз. Файл .env необязателен.
func GetConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			logrus.Infof("No .env file loaded: %s", err.Error())
		}
		instance = Load()
	})

	return instance
}

// Load собирает конфиг из текущего окружения без кеширования
func Load() *Config {
	cfg := &Config{}

	cfg.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
	cfg.TelegramDebug = getEnvAsBool("TELEGRAM_DEBUG", false)
	cfg.BaseAdminChatID = getEnvAsInt("BASE_ADMIN_CHAT_ID", 0)

	cfg.DatabaseDriver = getEnv("DATABASE_DRIVER", "sqlite")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "attendance.db")
	if cfg.DatabaseURL == "" {
		logrus.Fatal("could not get db url")
	}

	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8080")
	cfg.MessagesFile = getEnv("MESSAGES_FILE", "")
	cfg.IssueMode = correction.ParseMode(getEnv("ISSUE_MODE", "first"))

	cfg.Location = time.Local
	if name := getEnv("TIMEZONE", ""); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			logrus.Fatalf("invalid TIMEZONE %q: %s", name, err.Error())
		}
		cfg.Location = loc
	}

	if cfg.TelegramToken == "" && cfg.HTTPAddr == "" {
		logrus.Fatal("neither TELEGRAM_BOT_TOKEN nor HTTP_ADDR is set, nothing to run")
	}

	return cfg
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}
