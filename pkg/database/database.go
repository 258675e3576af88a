package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config параметры подключения
type Config struct {
	Driver string
	URL    string
}

// Open подключается к БД выбранным драйвером. Ошибки драйвера переводятся
// в ошибки gorm (gorm.ErrDuplicatedKey и т.п.).
func Open(cfg Config, log *logrus.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: cfg.driver() == DriverSQLite,
		TranslateError:                           true,
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if cfg.driver() == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get database instance: %w", err)
		}
		// Одно соединение: PRAGMA действует на него, а запись в SQLite и так последовательная
		sqlDB.SetMaxOpenConns(1)

		if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
			log.WithError(err).Warn("Failed to enable foreign keys")
		}
	}

	log.WithFields(logrus.Fields{
		"driver": cfg.driver(),
	}).Info("Database connection established")

	return db, nil
}

// Close закрывает пул соединений
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg Config) (gorm.Dialector, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	switch cfg.driver() {
	case DriverSQLite:
		return sqlite.Open(cfg.URL), nil
	case DriverPostgres:
		return postgres.Open(cfg.URL), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func (c Config) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Driver))
	if d == "" {
		return DriverSQLite
	}
	return d
}
