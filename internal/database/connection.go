package database

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"github.com/codeforchange/hackportal/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Database хранилище портала: пользователи, команды, участники, сообщения
type Database struct {
	db *gorm.DB
}

// NewDatabase оборачивает уже открытое соединение, схема должна быть мигрирована
func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) Connect(dsn string) error {
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), Config())
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	d.db = db

	return d.Migrate()
}

// Config общие настройки gorm; TranslateError нужен, чтобы нарушения
// уникальных индексов приходили как gorm.ErrDuplicatedKey
func Config() *gorm.Config {
	return &gorm.Config{
		Logger: logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (d *Database) Migrate() error {
	return d.db.AutoMigrate(
		&models.User{},
		&models.UserProfile{},
		&models.Team{},
		&models.TeamMember{},
		&models.ChatMessage{},
	)
}

func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
