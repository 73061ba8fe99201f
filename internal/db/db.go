package db

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/vikasavnish/parentportal/internal/config"
	"github.com/vikasavnish/parentportal/internal/models"
)

// Connect establishes a connection to the database and migrates the schema
func Connect(cfg config.DatabaseConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.URL), Config(log.Named("gorm"), gormlogger.Warn))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	log.Info("database ready")

	return db, nil
}

// Config is the gorm configuration shared by every dialect. Driver errors
// are translated so unique violations surface as gorm.ErrDuplicatedKey.
func Config(log *zap.Logger, level gormlogger.LogLevel) *gorm.Config {
	return &gorm.Config{
		Logger:         NewGormLogger(log, level),
		TranslateError: true,
	}
}

// Migrate creates or updates the parents and children tables
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Parent{}, &models.Child{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// ConnectRedis establishes a connection to Redis
func ConnectRedis(cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	// Test the connection
	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return client, nil
}
