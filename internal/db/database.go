package db

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/savoryhq/savory-backend/config"
	"github.com/savoryhq/savory-backend/pkg/logger"
)

var database *gorm.DB

// Initialize opens the Postgres connection pool and runs migrations
func Initialize(cfg *config.Config) error {
	log := logger.Get()

	gormLogLevel := gormlogger.Silent
	if cfg.Server.GinMode == "debug" {
		gormLogLevel = gormlogger.Info
	}

	dsn := cfg.Database.DSN()
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormLogLevel),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database handle: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	database = db

	if err := Migrate(database); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("database connected", map[string]interface{}{
		"host": cfg.Database.Host,
		"name": cfg.Database.DBName,
	})
	return nil
}

// GetDB returns the shared database handle
func GetDB() *gorm.DB {
	return database
}

// Close shuts down the underlying connection pool
func Close() error {
	if database == nil {
		return nil
	}
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
