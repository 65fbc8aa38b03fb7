package db

import (
	"errors"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var errDBUnavailable = errors.New("database unavailable")

func Open(databaseURL string) (*gorm.DB, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is required")
	}
	return gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
}

func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return errDBUnavailable
	}
	return conn.AutoMigrate(&DrinkModel{})
}

// Reset drops and recreates the drinks table. Intended for first boot and
// test environments only; every stored record is lost.
func Reset(conn *gorm.DB) error {
	if conn == nil {
		return errDBUnavailable
	}
	if err := conn.Migrator().DropTable(&DrinkModel{}); err != nil {
		return err
	}
	return Migrate(conn)
}
