package storage

import (
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var (
	// DB holds the database connection
	DB *gorm.DB
	// Err holds database connection error
	Err error
)

// DBConnection creates the database connection and runs migrations
func DBConnection(DSN string) error {
	var db *gorm.DB
	var err error
	for i := 0; i < 3; i++ { // Retry mechanism
		db, err = gorm.Open(postgres.Open(DSN), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err == nil {
			break
		}
		time.Sleep(2 * time.Second) // Wait before retrying
	}

	if err != nil {
		Err = err
		log.Println("Database connection error")
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		Err = err
		return err
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(2 * time.Minute)

	if err := db.AutoMigrate(&CustomerIntegration{}, &LiquidationAddress{}); err != nil {
		Err = err
		return err
	}

	DB = db

	return nil
}

// GetDB returns the database connection
func GetDB() *gorm.DB {
	return DB
}

// GetError returns the database connection error
func GetError() error {
	return Err
}
