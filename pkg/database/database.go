// Package database opens the Postgres connection shared by the CLIs and the bot.
package database

import (
	"fmt"
	"log"
	"strings"

	"appealdesk/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open connects to dsn.
func Open(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return db, nil
}

// MustOpen is Open for command mains.
func MustOpen(dsn string) *gorm.DB {
	db, err := Open(dsn)
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	return db
}

// MigrateCases migrates the tables the bot and the inbox watcher write to.
func MigrateCases(db *gorm.DB) {
	if err := db.AutoMigrate(&models.Case{}); err != nil {
		log.Printf("migration warning (cases): %v", err)
	}
	if err := db.AutoMigrate(&models.Upload{}); err != nil {
		log.Printf("migration warning (uploads): %v", err)
	}
}
