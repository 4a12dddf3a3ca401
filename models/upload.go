package models

import (
	"time"
)

// Upload records one document's extraction outcome. Image bytes are never stored.
type Upload struct {
	ID          uint `gorm:"primaryKey"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	UserID      *uint             `gorm:"index"`
	CaseID      *uint             `gorm:"index"`                            // FK to cases.id (nullable for stateless extraction)
	Source      string            `gorm:"size:16;not null;default:api;index"` // api, telegram or inbox
	FileName    string            `gorm:"size:255;not null"`
	ContentType string            `gorm:"size:128"`
	Kind        string            `gorm:"size:16;not null;index"`
	Fields      map[string]string `gorm:"serializer:json"`
	FieldsFound int
	// Mark upload as failed (decode error) but keep the record so an admin can review it
	Failed       bool   `gorm:"default:false;index"`
	FailedReason string `gorm:"size:255"`
}
