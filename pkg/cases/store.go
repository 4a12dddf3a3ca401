package cases

import (
	"context"
	"errors"

	"appealdesk/models"

	"gorm.io/gorm"
)

// Store persists cases and upload records.
type Store interface {
	CreateCase(ctx context.Context, c *models.Case) error
	SaveCase(ctx context.Context, c *models.Case) error
	CreateUploads(ctx context.Context, ups []models.Upload) error
}

// GormStore is the Postgres-backed Store.
type GormStore struct {
	DB *gorm.DB
}

func (s GormStore) CreateCase(ctx context.Context, c *models.Case) error {
	return s.DB.WithContext(ctx).Create(c).Error
}

func (s GormStore) SaveCase(ctx context.Context, c *models.Case) error {
	return s.DB.WithContext(ctx).Save(c).Error
}

func (s GormStore) CreateUploads(ctx context.Context, ups []models.Upload) error {
	if len(ups) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Create(&ups).Error
}

// LatestForChat returns the newest case of a Telegram chat, or nil when the
// chat has none yet.
func (s GormStore) LatestForChat(ctx context.Context, chatID int64) (*models.Case, error) {
	var c models.Case
	err := s.DB.WithContext(ctx).
		Where("channel = ? AND chat_id = ?", models.ChannelTelegram, chatID).
		Order("id desc").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}
