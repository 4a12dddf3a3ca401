package models

import (
	"time"

	"appealdesk/pkg/conversation"
	"appealdesk/pkg/fields"
)

// Channels a case can arrive through.
const (
	ChannelAPI      = "api"
	ChannelTelegram = "telegram"
	// SourceInbox marks uploads picked up by the inbox watcher.
	SourceInbox = "inbox"
)

// Case is one dispute conversation and its persisted session.
type Case struct {
	ID                uint `gorm:"primaryKey"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	UserID            *uint             `gorm:"index"`
	Channel           string            `gorm:"size:16;not null;default:api"`
	ChatID            int64             `gorm:"index"`
	Kind              string            `gorm:"size:16;index"`
	State             string            `gorm:"size:32;not null;index"`
	Step              int               `gorm:"not null;default:0"`
	Answers           map[string]string `gorm:"serializer:json"`
	Scanned           map[string]string `gorm:"serializer:json"`
	Contact           string            `gorm:"size:1024"`
	LetterFile        string            `gorm:"size:255"`
	LetterGeneratedAt *time.Time
	Uploads           []Upload `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

// Session rebuilds the conversation value stored on the row.
func (c *Case) Session() conversation.Session {
	s := conversation.Session{
		Kind:    fields.Kind(c.Kind),
		State:   conversation.State(c.State),
		Step:    c.Step,
		Answers: map[string]string{},
		Contact: c.Contact,
	}
	for k, v := range c.Answers {
		s.Answers[k] = v
	}
	if len(c.Scanned) > 0 {
		s.Scanned = fields.FieldMap{}
		for k, v := range c.Scanned {
			s.Scanned[k] = v
		}
	}
	if s.State == "" {
		s.State = conversation.StateSelection
	}
	return s
}

// SetSession copies s onto the row.
func (c *Case) SetSession(s conversation.Session) {
	c.Kind = string(s.Kind)
	c.State = string(s.State)
	c.Step = s.Step
	c.Answers = s.Answers
	c.Scanned = nil
	if len(s.Scanned) > 0 {
		c.Scanned = map[string]string(s.Scanned)
	}
	c.Contact = s.Contact
}
