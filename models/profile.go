package models

import (
	"strings"
	"time"
)

// Profile holds the contact details printed on a user's letters (one-to-one with User).
type Profile struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt *time.Time `gorm:"index"`
	// Active indicates whether the profile is active. Use this for soft-state
	// instead of physically deleting the record. Defaults to true.
	Active  bool   `gorm:"default:true;not null"`
	UserID  uint   `gorm:"uniqueIndex;not null"` // one-to-one relation
	User    User   `gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
	Name    string `gorm:"size:255;not null"` // mandatory
	Address string `gorm:"size:512"`
	Email   string `gorm:"size:255"`
	Phone   string `gorm:"size:64"`
}

// ContactBlock renders the profile as the labeled lines a letter parses.
// An inactive profile yields "".
func (p *Profile) ContactBlock() string {
	if p == nil || !p.Active || strings.TrimSpace(p.Name) == "" {
		return ""
	}
	lines := []string{"Full Name: " + p.Name}
	if p.Address != "" {
		lines = append(lines, "Address: "+p.Address)
	}
	if p.Phone != "" {
		lines = append(lines, "Phone Number: "+p.Phone)
	}
	if p.Email != "" {
		lines = append(lines, "Email: "+p.Email)
	}
	return strings.Join(lines, "\n")
}
