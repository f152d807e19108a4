package models

import "time"

// Post is an immutable content record owned by a single user.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Content   string    `gorm:"type:text;not null;default:''" json:"content"`
	FileURL   *string   `json:"file_url,omitempty"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}
