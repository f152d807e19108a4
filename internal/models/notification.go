package models

import (
	"fmt"
	"time"
)

// Notification records that a user created a post.
//
// UserID is the actor (the post's author), not a recipient. Every other user
// can see the notification, and Seen is one flag shared by all of them.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;index" json:"post_id"`
	Post      *Post     `gorm:"foreignKey:PostID" json:"-"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"-"`
	Message   string    `gorm:"not null" json:"message"`
	Timestamp time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
	Seen      bool      `gorm:"not null;default:false;index" json:"seen"`
}

// PostCreatedMessage is the message shown to other users when actor posts.
func PostCreatedMessage(actor *User) string {
	return fmt.Sprintf("%s uploaded a post", actor.FirstName)
}
