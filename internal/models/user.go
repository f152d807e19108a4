// Package models contains data structures for the application's domain models.
package models

import "time"

// User is an account that can sign in, post and see notifications.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PhoneNumber  string    `gorm:"uniqueIndex;not null" json:"phone_number"`
	PasswordHash string    `gorm:"not null" json:"-"`
	FirstName    string    `gorm:"not null" json:"first_name"`
	LastName     string    `gorm:"not null" json:"last_name"`
	CreatedAt    time.Time `json:"created_at"`
}
