package models

import (
	"time"

	"gorm.io/gorm"
)

// Post represents a blog post written by exactly one User.
// Ownership (UserID) is immutable after creation.
type Post struct {
	ID         string    `json:"id" gorm:"primaryKey;type:varchar(36)" validate:"omitempty,uuid"`
	Title      string    `json:"title" gorm:"type:varchar(100)" validate:"required,max=100"`
	Content    string    `json:"content" gorm:"type:text" validate:"required"`
	ImageFile  string    `json:"image_file" gorm:"type:varchar(64);default:'default.jpg'"`
	DatePosted time.Time `json:"date_posted" gorm:"index"` // sole ordering key for listings, descending
	UserID     string    `json:"user_id" gorm:"type:varchar(36);index;not null"`
	Author     User      `json:"author" gorm:"foreignKey:UserID"`
	gorm.Model           // Embed gorm.Model for CreatedAt, UpdatedAt, DeletedAt
}
