package models

import (
	"time"
)

// Tag keeps the casing it was first created with in Name; Slug is the
// lower-cased lookup key.
type Tag struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	Slug        string    `gorm:"uniqueIndex;size:50;not null" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Color       string    `gorm:"size:7" json:"color"`
	PostCount   int       `gorm:"default:0;index" json:"post_count"`
	CreatedAt   time.Time `json:"created_at"`
}
