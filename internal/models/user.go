package models

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50;not null" json:"username"`
	DisplayName  string    `gorm:"uniqueIndex;size:100;not null" json:"display_name"` // shown as @name
	Email        string    `gorm:"uniqueIndex;not null" json:"-"`
	Password     string    `gorm:"not null" json:"-"` // Hash
	Bio          string    `gorm:"type:text" json:"bio"`
	AvatarURL    string    `json:"avatar_url"`
	KarmaScore   int       `gorm:"default:0;index" json:"karma_score"` // sum of karma_logs
	PostCount    int       `gorm:"default:0" json:"post_count"`
	CommentCount int       `gorm:"default:0" json:"comment_count"`
	IsVerified   bool      `gorm:"default:false" json:"is_verified"`
	IsActive     bool      `gorm:"default:true" json:"is_active"` // false = soft-disabled, never hard deleted
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
