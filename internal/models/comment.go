package models

import (
	"time"
)

type Comment struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	PostID          uint      `gorm:"not null;index" json:"post_id"`
	UserID          uint      `gorm:"not null;index" json:"author_id"`
	User            User      `json:"author"`
	ParentID        *uint     `gorm:"index" json:"parent_id"` // Nullable for top-level comments
	Content         string    `gorm:"type:text;not null" json:"content"`
	ContentMarkdown string    `gorm:"type:text" json:"content_markdown"`
	ContentPlain    string    `gorm:"type:text" json:"content_plain"`
	UpvoteCount     int       `gorm:"default:0" json:"upvote_count"`
	DownvoteCount   int       `gorm:"default:0" json:"downvote_count"`
	ReplyCount      int       `gorm:"default:0" json:"reply_count"`
	IsAnswer        bool      `gorm:"default:false" json:"is_answer"`
	IsAccepted      bool      `gorm:"default:false;index" json:"is_accepted"`
	HasCode         bool      `gorm:"default:false" json:"has_code"`
	HasImages       bool      `gorm:"default:false" json:"has_images"`
	IsDeleted       bool      `gorm:"default:false" json:"is_deleted"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// 非数据库字段，树形展示时填充
	Depth    int           `gorm:"-" json:"depth"`
	Replies  []*Comment    `gorm:"-" json:"replies"`
	UserVote VoteDirection `gorm:"-" json:"user_vote"`
}

// IsTopLevel reports whether the comment hangs directly off its post.
func (c *Comment) IsTopLevel() bool {
	return c.ParentID == nil
}
