package models

import (
	"time"
)

type PostType string

const (
	PostTypeQuestion     PostType = "question"
	PostTypeDiscussion   PostType = "discussion"
	PostTypeAnnouncement PostType = "announcement"
)

// Valid reports whether t is one of the known post types.
func (t PostType) Valid() bool {
	switch t {
	case PostTypeQuestion, PostTypeDiscussion, PostTypeAnnouncement:
		return true
	}
	return false
}

type Post struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	Slug              string    `gorm:"size:400;index" json:"slug"`
	UserID            uint      `gorm:"not null;index" json:"author_id"`
	User              User      `json:"author"`
	Title             string    `gorm:"size:300;not null;index" json:"title"`
	Content           string    `gorm:"type:text;not null" json:"content"` // sanitized HTML
	ContentMarkdown   string    `gorm:"type:text" json:"content_markdown"` // original source, for editing
	ContentPlain      string    `gorm:"type:text" json:"content_plain"`    // search
	PostType          PostType  `gorm:"type:varchar(20);not null;default:'question';index" json:"post_type"`
	Tags              []Tag     `gorm:"many2many:post_tags;" json:"tags"`
	ViewCount         int       `gorm:"default:0" json:"view_count"`
	UpvoteCount       int       `gorm:"default:0" json:"upvote_count"`
	DownvoteCount     int       `gorm:"default:0" json:"downvote_count"`
	CommentCount      int       `gorm:"default:0" json:"comment_count"`
	AnswerCount       int       `gorm:"default:0" json:"answer_count"`
	AcceptedAnswerID  *uint     `gorm:"index" json:"accepted_answer_id"`
	HasAcceptedAnswer bool      `gorm:"default:false" json:"has_accepted_answer"`
	HasCode           bool      `gorm:"default:false" json:"has_code"`
	HasImages         bool      `gorm:"default:false" json:"has_images"`
	IsLocked          bool      `gorm:"default:false" json:"is_locked"`
	LastActivity      time.Time `gorm:"index" json:"last_activity"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
