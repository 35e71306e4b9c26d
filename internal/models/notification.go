package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeNewAnswer      NotificationType = "new_answer"
	NotificationTypeReplyComment   NotificationType = "reply_comment"
	NotificationTypeAnswerAccepted NotificationType = "answer_accepted"
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    uint             `gorm:"not null;index" json:"user_id"` // Receiver
	ActorID   *uint            `gorm:"index" json:"actor_id"`         // Sender
	Actor     *User            `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	PostID    uint             `gorm:"not null;index" json:"post_id"`
	CommentID *uint            `json:"comment_id"`
	Message   string           `gorm:"type:text" json:"message"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
