package models

import (
	"time"
)

type VoteTarget string

const (
	VoteTargetPost    VoteTarget = "post"
	VoteTargetComment VoteTarget = "comment"
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "upvote"
	VoteDown VoteDirection = "downvote"
	VoteNone VoteDirection = ""
)

// Value maps a direction onto the stored ledger value.
func (d VoteDirection) Value() int {
	switch d {
	case VoteUp:
		return 1
	case VoteDown:
		return -1
	}
	return 0
}

// DirectionOf is the inverse of VoteDirection.Value.
func DirectionOf(value int) VoteDirection {
	switch {
	case value > 0:
		return VoteUp
	case value < 0:
		return VoteDown
	}
	return VoteNone
}

// Vote is one row of the ledger. One vote per item per user is enforced by
// idx_vote_user_target; a missing row means "no vote".
type Vote struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_vote_user_target" json:"user_id"`
	TargetType VoteTarget `gorm:"type:varchar(10);not null;uniqueIndex:idx_vote_user_target;index:idx_vote_target" json:"target_type"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_vote_user_target;index:idx_vote_target" json:"target_id"`
	Value      int        `gorm:"not null" json:"value"` // 1 or -1
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
