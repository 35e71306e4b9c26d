package services

import (
	"saladoverflow/internal/models"

	"gorm.io/gorm"
)

// Karma actions recorded in karma_logs.
const (
	ActionPostVote         = "post_vote"
	ActionCommentVote      = "comment_vote"
	ActionAnswerAccepted   = "answer_accepted"
	ActionAnswerUnaccepted = "answer_unaccepted"
)

// Karma weights.
const (
	KarmaPostUpvote      = 10
	KarmaPostDownvote    = -2
	KarmaCommentUpvote   = 5
	KarmaCommentDownvote = -1
	KarmaAcceptedAnswer  = 15
)

// voteWeight is the karma an author holds for a single vote in direction d.
func voteWeight(target models.VoteTarget, d models.VoteDirection) int {
	switch {
	case target == models.VoteTargetPost && d == models.VoteUp:
		return KarmaPostUpvote
	case target == models.VoteTargetPost && d == models.VoteDown:
		return KarmaPostDownvote
	case target == models.VoteTargetComment && d == models.VoteUp:
		return KarmaCommentUpvote
	case target == models.VoteTargetComment && d == models.VoteDown:
		return KarmaCommentDownvote
	}
	return 0
}

// addKarma 在事务中记录积分明细并刷新用户积分余额
func addKarma(tx *gorm.DB, userID uint, amount int, action string) error {
	if amount == 0 {
		return nil
	}
	entry := models.KarmaLog{
		UserID: userID,
		Amount: amount,
		Action: action,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}
	return recountKarma(tx, userID)
}

// recountKarma 用明细总和覆盖 users.karma_score
func recountKarma(tx *gorm.DB, userID uint) error {
	return tx.Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("karma_score", gorm.Expr(
			"(SELECT COALESCE(SUM(amount), 0) FROM karma_logs WHERE karma_logs.user_id = ?)", userID)).
		Error
}
