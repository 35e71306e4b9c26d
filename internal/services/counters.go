package services

import (
	"saladoverflow/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Derived counters are always rewritten from aggregates inside the caller's
// transaction, never incremented from values read earlier.

func lockPost(tx *gorm.DB, postID uint) (*models.Post, error) {
	var post models.Post
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&post, postID).Error; err != nil {
		return nil, notFound(err, "post")
	}
	return &post, nil
}

func lockComment(tx *gorm.DB, commentID uint) (*models.Comment, error) {
	var comment models.Comment
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Take(&comment, commentID).Error; err != nil {
		return nil, notFound(err, "comment")
	}
	return &comment, nil
}

func recountVotes(tx *gorm.DB, target models.VoteTarget, targetID uint) (up, down int64, err error) {
	var rows []struct {
		Value int
		N     int64
	}
	err = tx.Model(&models.Vote{}).
		Select("value, COUNT(*) AS n").
		Where("target_type = ? AND target_id = ?", target, targetID).
		Group("value").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}
	for _, r := range rows {
		switch {
		case r.Value > 0:
			up += r.N
		case r.Value < 0:
			down += r.N
		}
	}

	var model interface{} = &models.Post{}
	if target == models.VoteTargetComment {
		model = &models.Comment{}
	}
	err = tx.Model(model).Where("id = ?", targetID).UpdateColumns(map[string]interface{}{
		"upvote_count":   up,
		"downvote_count": down,
	}).Error
	return up, down, err
}

func recountPostComments(tx *gorm.DB, postID uint) error {
	var comments, answers int64
	if err := tx.Model(&models.Comment{}).
		Where("post_id = ? AND is_deleted = ?", postID, false).
		Count(&comments).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Comment{}).
		Where("post_id = ? AND is_deleted = ? AND is_answer = ?", postID, false, true).
		Count(&answers).Error; err != nil {
		return err
	}
	return tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumns(map[string]interface{}{
		"comment_count": comments,
		"answer_count":  answers,
	}).Error
}

func recountReplies(tx *gorm.DB, commentID uint) error {
	var n int64
	if err := tx.Model(&models.Comment{}).
		Where("parent_id = ? AND is_deleted = ?", commentID, false).
		Count(&n).Error; err != nil {
		return err
	}
	return tx.Model(&models.Comment{}).Where("id = ?", commentID).UpdateColumn("reply_count", n).Error
}

// recountAccepted derives the post's accepted-answer fields from its comments.
func recountAccepted(tx *gorm.DB, postID uint) (*uint, error) {
	var ids []uint
	if err := tx.Model(&models.Comment{}).
		Where("post_id = ? AND is_accepted = ? AND is_deleted = ?", postID, true, false).
		Order("id").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	var accepted *uint
	if len(ids) > 0 {
		accepted = &ids[0]
	}
	err := tx.Model(&models.Post{}).Where("id = ?", postID).UpdateColumns(map[string]interface{}{
		"accepted_answer_id":  accepted,
		"has_accepted_answer": accepted != nil,
	}).Error
	return accepted, err
}

func recountUserPosts(tx *gorm.DB, userID uint) error {
	var n int64
	if err := tx.Model(&models.Post{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).UpdateColumn("post_count", n).Error
}

func recountUserComments(tx *gorm.DB, userID uint) error {
	var n int64
	if err := tx.Model(&models.Comment{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Count(&n).Error; err != nil {
		return err
	}
	return tx.Model(&models.User{}).Where("id = ?", userID).UpdateColumn("comment_count", n).Error
}

func recountTagPosts(tx *gorm.DB, tagIDs []uint) error {
	for _, id := range uniqueIDs(tagIDs) {
		var n int64
		if err := tx.Table("post_tags").Where("tag_id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Tag{}).Where("id = ?", id).UpdateColumn("post_count", n).Error; err != nil {
			return err
		}
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
