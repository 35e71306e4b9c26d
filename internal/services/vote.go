package services

import (
	"context"
	"errors"
	"fmt"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/models"

	"gorm.io/gorm"
)

type VoteAction string

const (
	VoteCreated VoteAction = "created"
	VoteChanged VoteAction = "changed"
	VoteRemoved VoteAction = "removed"
)

// VoteResult is the tally of a target right after the caller's vote was applied.
type VoteResult struct {
	TargetType    models.VoteTarget    `json:"target_type"`
	TargetID      uint                 `json:"target_id"`
	UpvoteCount   int64                `json:"upvote_count"`
	DownvoteCount int64                `json:"downvote_count"`
	UserVote      models.VoteDirection `json:"user_vote"`
	Action        VoteAction           `json:"action"`
}

// VoteService owns the vote ledger for posts and comments.
type VoteService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewVoteService(gdb *gorm.DB, store cache.Store) *VoteService {
	return &VoteService{db: gdb, cache: store}
}

// SetVote applies a vote in the given direction. Repeating the current
// direction clears the vote; the opposite direction replaces it.
func (s *VoteService) SetVote(ctx context.Context, actor *models.User, target models.VoteTarget, targetID uint, direction models.VoteDirection) (*VoteResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if direction != models.VoteUp && direction != models.VoteDown {
		return nil, fmt.Errorf("%w: vote_type must be upvote or downvote", ErrValidation)
	}
	if target != models.VoteTargetPost && target != models.VoteTargetComment {
		return nil, fmt.Errorf("%w: unknown vote target %q", ErrValidation, target)
	}

	result := &VoteResult{TargetType: target, TargetID: targetID}
	karmaMoved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		authorID, err := lockVoteTarget(tx, target, targetID)
		if err != nil {
			return err
		}

		var existing models.Vote
		previous := models.VoteNone
		err = tx.Where("user_id = ? AND target_type = ? AND target_id = ?", actor.ID, target, targetID).
			Take(&existing).Error
		switch {
		case err == nil:
			previous = models.DirectionOf(existing.Value)
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		current := direction
		switch {
		case previous == models.VoteNone:
			vote := models.Vote{UserID: actor.ID, TargetType: target, TargetID: targetID, Value: direction.Value()}
			if err := tx.Create(&vote).Error; err != nil {
				return err
			}
			result.Action = VoteCreated
		case previous == direction:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			current = models.VoteNone
			result.Action = VoteRemoved
		default:
			if err := tx.Model(&existing).Update("value", direction.Value()).Error; err != nil {
				return err
			}
			result.Action = VoteChanged
		}
		result.UserVote = current

		result.UpvoteCount, result.DownvoteCount, err = recountVotes(tx, target, targetID)
		if err != nil {
			return err
		}

		// 自己给自己投票不计积分
		if authorID == actor.ID {
			return nil
		}
		action := ActionPostVote
		if target == models.VoteTargetComment {
			action = ActionCommentVote
		}
		delta := voteWeight(target, current) - voteWeight(target, previous)
		karmaMoved = delta != 0
		return addKarma(tx, authorID, delta, action)
	})
	if err != nil {
		return nil, err
	}

	if target == models.VoteTargetPost {
		invalidate(ctx, s.cache, cache.PrefixPosts)
	}
	// 积分变动后排行榜缓存失效
	if karmaMoved {
		invalidate(ctx, s.cache, cache.PrefixUsers)
	}
	return result, nil
}

// UserVote returns the caller's current direction on a target, VoteNone if none.
func (s *VoteService) UserVote(ctx context.Context, userID uint, target models.VoteTarget, targetID uint) (models.VoteDirection, error) {
	votes, err := s.UserVotes(ctx, userID, target, []uint{targetID})
	if err != nil {
		return models.VoteNone, err
	}
	return votes[targetID], nil
}

// UserVotes looks up the caller's votes on several targets of one kind at once.
func (s *VoteService) UserVotes(ctx context.Context, userID uint, target models.VoteTarget, targetIDs []uint) (map[uint]models.VoteDirection, error) {
	out := make(map[uint]models.VoteDirection, len(targetIDs))
	if userID == 0 || len(targetIDs) == 0 {
		return out, nil
	}
	var votes []models.Vote
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND target_type = ? AND target_id IN ?", userID, target, targetIDs).
		Find(&votes).Error; err != nil {
		return nil, err
	}
	for _, v := range votes {
		out[v.TargetID] = models.DirectionOf(v.Value)
	}
	return out, nil
}

// lockVoteTarget locks the voted row and returns its author.
func lockVoteTarget(tx *gorm.DB, target models.VoteTarget, targetID uint) (uint, error) {
	if target == models.VoteTargetPost {
		post, err := lockPost(tx, targetID)
		if err != nil {
			return 0, err
		}
		return post.UserID, nil
	}
	comment, err := lockComment(tx, targetID)
	if err != nil {
		return 0, err
	}
	if comment.IsDeleted {
		return 0, fmt.Errorf("%w: comment", ErrNotFound)
	}
	return comment.UserID, nil
}
