package services

import (
	"context"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/models"

	"gorm.io/gorm"
)

// RecountReport says how many rows of each kind were rewritten.
type RecountReport struct {
	Posts            int `json:"posts"`
	Comments         int `json:"comments"`
	Tags             int `json:"tags"`
	Users            int `json:"users"`
	AcceptedRepaired int `json:"accepted_repaired"`
}

// MaintenanceService repairs derived state.
type MaintenanceService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewMaintenanceService(gdb *gorm.DB, store cache.Store) *MaintenanceService {
	return &MaintenanceService{db: gdb, cache: store}
}

// Recount rebuilds every derived counter from the ledgers and clears
// accepted flags that break the one-accepted-answer rules.
func (s *MaintenanceService) Recount(ctx context.Context) (*RecountReport, error) {
	report := &RecountReport{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repaired, err := repairAccepted(tx)
		if err != nil {
			return err
		}
		report.AcceptedRepaired = repaired

		var postIDs []uint
		if err := tx.Model(&models.Post{}).Order("id").Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		for _, id := range postIDs {
			if _, _, err := recountVotes(tx, models.VoteTargetPost, id); err != nil {
				return err
			}
			if err := recountPostComments(tx, id); err != nil {
				return err
			}
			if _, err := recountAccepted(tx, id); err != nil {
				return err
			}
		}
		report.Posts = len(postIDs)

		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Order("id").Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		for _, id := range commentIDs {
			if _, _, err := recountVotes(tx, models.VoteTargetComment, id); err != nil {
				return err
			}
			if err := recountReplies(tx, id); err != nil {
				return err
			}
		}
		report.Comments = len(commentIDs)

		var tagIDs []uint
		if err := tx.Model(&models.Tag{}).Order("id").Pluck("id", &tagIDs).Error; err != nil {
			return err
		}
		if err := recountTagPosts(tx, tagIDs); err != nil {
			return err
		}
		report.Tags = len(tagIDs)

		var userIDs []uint
		if err := tx.Model(&models.User{}).Order("id").Pluck("id", &userIDs).Error; err != nil {
			return err
		}
		for _, id := range userIDs {
			if err := recountUserPosts(tx, id); err != nil {
				return err
			}
			if err := recountUserComments(tx, id); err != nil {
				return err
			}
			if err := recountKarma(tx, id); err != nil {
				return err
			}
		}
		report.Users = len(userIDs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, cache.PrefixPosts, cache.PrefixTags, cache.PrefixUsers)
	return report, nil
}

// repairAccepted clears is_accepted on replies, non-answers, deleted
// comments and comments outside questions, then keeps only the oldest
// accepted answer per post.
func repairAccepted(tx *gorm.DB) (int, error) {
	questions := tx.Model(&models.Post{}).Select("id").Where("post_type = ?", models.PostTypeQuestion)
	res := tx.Model(&models.Comment{}).
		Where("is_accepted = ?", true).
		Where("parent_id IS NOT NULL OR is_answer = ? OR is_deleted = ? OR post_id NOT IN (?)", false, true, questions).
		UpdateColumn("is_accepted", false)
	if res.Error != nil {
		return 0, res.Error
	}
	repaired := int(res.RowsAffected)

	var accepted []models.Comment
	if err := tx.Select("id, post_id").Where("is_accepted = ?", true).Order("post_id").Order("id").
		Find(&accepted).Error; err != nil {
		return 0, err
	}
	seen := make(map[uint]bool, len(accepted))
	for _, c := range accepted {
		if !seen[c.PostID] {
			seen[c.PostID] = true
			continue
		}
		if err := tx.Model(&models.Comment{}).Where("id = ?", c.ID).UpdateColumn("is_accepted", false).Error; err != nil {
			return 0, err
		}
		repaired++
	}
	return repaired, nil
}
