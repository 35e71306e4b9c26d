package services

import (
	"context"
	"errors"

	"saladoverflow/internal/models"

	"gorm.io/gorm"
)

type BookmarkResult struct {
	PostID        uint  `json:"post_id"`
	IsBookmarked  bool  `json:"is_bookmarked"`
	BookmarkCount int64 `json:"bookmark_count"`
}

// BookmarkService keeps at most one bookmark per (user, post).
type BookmarkService struct {
	db *gorm.DB
}

func NewBookmarkService(gdb *gorm.DB) *BookmarkService {
	return &BookmarkService{db: gdb}
}

// ToggleBookmark adds the bookmark when absent and removes it when present.
func (s *BookmarkService) ToggleBookmark(ctx context.Context, actor *models.User, postID uint) (*BookmarkResult, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	result := &BookmarkResult{PostID: postID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockPost(tx, postID); err != nil {
			return err
		}

		var existing models.Bookmark
		err := tx.Where("user_id = ? AND post_id = ?", actor.ID, postID).Take(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&models.Bookmark{UserID: actor.ID, PostID: postID}).Error; err != nil {
				return err
			}
			result.IsBookmarked = true
		default:
			return err
		}

		return tx.Model(&models.Bookmark{}).Where("post_id = ?", postID).Count(&result.BookmarkCount).Error
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// IsBookmarked reports whether userID bookmarked postID.
func (s *BookmarkService) IsBookmarked(ctx context.Context, userID, postID uint) (bool, error) {
	marked, err := bookmarkedSet(s.db.WithContext(ctx), userID, []uint{postID})
	if err != nil {
		return false, err
	}
	return marked[postID], nil
}

// ListBookmarks returns the actor's bookmarked posts, most recently bookmarked first.
func (s *BookmarkService) ListBookmarks(ctx context.Context, actor *models.User, page, pageSize int) (*PostPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	page, pageSize = clampPage(page, pageSize)
	gdb := s.db.WithContext(ctx)

	var total int64
	if err := gdb.Model(&models.Bookmark{}).Where("user_id = ?", actor.ID).Count(&total).Error; err != nil {
		return nil, err
	}

	var bookmarks []models.Bookmark
	if err := gdb.Preload("Post.User").Preload("Post.Tags").
		Where("user_id = ?", actor.ID).
		Order("created_at DESC").Order("id DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&bookmarks).Error; err != nil {
		return nil, err
	}

	posts := make([]models.Post, 0, len(bookmarks))
	for _, b := range bookmarks {
		posts = append(posts, b.Post)
	}
	views, err := decoratePosts(gdb, posts, actor)
	if err != nil {
		return nil, err
	}
	return newPostPage(views, total, page, pageSize), nil
}

func bookmarkedSet(gdb *gorm.DB, userID uint, postIDs []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(postIDs))
	if userID == 0 || len(postIDs) == 0 {
		return out, nil
	}
	var ids []uint
	if err := gdb.Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &ids).Error; err != nil {
		return nil, err
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}
