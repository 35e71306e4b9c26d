package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/models"
	"saladoverflow/internal/utils"

	"gorm.io/gorm"
)

// DeletedCommentContent replaces the body of a soft-deleted comment.
const DeletedCommentContent = "[deleted]"

// CommentService owns the comment forest of every post and its accepted answer.
type CommentService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewCommentService(gdb *gorm.DB, store cache.Store) *CommentService {
	return &CommentService{db: gdb, cache: store}
}

type CreateCommentInput struct {
	Content  string `validate:"min=5,max=20000"`
	ParentID *uint
}

type AcceptResult struct {
	CommentID         uint  `json:"comment_id"`
	IsAccepted        bool  `json:"is_accepted"`
	HasAcceptedAnswer bool  `json:"has_accepted_answer"`
	AcceptedAnswerID  *uint `json:"accepted_answer_id"`
}

// CreateComment adds a top-level comment or a reply to postID. Top-level
// comments on questions are answers.
func (s *CommentService) CreateComment(ctx context.Context, actor *models.User, postID uint, in CreateCommentInput) (*models.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	body := utils.ProcessContent(in.Content)

	var comment models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if post.IsLocked {
			return fmt.Errorf("%w: post is locked", ErrForbidden)
		}

		var parent *models.Comment
		if in.ParentID != nil {
			parent, err = lockComment(tx, *in.ParentID)
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if err != nil || parent.PostID != post.ID || parent.IsDeleted {
				return fmt.Errorf("%w: parent comment %d is not on this post", ErrInvalidReference, *in.ParentID)
			}
		}

		comment = models.Comment{
			PostID:          post.ID,
			UserID:          actor.ID,
			ParentID:        in.ParentID,
			Content:         body.HTML,
			ContentMarkdown: body.Markdown,
			ContentPlain:    body.Plain,
			IsAnswer:        post.PostType == models.PostTypeQuestion && parent == nil,
			HasCode:         body.HasCode,
			HasImages:       body.HasImages,
		}
		if err := tx.Create(&comment).Error; err != nil {
			return err
		}

		if err := recountPostComments(tx, post.ID); err != nil {
			return err
		}
		if err := recountUserComments(tx, actor.ID); err != nil {
			return err
		}
		if err := tx.Model(&models.Post{}).Where("id = ?", post.ID).
			UpdateColumn("last_activity", comment.CreatedAt).Error; err != nil {
			return err
		}

		if parent != nil {
			if err := recountReplies(tx, parent.ID); err != nil {
				return err
			}
			return notify(tx, parent.UserID, actor.ID, models.NotificationTypeReplyComment, post.ID, &comment.ID,
				fmt.Sprintf("%s replied to your comment on %q", actor.DisplayName, post.Title))
		}
		if comment.IsAnswer {
			return notify(tx, post.UserID, actor.ID, models.NotificationTypeNewAnswer, post.ID, &comment.ID,
				fmt.Sprintf("%s answered your question %q", actor.DisplayName, post.Title))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	comment.User = *actor
	invalidate(ctx, s.cache, cache.PrefixPosts, cache.PrefixUsers)
	return &comment, nil
}

// ToggleAcceptedAnswer accepts commentID as the answer to postID, or
// unaccepts it when it already is. Only the question's author may do this.
func (s *CommentService) ToggleAcceptedAnswer(ctx context.Context, requester *models.User, postID, commentID uint) (*AcceptResult, error) {
	if err := requireActor(requester); err != nil {
		return nil, err
	}

	result := &AcceptResult{CommentID: commentID}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if post.UserID != requester.ID {
			return fmt.Errorf("%w: only the author can accept answers", ErrForbidden)
		}
		if post.PostType != models.PostTypeQuestion {
			return fmt.Errorf("%w: only questions have accepted answers", ErrInvalidOperation)
		}

		comment, err := lockComment(tx, commentID)
		if err != nil {
			return err
		}
		switch {
		case comment.PostID != post.ID:
			return fmt.Errorf("%w: comment belongs to another post", ErrInvalidOperation)
		case !comment.IsTopLevel():
			return fmt.Errorf("%w: replies cannot be accepted", ErrInvalidOperation)
		case !comment.IsAnswer:
			return fmt.Errorf("%w: comment is not an answer", ErrInvalidOperation)
		case comment.IsDeleted:
			return fmt.Errorf("%w: comment is deleted", ErrInvalidOperation)
		}

		if comment.IsAccepted {
			if err := setAccepted(tx, post, comment, false); err != nil {
				return err
			}
		} else {
			var previous []models.Comment
			if err := tx.Where("post_id = ? AND is_accepted = ? AND id <> ?", post.ID, true, comment.ID).
				Find(&previous).Error; err != nil {
				return err
			}
			for i := range previous {
				if err := setAccepted(tx, post, &previous[i], false); err != nil {
					return err
				}
			}
			if err := setAccepted(tx, post, comment, true); err != nil {
				return err
			}
			if err := notify(tx, comment.UserID, requester.ID, models.NotificationTypeAnswerAccepted, post.ID, &comment.ID,
				fmt.Sprintf("Your answer to %q was accepted", post.Title)); err != nil {
				return err
			}
		}

		result.IsAccepted = !comment.IsAccepted
		result.AcceptedAnswerID, err = recountAccepted(tx, post.ID)
		result.HasAcceptedAnswer = result.AcceptedAnswerID != nil
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.PrefixPosts, cache.PrefixUsers)
	return result, nil
}

// setAccepted flips is_accepted and moves the answer author's karma with it.
func setAccepted(tx *gorm.DB, post *models.Post, comment *models.Comment, accepted bool) error {
	if err := tx.Model(&models.Comment{}).Where("id = ?", comment.ID).
		UpdateColumn("is_accepted", accepted).Error; err != nil {
		return err
	}
	if comment.UserID == post.UserID {
		return nil
	}
	if accepted {
		return addKarma(tx, comment.UserID, KarmaAcceptedAnswer, ActionAnswerAccepted)
	}
	return addKarma(tx, comment.UserID, -KarmaAcceptedAnswer, ActionAnswerUnaccepted)
}

// UpdateComment replaces the body of the actor's own comment.
func (s *CommentService) UpdateComment(ctx context.Context, actor *models.User, commentID uint, content string) (*models.Comment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in := CreateCommentInput{Content: strings.TrimSpace(content)}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	body := utils.ProcessContent(in.Content)

	var comment *models.Comment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		comment, err = lockComment(tx, commentID)
		if err != nil {
			return err
		}
		if comment.IsDeleted {
			return fmt.Errorf("%w: comment", ErrNotFound)
		}
		if comment.UserID != actor.ID {
			return fmt.Errorf("%w: only the author can edit this comment", ErrForbidden)
		}
		if err := tx.Model(comment).Updates(map[string]interface{}{
			"content":          body.HTML,
			"content_markdown": body.Markdown,
			"content_plain":    body.Plain,
			"has_code":         body.HasCode,
			"has_images":       body.HasImages,
		}).Error; err != nil {
			return err
		}
		comment.Content = body.HTML
		comment.ContentMarkdown = body.Markdown
		comment.ContentPlain = body.Plain
		comment.HasCode = body.HasCode
		comment.HasImages = body.HasImages
		return nil
	})
	if err != nil {
		return nil, err
	}
	comment.User = *actor
	invalidate(ctx, s.cache, cache.PrefixUsers)
	return comment, nil
}

// DeleteComment soft-deletes the actor's own comment. Replies stay attached.
func (s *CommentService) DeleteComment(ctx context.Context, actor *models.User, commentID uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comment, err := lockComment(tx, commentID)
		if err != nil {
			return err
		}
		if comment.IsDeleted {
			return fmt.Errorf("%w: comment", ErrNotFound)
		}
		if comment.UserID != actor.ID {
			return fmt.Errorf("%w: only the author can delete this comment", ErrForbidden)
		}
		post, err := lockPost(tx, comment.PostID)
		if err != nil {
			return err
		}

		if comment.IsAccepted {
			if err := setAccepted(tx, post, comment, false); err != nil {
				return err
			}
		}
		if err := tx.Model(comment).Updates(map[string]interface{}{
			"content":          DeletedCommentContent,
			"content_markdown": "",
			"content_plain":    "",
			"has_code":         false,
			"has_images":       false,
			"is_deleted":       true,
		}).Error; err != nil {
			return err
		}

		if err := recountPostComments(tx, post.ID); err != nil {
			return err
		}
		if err := recountUserComments(tx, comment.UserID); err != nil {
			return err
		}
		if comment.ParentID != nil {
			if err := recountReplies(tx, *comment.ParentID); err != nil {
				return err
			}
		}
		_, err = recountAccepted(tx, post.ID)
		return err
	})
	if err != nil {
		return err
	}
	invalidate(ctx, s.cache, cache.PrefixPosts, cache.PrefixUsers)
	return nil
}
