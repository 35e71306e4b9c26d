package services

import (
	"context"
	"fmt"

	"saladoverflow/internal/models"

	"gorm.io/gorm"
)

// NotificationService is the per-user inbox.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(gdb *gorm.DB) *NotificationService {
	return &NotificationService{db: gdb}
}

// NotificationPage is one page of a user's inbox.
type NotificationPage struct {
	Items       []models.Notification `json:"items"`
	UnreadCount int64                 `json:"unread_count"`
}

func (s *NotificationService) List(ctx context.Context, actor *models.User, unreadOnly bool, limit int) (*NotificationPage, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	gdb := s.db.WithContext(ctx)
	q := gdb.Preload("Actor").Where("user_id = ?", actor.ID)
	if unreadOnly {
		q = q.Where("is_read = ?", false)
	}

	page := &NotificationPage{}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&page.Items).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", actor.ID, false).
		Count(&page.UnreadCount).Error; err != nil {
		return nil, err
	}
	return page, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, actor *models.User, id uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, actor.ID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification", ErrNotFound)
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, actor *models.User) (int64, error) {
	if err := requireActor(actor); err != nil {
		return 0, err
	}
	res := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", actor.ID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (s *NotificationService) Delete(ctx context.Context, actor *models.User, id uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, actor.ID).Delete(&models.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: notification", ErrNotFound)
	}
	return nil
}

// notify writes a notification inside the caller's transaction. Users are
// never notified about their own actions.
func notify(tx *gorm.DB, recipientID, actorID uint, kind models.NotificationType, postID uint, commentID *uint, message string) error {
	if recipientID == actorID {
		return nil
	}
	n := models.Notification{
		UserID:    recipientID,
		ActorID:   &actorID,
		Type:      kind,
		PostID:    postID,
		CommentID: commentID,
		Message:   message,
	}
	return tx.Create(&n).Error
}
