package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/models"
	"saladoverflow/internal/utils"

	"gorm.io/gorm"
)

type RegisterInput struct {
	Email       string `validate:"required,email,max=255"`
	Username    string `validate:"min=3,max=50,username"`
	DisplayName string `validate:"min=2,max=50,displayname"`
	Password    string `validate:"min=8,max=72,password"`
	Bio         string `validate:"max=500"`
}

type UpdateProfileInput struct {
	Bio       *string `validate:"omitempty,max=500"`
	AvatarURL *string `validate:"omitempty,max=500,url"`
}

// Profile is the public view of a user.
type Profile struct {
	*models.User
	Level      string `json:"level"`
	DaysJoined int    `json:"days_joined"`
}

// UserService manages accounts. Users are disabled, never deleted.
type UserService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewUserService(gdb *gorm.DB, store cache.Store) *UserService {
	return &UserService{db: gdb, cache: store}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.DisplayName = strings.TrimPrefix(strings.TrimSpace(in.DisplayName), "@")
	in.Bio = strings.TrimSpace(in.Bio)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Email:       in.Email,
		Username:    in.Username,
		DisplayName: in.DisplayName,
		Password:    hash,
		Bio:         in.Bio,
		IsActive:    true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		checks := []struct{ column, value, label string }{
			{"email", user.Email, "email"},
			{"username", user.Username, "username"},
			{"LOWER(display_name)", strings.ToLower(user.DisplayName), "display name"},
		}
		for _, c := range checks {
			var n int64
			if err := tx.Model(&models.User{}).Where(c.column+" = ?", c.value).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: %s is already taken", ErrValidation, c.label)
			}
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, cache.PrefixUsers)
	return &user, nil
}

// Authenticate checks a login by email or username.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ? OR username = ?", login, login).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
		}
		return nil, err
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: account is disabled", ErrForbidden)
	}
	return &user, nil
}

// Get loads a user by id; the session middleware uses it.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// Profile returns an active user's public view. The display name match ignores case.
func (s *UserService) Profile(ctx context.Context, displayName string) (*Profile, error) {
	user, err := s.activeByDisplayName(ctx, displayName)
	if err != nil {
		return nil, err
	}
	return newProfile(user), nil
}

// activeByDisplayName matches display names the way Register keeps them unique.
func (s *UserService) activeByDisplayName(ctx context.Context, displayName string) (*models.User, error) {
	displayName = strings.TrimPrefix(strings.TrimSpace(displayName), "@")
	var user models.User
	if err := s.db.WithContext(ctx).
		Where("LOWER(display_name) = ? AND is_active = ?", strings.ToLower(displayName), true).
		Take(&user).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return &user, nil
}

// TopUsers ranks active users by karma.
func (s *UserService) TopUsers(ctx context.Context, limit int) ([]Profile, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	key := fmt.Sprintf("%stop:%d", cache.PrefixUsers, limit)
	var out []Profile
	if s.cache != nil && cache.GetJSON(ctx, s.cache, key, &out) {
		return out, nil
	}

	var users []models.User
	if err := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("karma_score DESC").Order("id ASC").
		Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	out = make([]Profile, len(users))
	for i := range users {
		out[i] = *newProfile(&users[i])
	}
	if s.cache != nil {
		cache.SetJSON(ctx, s.cache, key, out, CacheTTL)
	}
	return out, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, actor *models.User, in UpdateProfileInput) (*models.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		in.Bio = &bio
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Bio != nil {
		updates["bio"] = *in.Bio
	}
	if in.AvatarURL != nil {
		updates["avatar_url"] = *in.AvatarURL
	}
	gdb := s.db.WithContext(ctx)
	if len(updates) > 0 {
		if err := gdb.Model(&models.User{}).Where("id = ?", actor.ID).Updates(updates).Error; err != nil {
			return nil, err
		}
		invalidate(ctx, s.cache, cache.PrefixUsers)
	}
	return s.Get(ctx, actor.ID)
}

// Search matches active users by display name or bio, highest karma first.
func (s *UserService) Search(ctx context.Context, query string, limit, offset int) ([]Profile, error) {
	query = strings.TrimSpace(query)
	limit, offset = clampLimit(limit, 20), clampOffset(offset)
	key := fmt.Sprintf("%ssearch:%q:%d:%d", cache.PrefixUsers, strings.ToLower(query), limit, offset)
	var out []Profile
	if s.cache != nil && cache.GetJSON(ctx, s.cache, key, &out) {
		return out, nil
	}

	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if query != "" {
		like := "%" + escapeLike(strings.ToLower(query)) + "%"
		q = q.Where("(LOWER(display_name) LIKE ? ESCAPE '\\' OR LOWER(bio) LIKE ? ESCAPE '\\')", like, like)
	}
	var users []models.User
	if err := q.Order("karma_score DESC").Order("id ASC").
		Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return nil, err
	}
	out = make([]Profile, len(users))
	for i := range users {
		out[i] = *newProfile(&users[i])
	}
	if s.cache != nil {
		cache.SetJSON(ctx, s.cache, key, out, CacheTTL)
	}
	return out, nil
}

// UserComment is one entry of a user's comment history.
type UserComment struct {
	ID            uint      `json:"id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	UpvoteCount   int       `json:"upvote_count"`
	DownvoteCount int       `json:"downvote_count"`
	IsAccepted    bool      `json:"is_accepted"`
	PostID        uint      `json:"post_id"`
	PostTitle     string    `json:"post_title"`
}

// Comments lists an active user's non-deleted comments, newest first.
func (s *UserService) Comments(ctx context.Context, displayName string, limit, offset int) ([]UserComment, error) {
	user, err := s.activeByDisplayName(ctx, displayName)
	if err != nil {
		return nil, err
	}
	limit, offset = clampLimit(limit, 50), clampOffset(offset)
	key := fmt.Sprintf("%scomments:%d:%d:%d", cache.PrefixUsers, user.ID, limit, offset)
	var out []UserComment
	if s.cache != nil && cache.GetJSON(ctx, s.cache, key, &out) {
		return out, nil
	}

	out = []UserComment{}
	if err := s.db.WithContext(ctx).Table("comments").
		Select("comments.id, comments.content, comments.created_at, comments.upvote_count, "+
			"comments.downvote_count, comments.is_accepted, comments.post_id, posts.title AS post_title").
		Joins("JOIN posts ON posts.id = comments.post_id").
		Where("comments.user_id = ? AND comments.is_deleted = ?", user.ID, false).
		Order("comments.created_at DESC").Order("comments.id DESC").
		Offset(offset).Limit(limit).
		Scan(&out).Error; err != nil {
		return nil, err
	}
	if s.cache != nil {
		cache.SetJSON(ctx, s.cache, key, out, CacheTTL)
	}
	return out, nil
}

type UserStats struct {
	TotalUsers       int64   `json:"total_users"`
	VerifiedUsers    int64   `json:"verified_users"`
	VerificationRate float64 `json:"verification_rate"` // percent, two decimals
}

// Stats counts active users and how many of them are verified.
func (s *UserService) Stats(ctx context.Context) (*UserStats, error) {
	key := cache.PrefixUsers + "stats"
	var stats UserStats
	if s.cache != nil && cache.GetJSON(ctx, s.cache, key, &stats) {
		return &stats, nil
	}

	gdb := s.db.WithContext(ctx)
	if err := gdb.Model(&models.User{}).Where("is_active = ?", true).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := gdb.Model(&models.User{}).
		Where("is_active = ? AND is_verified = ?", true, true).
		Count(&stats.VerifiedUsers).Error; err != nil {
		return nil, err
	}
	if stats.TotalUsers > 0 {
		rate := float64(stats.VerifiedUsers) / float64(stats.TotalUsers) * 100
		stats.VerificationRate = math.Round(rate*100) / 100
	}
	if s.cache != nil {
		cache.SetJSON(ctx, s.cache, key, stats, CacheTTL)
	}
	return &stats, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func clampOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}

// Disable blocks a user from logging in and from every mutation.
func (s *UserService) Disable(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user", ErrNotFound)
	}
	invalidate(ctx, s.cache, cache.PrefixUsers)
	return nil
}

func newProfile(u *models.User) *Profile {
	return &Profile{
		User:       u,
		Level:      utils.KarmaLevel(u.KarmaScore),
		DaysJoined: utils.DaysSinceJoined(u.CreatedAt, time.Now()),
	}
}
