package services

import (
	"context"
	"testing"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:       "Salad.Fan@Example.com",
		Username:    "SaladFan",
		DisplayName: "@SaladStik",
		Password:    "croutons42",
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	user, err := env.users.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "salad.fan@example.com", user.Email)
	assert.Equal(t, "saladfan", user.Username)
	assert.Equal(t, "SaladStik", user.DisplayName)
	assert.NotEqual(t, "croutons42", user.Password)
	assert.True(t, user.IsActive)

	got, err := env.users.Authenticate(ctx, "SALAD.FAN@example.com", "croutons42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	got, err = env.users.Authenticate(ctx, "saladfan", "croutons42")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = env.users.Authenticate(ctx, "saladfan", "wrong-password1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = env.users.Authenticate(ctx, "nobody", "croutons42")
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, env.users.Disable(ctx, user.ID))
	_, err = env.users.Authenticate(ctx, "saladfan", "croutons42")
	assert.ErrorIs(t, err, ErrForbidden)
	assert.ErrorIs(t, env.users.Disable(ctx, 9999), ErrNotFound)
}

func TestRegisterRejects(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	_, err := env.users.Register(ctx, validRegistration())
	require.NoError(t, err)

	cases := map[string]RegisterInput{
		"duplicate email": {
			Email: "salad.fan@example.com", Username: "other", DisplayName: "Other", Password: "croutons42",
		},
		"duplicate username": {
			Email: "x@example.com", Username: "saladfan", DisplayName: "Other", Password: "croutons42",
		},
		"duplicate display name": {
			Email: "x@example.com", Username: "other", DisplayName: "saladstik", Password: "croutons42",
		},
		"bad email": {
			Email: "not-an-email", Username: "other", DisplayName: "Other", Password: "croutons42",
		},
		"short password": {
			Email: "x@example.com", Username: "other", DisplayName: "Other", Password: "abc1",
		},
		"password without digit": {
			Email: "x@example.com", Username: "other", DisplayName: "Other", Password: "onlyletters",
		},
		"display name symbols": {
			Email: "x@example.com", Username: "other", DisplayName: "salad-stik", Password: "croutons42",
		},
		"username spaces": {
			Email: "x@example.com", Username: "salad fan", DisplayName: "Other", Password: "croutons42",
		},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.users.Register(ctx, in)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestProfileAndTopUsers(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice, bob, carol := env.user(t, "alice"), env.user(t, "bob"), env.user(t, "carol")
	post := env.post(t, alice, models.PostTypeQuestion)
	_, err := env.votes.SetVote(ctx, bob, models.VoteTargetPost, post.ID, models.VoteUp)
	require.NoError(t, err)
	_, err = env.votes.SetVote(ctx, carol, models.VoteTargetPost, post.ID, models.VoteUp)
	require.NoError(t, err)

	profile, err := env.users.Profile(ctx, "@alice")
	require.NoError(t, err)
	assert.Equal(t, 20, profile.KarmaScore)
	assert.Equal(t, "prep-cook", profile.Level)
	assert.Equal(t, 1, profile.PostCount)

	profile, err = env.users.Profile(ctx, "ALICE")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, profile.ID)

	_, err = env.users.Profile(ctx, "nobody")
	assert.ErrorIs(t, err, ErrNotFound)

	top, err := env.users.TopUsers(ctx, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, alice.ID, top[0].ID)

	require.NoError(t, env.users.Disable(ctx, alice.ID))
	top, err = env.users.TopUsers(ctx, 2)
	require.NoError(t, err)
	assert.NotEqual(t, alice.ID, top[0].ID)

	_, err = env.users.Profile(ctx, "alice")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfile(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")

	bio := "  Dressing on the side.  "
	avatar := "https://example.com/alice.png"
	user, err := env.users.UpdateProfile(ctx, alice, UpdateProfileInput{Bio: &bio, AvatarURL: &avatar})
	require.NoError(t, err)
	assert.Equal(t, "Dressing on the side.", user.Bio)
	assert.Equal(t, avatar, user.AvatarURL)

	bad := "not a url"
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileInput{AvatarURL: &bad})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.users.UpdateProfile(ctx, nil, UpdateProfileInput{Bio: &bio})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSearchUsers(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	env.user(t, "alfredo")
	carol := env.user(t, "carol")
	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", bob.ID).
		Update("bio", "Caesar dressing purist").Error)
	require.NoError(t, env.users.Disable(ctx, carol.ID))

	found, err := env.users.Search(ctx, "AL", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, alice.ID, found[0].ID)

	found, err = env.users.Search(ctx, "caesar", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bob.ID, found[0].ID)

	found, err = env.users.Search(ctx, "carol", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, found)

	found, err = env.users.Search(ctx, "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = env.users.Search(ctx, "tossed", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, found)

	// 缓存的搜索结果在资料更新后失效
	bio := "Tossed, never stirred"
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileInput{Bio: &bio})
	require.NoError(t, err)
	found, err = env.users.Search(ctx, "tossed", 10, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, alice.ID, found[0].ID)
}

func TestUserComments(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	post := env.post(t, alice, models.PostTypeQuestion)
	first := env.comment(t, bob, post.ID, nil)
	second := env.comment(t, bob, post.ID, nil)
	gone := env.comment(t, bob, post.ID, nil)
	require.NoError(t, env.comments.DeleteComment(ctx, bob, gone.ID))

	list, err := env.users.Comments(ctx, "BOB", 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
	assert.Equal(t, post.ID, list[0].PostID)
	assert.Equal(t, post.Title, list[0].PostTitle)

	list, err = env.users.Comments(ctx, "bob", 1, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)

	list, err = env.users.Comments(ctx, "alice", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = env.users.Comments(ctx, "nobody", 10, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserStats(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	env.user(t, "bob")
	env.user(t, "carol")
	dave := env.user(t, "dave")
	require.NoError(t, env.users.Disable(ctx, dave.ID))

	stats, err := env.users.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalUsers)
	assert.Equal(t, int64(0), stats.VerifiedUsers)
	assert.Equal(t, 0.0, stats.VerificationRate)

	require.NoError(t, env.db.Model(&models.User{}).Where("id = ?", alice.ID).
		Update("is_verified", true).Error)
	require.NoError(t, env.cache.DeletePrefix(ctx, cache.PrefixUsers))

	stats, err = env.users.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.VerifiedUsers)
	assert.Equal(t, 33.33, stats.VerificationRate)
}
