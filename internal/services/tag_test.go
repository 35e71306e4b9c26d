package services

import (
	"context"
	"testing"

	"saladoverflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTagNames(t *testing.T) {
	got, err := NormalizeTagNames([]string{"a", "a", "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	got, err = NormalizeTagNames([]string{" Go ", "go", "machine  learning", "C++", "c#"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "machine-learning", "C++", "c#"}, got)

	for _, bad := range [][]string{
		nil,
		{},
		{"a", "b", "c", "d", "e", "f"},
		{"salad!"},
		{"   "},
		{"way-too-long-tag-name-that-goes-on-and-on-and-on-and-on"},
	} {
		_, err := NormalizeTagNames(bad)
		assert.ErrorIs(t, err, ErrValidation, "%v", bad)
	}
}

func TestAttachTagsReplacesAndRecounts(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	p1 := env.post(t, alice, models.PostTypeQuestion, "Dressing", "greens")
	p2 := env.post(t, alice, models.PostTypeQuestion, "dressing")

	var dressing models.Tag
	require.NoError(t, env.db.Where("slug = ?", "dressing").Take(&dressing).Error)
	assert.Equal(t, "Dressing", dressing.Name)
	assert.Equal(t, 2, dressing.PostCount)
	assert.NotEmpty(t, dressing.Color)

	tags, err := env.tags.AttachTags(ctx, alice, p1.ID, []string{"a", "a", "b"})
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "a", tags[0].Name)
	assert.Equal(t, "b", tags[1].Name)
	assert.Equal(t, 1, tags[0].PostCount)

	require.NoError(t, env.db.Take(&dressing, dressing.ID).Error)
	assert.Equal(t, 1, dressing.PostCount)

	var greens models.Tag
	require.NoError(t, env.db.Where("slug = ?", "greens").Take(&greens).Error)
	assert.Equal(t, 0, greens.PostCount)

	var links int64
	require.NoError(t, env.db.Table("post_tags").Where("post_id = ?", p2.ID).Count(&links).Error)
	assert.Equal(t, int64(1), links)
}

func TestAttachTagsRejects(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice, bob := env.user(t, "alice"), env.user(t, "bob")
	post := env.post(t, alice, models.PostTypeQuestion, "original")

	_, err := env.tags.AttachTags(ctx, alice, post.ID, []string{})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.tags.AttachTags(ctx, alice, post.ID, []string{"a", "b", "c", "d", "e", "f"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = env.tags.AttachTags(ctx, bob, post.ID, []string{"hijack"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.tags.AttachTags(ctx, alice, 9999, []string{"ghost"})
	assert.ErrorIs(t, err, ErrNotFound)

	var names []string
	require.NoError(t, env.db.Model(&models.Tag{}).
		Joins("JOIN post_tags ON post_tags.tag_id = tags.id").
		Where("post_tags.post_id = ?", post.ID).
		Pluck("tags.slug", &names).Error)
	assert.Equal(t, []string{"original"}, names)
}

func TestListTags(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice := env.user(t, "alice")
	env.post(t, alice, models.PostTypeQuestion, "kale", "vinaigrette")
	env.post(t, alice, models.PostTypeQuestion, "kale")
	env.post(t, alice, models.PostTypeQuestion, "kale", "croutons")

	tags, err := env.tags.ListTags(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, tags, 3)
	assert.Equal(t, "kale", tags[0].Slug)
	assert.Equal(t, 3, tags[0].PostCount)
	assert.Equal(t, "croutons", tags[1].Slug)

	filtered, err := env.tags.ListTags(ctx, "VIN", 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "vinaigrette", filtered[0].Slug)

	// cached until a tag mutation invalidates it
	env.post(t, alice, models.PostTypeQuestion, "vinegar")
	filtered, err = env.tags.ListTags(ctx, "vin", 10)
	require.NoError(t, err)
	assert.Len(t, filtered, 2)
}
