package services

import (
	"context"
	"testing"

	"saladoverflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationInbox(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	alice, bob, carol := env.user(t, "alice"), env.user(t, "bob"), env.user(t, "carol")
	question := env.post(t, alice, models.PostTypeQuestion)
	env.comment(t, bob, question.ID, nil)
	env.comment(t, carol, question.ID, nil)

	page, err := env.notifications.List(ctx, alice, false, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.UnreadCount)
	assert.Equal(t, carol.ID, *page.Items[0].ActorID)
	require.NotNil(t, page.Items[0].Actor)
	assert.Equal(t, "carol", page.Items[0].Actor.DisplayName)

	require.NoError(t, env.notifications.MarkRead(ctx, alice, page.Items[0].ID))
	assert.ErrorIs(t, env.notifications.MarkRead(ctx, bob, page.Items[1].ID), ErrNotFound)

	unread, err := env.notifications.List(ctx, alice, true, 10)
	require.NoError(t, err)
	require.Len(t, unread.Items, 1)
	assert.Equal(t, int64(1), unread.UnreadCount)

	n, err := env.notifications.MarkAllRead(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, env.notifications.Delete(ctx, alice, page.Items[1].ID))
	assert.ErrorIs(t, env.notifications.Delete(ctx, alice, page.Items[1].ID), ErrNotFound)

	rest, err := env.notifications.List(ctx, alice, false, 10)
	require.NoError(t, err)
	assert.Len(t, rest.Items, 1)
	assert.Zero(t, rest.UnreadCount)

	_, err = env.notifications.List(ctx, nil, false, 10)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
