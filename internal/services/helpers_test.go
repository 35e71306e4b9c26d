package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/db"
	"saladoverflow/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db            *gorm.DB
	cache         *cache.LRU
	posts         *PostService
	comments      *CommentService
	votes         *VoteService
	bookmarks     *BookmarkService
	tags          *TagService
	users         *UserService
	notifications *NotificationService
	maintenance   *MaintenanceService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:services-%d?mode=memory&cache=shared", time.Now().UnixNano())
	return newTestEnv(t, openTestDB(t, dsn, 1))
}

// setupFileTestEnv backs the services with an on-disk database and a real
// connection pool, so concurrent transactions actually interleave.
func setupFileTestEnv(t *testing.T, conns int) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "services.db")
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=10000&_txlock=immediate", path)
	return newTestEnv(t, openTestDB(t, dsn, conns))
}

func openTestDB(t *testing.T, dsn string, conns int) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return gdb
}

func newTestEnv(t *testing.T, gdb *gorm.DB) *testEnv {
	t.Helper()
	store, err := cache.NewLRU(100)
	require.NoError(t, err)

	return &testEnv{
		db:            gdb,
		cache:         store,
		posts:         NewPostService(gdb, store),
		comments:      NewCommentService(gdb, store),
		votes:         NewVoteService(gdb, store),
		bookmarks:     NewBookmarkService(gdb),
		tags:          NewTagService(gdb, store),
		users:         NewUserService(gdb, store),
		notifications: NewNotificationService(gdb),
		maintenance:   NewMaintenanceService(gdb, store),
	}
}

func (e *testEnv) user(t *testing.T, name string) *models.User {
	t.Helper()
	u := &models.User{
		Username:    name,
		DisplayName: name,
		Email:       name + "@example.com",
		Password:    "x",
		IsActive:    true,
	}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) post(t *testing.T, author *models.User, kind models.PostType, tags ...string) *models.Post {
	t.Helper()
	if len(tags) == 0 {
		tags = []string{"salad"}
	}
	p, err := e.posts.CreatePost(context.Background(), author, CreatePostInput{
		Title:    "How should I dress a salad?",
		Content:  "Looking for a vinaigrette ratio that works.",
		PostType: kind,
		Tags:     tags,
	})
	require.NoError(t, err)
	return p
}

func (e *testEnv) comment(t *testing.T, author *models.User, postID uint, parentID *uint) *models.Comment {
	t.Helper()
	c, err := e.comments.CreateComment(context.Background(), author, postID, CreateCommentInput{
		Content:  "Three parts oil to one part vinegar.",
		ParentID: parentID,
	})
	require.NoError(t, err)
	return c
}

func (e *testEnv) reloadPost(t *testing.T, id uint) models.Post {
	t.Helper()
	var p models.Post
	require.NoError(t, e.db.Take(&p, id).Error)
	return p
}

func (e *testEnv) reloadComment(t *testing.T, id uint) models.Comment {
	t.Helper()
	var c models.Comment
	require.NoError(t, e.db.Take(&c, id).Error)
	return c
}

func (e *testEnv) reloadUser(t *testing.T, id uint) models.User {
	t.Helper()
	var u models.User
	require.NoError(t, e.db.Take(&u, id).Error)
	return u
}

func uintPtr(v uint) *uint { return &v }
