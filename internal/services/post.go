package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/models"
	"saladoverflow/internal/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CacheTTL bounds how long anonymous listings are served from cache.
var CacheTTL = 10 * time.Minute

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PostSort string

const (
	PostSortNewest       PostSort = "newest"
	PostSortOldest       PostSort = "oldest"
	PostSortMostVoted    PostSort = "most_voted"
	PostSortMostViewed   PostSort = "most_viewed"
	PostSortMostAnswered PostSort = "most_answered"
	PostSortUnanswered   PostSort = "unanswered"
	PostSortActive       PostSort = "active"
)

// ParsePostSort defaults unknown values to newest.
func ParsePostSort(s string) PostSort {
	switch PostSort(s) {
	case PostSortOldest, PostSortMostVoted, PostSortMostViewed, PostSortMostAnswered, PostSortUnanswered, PostSortActive:
		return PostSort(s)
	}
	return PostSortNewest
}

// PostView is a post as seen by one viewer.
type PostView struct {
	*models.Post
	UserVote     models.VoteDirection `json:"user_vote"`
	IsBookmarked bool                 `json:"is_bookmarked"`
}

type PostPage struct {
	Posts      []PostView `json:"posts"`
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

type PostFilter struct {
	PostType models.PostType
	Tags     []string
	Author   string
	Search   string
	Sort     PostSort
	Page     int
	PageSize int
}

type CreatePostInput struct {
	Title    string          `validate:"min=10,max=300"`
	Content  string          `validate:"min=10,max=50000"`
	PostType models.PostType `validate:"oneof=question discussion announcement"`
	Tags     []string
}

// UpdatePostInput leaves nil fields unchanged.
type UpdatePostInput struct {
	Title   *string
	Content *string
	Tags    []string
}

// PostService owns post records.
type PostService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewPostService(gdb *gorm.DB, store cache.Store) *PostService {
	return &PostService{db: gdb, cache: store}
}

func (s *PostService) CreatePost(ctx context.Context, actor *models.User, in CreatePostInput) (*models.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	if in.PostType == "" {
		in.PostType = models.PostTypeQuestion
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	tagNames, err := NormalizeTagNames(in.Tags)
	if err != nil {
		return nil, err
	}
	body := utils.ProcessContent(in.Content)

	var post models.Post
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post = models.Post{
			UserID:          actor.ID,
			Title:           in.Title,
			Content:         body.HTML,
			ContentMarkdown: body.Markdown,
			ContentPlain:    body.Plain,
			PostType:        in.PostType,
			HasCode:         body.HasCode,
			HasImages:       body.HasImages,
			LastActivity:    time.Now(),
		}
		if err := tx.Omit(clause.Associations).Create(&post).Error; err != nil {
			return err
		}
		post.Slug = utils.Slugify(post.Title, post.ID)
		if err := tx.Model(&post).UpdateColumn("slug", post.Slug).Error; err != nil {
			return err
		}
		tags, err := replacePostTags(tx, post.ID, tagNames)
		if err != nil {
			return err
		}
		post.Tags = tags
		return recountUserPosts(tx, actor.ID)
	})
	if err != nil {
		return nil, err
	}

	post.User = *actor
	invalidate(ctx, s.cache, cache.PrefixPosts, cache.PrefixTags, cache.PrefixUsers)
	return &post, nil
}

// GetPost counts a view and returns the post for viewer, who may be nil.
func (s *PostService) GetPost(ctx context.Context, id uint, viewer *models.User) (*PostView, error) {
	gdb := s.db.WithContext(ctx)

	res := gdb.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("view_count", gorm.Expr("view_count + 1"))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: post", ErrNotFound)
	}

	var post models.Post
	if err := gdb.Preload("User").Preload("Tags").Take(&post, id).Error; err != nil {
		return nil, notFound(err, "post")
	}
	views, err := decoratePosts(gdb, []models.Post{post}, viewer)
	if err != nil {
		return nil, err
	}
	// 只有按浏览量排序的列表顺序会变，其它列表的 view_count 允许滞后一个 TTL
	invalidate(ctx, s.cache, postListPrefix(PostSortMostViewed))
	return &views[0], nil
}

// ListPosts filters, sorts and pages posts. Anonymous results are cached.
func (s *PostService) ListPosts(ctx context.Context, f PostFilter, viewer *models.User) (*PostPage, error) {
	f.Page, f.PageSize = clampPage(f.Page, f.PageSize)
	f.Sort = ParsePostSort(string(f.Sort))
	tags := make([]string, 0, len(f.Tags))
	for _, t := range f.Tags {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			tags = append(tags, t)
		}
	}
	sort.Strings(tags)

	useCache := viewer == nil && s.cache != nil
	key := fmt.Sprintf("%s%d:%d:%s:%s:%s:%s", postListPrefix(f.Sort), f.Page, f.PageSize,
		f.PostType, strings.Join(tags, ","), f.Author, strings.ToLower(strings.TrimSpace(f.Search)))
	if useCache {
		var cached PostPage
		if cache.GetJSON(ctx, s.cache, key, &cached) {
			return &cached, nil
		}
	}

	gdb := s.db.WithContext(ctx)
	q := gdb.Model(&models.Post{})
	if f.PostType != "" {
		q = q.Where("posts.post_type = ?", f.PostType)
	}
	if len(tags) > 0 {
		q = q.Where("posts.id IN (?)", gdb.Table("post_tags").
			Select("post_tags.post_id").
			Joins("JOIN tags ON tags.id = post_tags.tag_id").
			Where("tags.slug IN ?", tags))
	}
	if f.Author != "" {
		q = q.Where("posts.user_id IN (?)", gdb.Model(&models.User{}).Select("id").Where("display_name = ?", f.Author))
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		term := "%" + escapeLike(strings.ToLower(search)) + "%"
		q = q.Where("(LOWER(posts.title) LIKE ? ESCAPE '\\' OR LOWER(posts.content_plain) LIKE ? ESCAPE '\\')", term, term)
	}
	if f.Sort == PostSortUnanswered {
		q = q.Where("posts.answer_count = ?", 0)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	var posts []models.Post
	if err := q.Session(&gorm.Session{}).
		Preload("User").Preload("Tags").
		Order(postOrder(f.Sort)).Order("posts.id DESC").
		Offset((f.Page - 1) * f.PageSize).Limit(f.PageSize).
		Find(&posts).Error; err != nil {
		return nil, err
	}

	views, err := decoratePosts(gdb, posts, viewer)
	if err != nil {
		return nil, err
	}
	page := newPostPage(views, total, f.Page, f.PageSize)
	if useCache {
		cache.SetJSON(ctx, s.cache, key, page, CacheTTL)
	}
	return page, nil
}

// postListPrefix groups cached list pages by sort order.
func postListPrefix(order PostSort) string {
	return fmt.Sprintf("%slist:%s:", cache.PrefixPosts, order)
}

func postOrder(order PostSort) string {
	switch order {
	case PostSortOldest:
		return "posts.created_at ASC"
	case PostSortMostVoted:
		return "(posts.upvote_count - posts.downvote_count) DESC"
	case PostSortMostViewed:
		return "posts.view_count DESC"
	case PostSortMostAnswered:
		return "posts.answer_count DESC"
	case PostSortActive:
		return "posts.last_activity DESC"
	}
	return "posts.created_at DESC"
}

// UpdatePost edits the actor's own post.
func (s *PostService) UpdatePost(ctx context.Context, actor *models.User, id uint, in UpdatePostInput) (*models.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validateVar("title", title, "min=10,max=300"); err != nil {
			return nil, err
		}
		updates["title"] = title
		updates["slug"] = utils.Slugify(title, id)
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if err := validateVar("content", content, "min=10,max=50000"); err != nil {
			return nil, err
		}
		body := utils.ProcessContent(content)
		updates["content"] = body.HTML
		updates["content_markdown"] = body.Markdown
		updates["content_plain"] = body.Plain
		updates["has_code"] = body.HasCode
		updates["has_images"] = body.HasImages
	}
	var tagNames []string
	if in.Tags != nil {
		var err error
		if tagNames, err = NormalizeTagNames(in.Tags); err != nil {
			return nil, err
		}
	}

	var post models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if locked.UserID != actor.ID {
			return fmt.Errorf("%w: only the author can edit this post", ErrForbidden)
		}
		if len(updates) > 0 {
			updates["last_activity"] = time.Now()
			if err := tx.Model(&models.Post{}).Where("id = ?", id).Updates(updates).Error; err != nil {
				return err
			}
		}
		if tagNames != nil {
			if _, err := replacePostTags(tx, id, tagNames); err != nil {
				return err
			}
		}
		return tx.Preload("User").Preload("Tags").Take(&post, id).Error
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.PrefixPosts, cache.PrefixTags)
	return &post, nil
}

// DeletePost removes the actor's post together with everything hanging off it.
func (s *PostService) DeletePost(ctx context.Context, actor *models.User, id uint) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, id)
		if err != nil {
			return err
		}
		if post.UserID != actor.ID {
			return fmt.Errorf("%w: only the author can delete this post", ErrForbidden)
		}
		return deletePostCascade(tx, post)
	})
	if err != nil {
		return err
	}
	invalidate(ctx, s.cache, cache.PrefixPosts, cache.PrefixTags, cache.PrefixUsers)
	return nil
}

func deletePostCascade(tx *gorm.DB, post *models.Post) error {
	var comments []models.Comment
	if err := tx.Select("id, user_id").Where("post_id = ?", post.ID).Find(&comments).Error; err != nil {
		return err
	}
	commentIDs := make([]uint, 0, len(comments))
	commenters := make([]uint, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
		commenters = append(commenters, c.UserID)
	}

	var tagIDs []uint
	if err := tx.Table("post_tags").Where("post_id = ?", post.ID).Pluck("tag_id", &tagIDs).Error; err != nil {
		return err
	}

	if err := tx.Where("target_type = ? AND target_id = ?", models.VoteTargetPost, post.ID).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	if len(commentIDs) > 0 {
		if err := tx.Where("target_type = ? AND target_id IN ?", models.VoteTargetComment, commentIDs).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("post_id = ?", post.ID).Delete(&models.Notification{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", post.ID).Delete(&models.Bookmark{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id = ?", post.ID).Delete(&models.Comment{}).Error; err != nil {
		return err
	}
	if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", post.ID).Error; err != nil {
		return err
	}
	if err := tx.Delete(&models.Post{}, post.ID).Error; err != nil {
		return err
	}

	if err := recountTagPosts(tx, tagIDs); err != nil {
		return err
	}
	if err := recountUserPosts(tx, post.UserID); err != nil {
		return err
	}
	for _, uid := range uniqueIDs(commenters) {
		if err := recountUserComments(tx, uid); err != nil {
			return err
		}
	}
	return nil
}

// SetLocked opens or closes the actor's post for new comments.
func (s *PostService) SetLocked(ctx context.Context, actor *models.User, id uint, locked bool) (*models.Post, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	var post *models.Post
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		post, err = lockPost(tx, id)
		if err != nil {
			return err
		}
		if post.UserID != actor.ID {
			return fmt.Errorf("%w: only the author can lock this post", ErrForbidden)
		}
		post.IsLocked = locked
		return tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("is_locked", locked).Error
	})
	if err != nil {
		return nil, err
	}
	invalidate(ctx, s.cache, cache.PrefixPosts)
	return post, nil
}

// decoratePosts attaches the viewer's vote and bookmark state.
func decoratePosts(gdb *gorm.DB, posts []models.Post, viewer *models.User) ([]PostView, error) {
	views := make([]PostView, len(posts))
	ids := make([]uint, len(posts))
	for i := range posts {
		views[i] = PostView{Post: &posts[i]}
		ids[i] = posts[i].ID
	}
	if viewer == nil || len(posts) == 0 {
		return views, nil
	}

	votes, err := NewVoteService(gdb, nil).UserVotes(gdb.Statement.Context, viewer.ID, models.VoteTargetPost, ids)
	if err != nil {
		return nil, err
	}
	marked, err := bookmarkedSet(gdb, viewer.ID, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].UserVote = votes[views[i].ID]
		views[i].IsBookmarked = marked[views[i].ID]
	}
	return views, nil
}

func clampPage(page, size int) (int, int) {
	return utils.ClampPage(page, size, DefaultPageSize, MaxPageSize)
}

func newPostPage(views []PostView, total int64, page, size int) *PostPage {
	return &PostPage{
		Posts:      views,
		TotalCount: total,
		Page:       page,
		PageSize:   size,
		TotalPages: int((total + int64(size) - 1) / int64(size)),
	}
}
