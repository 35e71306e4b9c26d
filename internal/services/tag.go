package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"saladoverflow/internal/cache"
	"saladoverflow/internal/models"

	"gorm.io/gorm"
)

const (
	MinTagsPerPost = 1
	MaxTagsPerPost = 5
	maxTagNameLen  = 50
)

var tagPalette = []string{"#16a34a", "#65a30d", "#0d9488", "#ca8a04", "#ea580c", "#dc2626", "#7c3aed", "#2563eb"}

// TagService maintains the post/tag association and its post counts.
type TagService struct {
	db    *gorm.DB
	cache cache.Store
}

func NewTagService(gdb *gorm.DB, store cache.Store) *TagService {
	return &TagService{db: gdb, cache: store}
}

// NormalizeTagNames trims each name, joins inner whitespace with "-" and
// drops case-insensitive duplicates, keeping the first spelling seen.
func NormalizeTagNames(names []string) ([]string, error) {
	if len(names) < MinTagsPerPost || len(names) > MaxTagsPerPost {
		return nil, fmt.Errorf("%w: a post needs between %d and %d tags", ErrValidation, MinTagsPerPost, MaxTagsPerPost)
	}
	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, raw := range names {
		name := strings.Join(strings.Fields(raw), "-")
		if err := validateVar("tag "+fmt.Sprintf("%q", raw), name, fmt.Sprintf("required,max=%d,tagname", maxTagNameLen)); err != nil {
			return nil, err
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out, nil
}

// AttachTags replaces the tag set of the actor's post.
func (s *TagService) AttachTags(ctx context.Context, actor *models.User, postID uint, names []string) ([]models.Tag, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	normalized, err := NormalizeTagNames(names)
	if err != nil {
		return nil, err
	}

	var tags []models.Tag
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		post, err := lockPost(tx, postID)
		if err != nil {
			return err
		}
		if post.UserID != actor.ID {
			return fmt.Errorf("%w: only the author can change tags", ErrForbidden)
		}
		tags, err = replacePostTags(tx, post.ID, normalized)
		return err
	})
	if err != nil {
		return nil, err
	}

	invalidate(ctx, s.cache, cache.PrefixPosts, cache.PrefixTags)
	return tags, nil
}

// ListTags returns the most used tags, optionally filtered by a name prefix.
func (s *TagService) ListTags(ctx context.Context, search string, limit int) ([]models.Tag, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	search = strings.ToLower(strings.TrimSpace(search))

	key := fmt.Sprintf("%slist:%s:%d", cache.PrefixTags, search, limit)
	var tags []models.Tag
	if s.cache != nil && cache.GetJSON(ctx, s.cache, key, &tags) {
		return tags, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Tag{})
	if search != "" {
		q = q.Where("slug LIKE ? ESCAPE '\\'", "%"+escapeLike(search)+"%")
	}
	if err := q.Order("post_count DESC").Order("slug ASC").Limit(limit).Find(&tags).Error; err != nil {
		return nil, err
	}
	if s.cache != nil {
		cache.SetJSON(ctx, s.cache, key, tags, CacheTTL)
	}
	return tags, nil
}

// replacePostTags rewrites post_tags for postID and recounts every tag
// that gained or lost the post. names must already be normalized.
func replacePostTags(tx *gorm.DB, postID uint, names []string) ([]models.Tag, error) {
	var oldIDs []uint
	if err := tx.Table("post_tags").Where("post_id = ?", postID).Pluck("tag_id", &oldIDs).Error; err != nil {
		return nil, err
	}

	tags := make([]models.Tag, 0, len(names))
	for _, name := range names {
		var tag models.Tag
		slug := strings.ToLower(name)
		if err := tx.Where(models.Tag{Slug: slug}).
			Attrs(models.Tag{Name: name, Color: tagColor(slug)}).
			FirstOrCreate(&tag).Error; err != nil {
			return nil, fmt.Errorf("get or create tag %s: %w", slug, err)
		}
		tags = append(tags, tag)
	}

	if err := tx.Exec("DELETE FROM post_tags WHERE post_id = ?", postID).Error; err != nil {
		return nil, err
	}
	newIDs := make([]uint, 0, len(tags))
	for _, tag := range tags {
		if err := tx.Exec("INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)", postID, tag.ID).Error; err != nil {
			return nil, err
		}
		newIDs = append(newIDs, tag.ID)
	}

	if err := recountTagPosts(tx, append(oldIDs, newIDs...)); err != nil {
		return nil, err
	}
	for i := range tags {
		if err := tx.Take(&tags[i], tags[i].ID).Error; err != nil {
			return nil, err
		}
	}
	return tags, nil
}

// tagColor picks a stable palette color per slug.
func tagColor(slug string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(slug))
	return tagPalette[h.Sum32()%uint32(len(tagPalette))]
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
