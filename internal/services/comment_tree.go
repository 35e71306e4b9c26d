package services

import (
	"context"
	"fmt"
	"sort"

	"saladoverflow/internal/models"
)

type CommentSort string

const (
	CommentSortNewest    CommentSort = "newest"
	CommentSortOldest    CommentSort = "oldest"
	CommentSortMostVoted CommentSort = "most_voted"
)

// ParseCommentSort defaults unknown values to newest.
func ParseCommentSort(s string) CommentSort {
	switch CommentSort(s) {
	case CommentSortOldest, CommentSortMostVoted:
		return CommentSort(s)
	}
	return CommentSortNewest
}

// ListCommentTree returns the post's top-level comments with replies nested
// beneath them. viewer may be nil; when set, each comment carries its vote.
func (s *CommentService) ListCommentTree(ctx context.Context, postID uint, order CommentSort, viewer *models.User) ([]*models.Comment, error) {
	gdb := s.db.WithContext(ctx)

	var exists int64
	if err := gdb.Model(&models.Post{}).Where("id = ?", postID).Count(&exists).Error; err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, fmt.Errorf("%w: post", ErrNotFound)
	}

	var comments []models.Comment
	if err := gdb.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC").Order("id ASC").
		Find(&comments).Error; err != nil {
		return nil, err
	}

	if viewer != nil && len(comments) > 0 {
		ids := make([]uint, len(comments))
		for i := range comments {
			ids[i] = comments[i].ID
		}
		votes, err := NewVoteService(s.db, nil).UserVotes(ctx, viewer.ID, models.VoteTargetComment, ids)
		if err != nil {
			return nil, err
		}
		for i := range comments {
			comments[i].UserVote = votes[comments[i].ID]
		}
	}

	return BuildCommentTree(comments, order), nil
}

// BuildCommentTree links a post's flat comment list into a forest. Input
// must be oldest first; replies keep that order, roots follow order.
// Comments whose parent is missing are promoted to roots.
func BuildCommentTree(comments []models.Comment, order CommentSort) []*models.Comment {
	byID := make(map[uint]*models.Comment, len(comments))
	for i := range comments {
		c := &comments[i]
		c.Replies = []*models.Comment{}
		if c.IsDeleted {
			c.Content = DeletedCommentContent
			c.ContentMarkdown = ""
			c.ContentPlain = ""
		}
		byID[c.ID] = c
	}

	children := make(map[uint][]*models.Comment, len(comments))
	roots := make([]*models.Comment, 0)
	for i := range comments {
		c := &comments[i]
		if c.ParentID != nil {
			if _, ok := byID[*c.ParentID]; ok && *c.ParentID != c.ID {
				children[*c.ParentID] = append(children[*c.ParentID], c)
				continue
			}
		}
		roots = append(roots, c)
	}
	sortRoots(roots, order)

	type frame struct {
		c     *models.Comment
		depth int
	}
	stack := make([]frame, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{roots[i], 0})
	}
	visited := make(map[uint]bool, len(comments))
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[f.c.ID] {
			continue
		}
		visited[f.c.ID] = true
		f.c.Depth = f.depth

		kids := children[f.c.ID]
		for _, k := range kids {
			if !visited[k.ID] {
				f.c.Replies = append(f.c.Replies, k)
			}
		}
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, frame{kids[i], f.depth + 1})
		}
	}
	return roots
}

func sortRoots(roots []*models.Comment, order CommentSort) {
	sort.SliceStable(roots, func(i, j int) bool {
		a, b := roots[i], roots[j]
		switch order {
		case CommentSortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
			return a.ID < b.ID
		case CommentSortMostVoted:
			sa, sb := a.UpvoteCount-a.DownvoteCount, b.UpvoteCount-b.DownvoteCount
			if sa != sb {
				return sa > sb
			}
			return a.ID < b.ID
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID > b.ID
		}
	})
}
