package handlers

import (
	"net/http"
	"strings"

	"saladoverflow/internal/metrics"
	"saladoverflow/internal/models"
	"saladoverflow/internal/services"
	"saladoverflow/internal/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	posts *services.PostService
}

func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

type createPostRequest struct {
	Title    string          `json:"title" binding:"required"`
	Content  string          `json:"content" binding:"required"`
	PostType models.PostType `json:"post_type"`
	Tags     []string        `json:"tags"`
}

type updatePostRequest struct {
	Title   *string  `json:"title"`
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
}

type lockRequest struct {
	Locked *bool `json:"locked"`
}

// List 帖子列表: ?post_type=&tags=a,b&author=&search=&sort=&page=&page_size=
func (h *PostHandler) List(c *gin.Context) {
	f := services.PostFilter{
		PostType: models.PostType(c.Query("post_type")),
		Author:   c.Query("author"),
		Search:   c.Query("search"),
		Sort:     services.ParsePostSort(c.Query("sort")),
		Page:     utils.StringToInt(c.Query("page")),
		PageSize: utils.StringToInt(c.Query("page_size")),
	}
	if f.PostType != "" && !f.PostType.Valid() {
		badRequest(c, "invalid post_type")
		return
	}
	if tags := c.Query("tags"); tags != "" {
		for _, t := range strings.Split(tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Tags = append(f.Tags, t)
			}
		}
	}

	page, err := h.posts.ListPosts(c.Request.Context(), f, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PostHandler) Create(c *gin.Context) {
	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "title and content are required")
		return
	}
	if req.PostType == "" {
		req.PostType = models.PostTypeQuestion
	}
	post, err := h.posts.CreatePost(c.Request.Context(), currentUser(c), services.CreatePostInput{
		Title:    req.Title,
		Content:  req.Content,
		PostType: req.PostType,
		Tags:     req.Tags,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Posts.WithLabelValues(string(post.PostType), "created").Inc()
	c.JSON(http.StatusCreated, post)
}

// Detail returns one post and counts the view.
func (h *PostHandler) Detail(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	view, err := h.posts.GetPost(c.Request.Context(), id, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req updatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	post, err := h.posts.UpdatePost(c.Request.Context(), currentUser(c), id, services.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
		Tags:    req.Tags,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Posts.WithLabelValues(string(post.PostType), "updated").Inc()
	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.posts.DeletePost(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}
	metrics.Posts.WithLabelValues("any", "deleted").Inc()
	c.Status(http.StatusNoContent)
}

// Lock closes a post for new comments; {"locked": false} reopens it.
func (h *PostHandler) Lock(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	locked := true
	var req lockRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		if req.Locked != nil {
			locked = *req.Locked
		}
	}
	post, err := h.posts.SetLocked(c.Request.Context(), currentUser(c), id, locked)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": post.ID, "is_locked": post.IsLocked})
}
