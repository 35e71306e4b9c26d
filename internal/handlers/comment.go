package handlers

import (
	"net/http"

	"saladoverflow/internal/metrics"
	"saladoverflow/internal/services"

	"github.com/gin-gonic/gin"
)

type CommentHandler struct {
	comments *services.CommentService
}

func NewCommentHandler(comments *services.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

type commentRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

type updateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// Tree 评论树 ?sort=newest|oldest|most_voted
func (h *CommentHandler) Tree(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	order := services.ParseCommentSort(c.Query("sort"))
	roots, err := h.comments.ListCommentTree(c.Request.Context(), postID, order, currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": roots, "sort": order})
}

func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}
	comment, err := h.comments.CreateComment(c.Request.Context(), currentUser(c), postID, services.CreateCommentInput{
		Content:  req.Content,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	kind := "comment"
	switch {
	case comment.ParentID != nil:
		kind = "reply"
	case comment.IsAnswer:
		kind = "answer"
	}
	metrics.Comments.WithLabelValues(kind).Inc()
	c.JSON(http.StatusCreated, comment)
}

// Accept toggles the accepted answer of a question.
func (h *CommentHandler) Accept(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	commentID, ok := idParam(c, "cid")
	if !ok {
		return
	}
	result, err := h.comments.ToggleAcceptedAnswer(c.Request.Context(), currentUser(c), postID, commentID)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.AcceptToggles.WithLabelValues(metrics.State(result.IsAccepted)).Inc()
	c.JSON(http.StatusOK, result)
}

func (h *CommentHandler) Update(c *gin.Context) {
	commentID, ok := idParam(c, "cid")
	if !ok {
		return
	}
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "content is required")
		return
	}
	comment, err := h.comments.UpdateComment(c.Request.Context(), currentUser(c), commentID, req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := idParam(c, "cid")
	if !ok {
		return
	}
	if err := h.comments.DeleteComment(c.Request.Context(), currentUser(c), commentID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
