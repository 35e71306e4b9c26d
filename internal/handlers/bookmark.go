package handlers

import (
	"net/http"

	"saladoverflow/internal/metrics"
	"saladoverflow/internal/services"
	"saladoverflow/internal/utils"

	"github.com/gin-gonic/gin"
)

type BookmarkHandler struct {
	bookmarks *services.BookmarkService
}

func NewBookmarkHandler(bookmarks *services.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks}
}

// Toggle 收藏/取消收藏
func (h *BookmarkHandler) Toggle(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, err := h.bookmarks.ToggleBookmark(c.Request.Context(), currentUser(c), postID)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Bookmarks.WithLabelValues(metrics.State(result.IsBookmarked)).Inc()
	c.JSON(http.StatusOK, result)
}

// List 我的收藏
func (h *BookmarkHandler) List(c *gin.Context) {
	page, err := h.bookmarks.ListBookmarks(c.Request.Context(), currentUser(c),
		utils.StringToInt(c.Query("page")), utils.StringToInt(c.Query("page_size")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
