package handlers

import (
	"net/http"

	"saladoverflow/internal/services"
	"saladoverflow/internal/utils"

	"github.com/gin-gonic/gin"
)

type TagHandler struct {
	tags *services.TagService
}

func NewTagHandler(tags *services.TagService) *TagHandler {
	return &TagHandler{tags: tags}
}

type attachTagsRequest struct {
	Names []string `json:"names"`
}

// List ?search=&limit=
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tags.ListTags(c.Request.Context(), c.Query("search"), utils.StringToInt(c.Query("limit")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tags": tags})
}

// Attach replaces a post's tags.
func (h *TagHandler) Attach(c *gin.Context) {
	postID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req attachTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "names must be a list of tag names")
		return
	}
	tags, err := h.tags.AttachTags(c.Request.Context(), currentUser(c), postID, req.Names)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post_id": postID, "tags": tags})
}
