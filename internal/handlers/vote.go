package handlers

import (
	"net/http"

	"saladoverflow/internal/metrics"
	"saladoverflow/internal/models"
	"saladoverflow/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

// VotePost 给帖子投票; repeating the same direction clears the vote.
func (h *VoteHandler) VotePost(c *gin.Context) {
	h.vote(c, models.VoteTargetPost, "id")
}

// VoteComment 给评论投票
func (h *VoteHandler) VoteComment(c *gin.Context) {
	h.vote(c, models.VoteTargetComment, "cid")
}

func (h *VoteHandler) vote(c *gin.Context, target models.VoteTarget, param string) {
	id, ok := idParam(c, param)
	if !ok {
		return
	}
	var req voteBody
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "vote_type must be upvote or downvote")
		return
	}
	result, err := h.votes.SetVote(c.Request.Context(), currentUser(c), target, id, req.VoteType)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.Votes.WithLabelValues(string(target), string(result.Action)).Inc()
	c.JSON(http.StatusOK, result)
}
