package handlers

import (
	"errors"
	"net/http"
	"strings"

	"saladoverflow/internal/log"
	"saladoverflow/internal/middleware"
	"saladoverflow/internal/models"
	"saladoverflow/internal/services"
	"saladoverflow/internal/utils"

	"github.com/gin-gonic/gin"
)

// errorKinds maps service sentinel errors onto HTTP status and code.
var errorKinds = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrNotFound, http.StatusNotFound, "not_found"},
	{services.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{services.ErrForbidden, http.StatusForbidden, "forbidden"},
	{services.ErrInvalidOperation, http.StatusConflict, "invalid_operation"},
	{services.ErrInvalidReference, http.StatusUnprocessableEntity, "invalid_reference"},
	{services.ErrValidation, http.StatusBadRequest, "validation_error"},
}

// writeError renders err as {"error", "code"}. Unknown errors are logged
// and hidden behind a generic 500.
func writeError(c *gin.Context, err error) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			c.AbortWithStatusJSON(k.status, gin.H{"error": msg(err), "code": k.code})
			return
		}
	}
	log.Error.Printf("%s %s [%s]: %v", c.Request.Method, c.Request.URL.Path, c.GetString(middleware.RequestIDKey), err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error": "internal server error",
		"code":  "internal_error",
	})
}

// badRequest is for malformed bodies and parameters.
func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "code": "bad_request"})
}

func msg(err error) string {
	if err == nil {
		return ""
	}
	s := err.Error()
	if len(s) > 0 {
		s = strings.ToUpper(s[:1]) + s[1:]
	}
	return s
}

// idParam parses a positive numeric path parameter, writing 400 on failure.
func idParam(c *gin.Context, name string) (uint, bool) {
	id, ok := utils.ParseID(c.Param(name))
	if !ok {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}

// currentUser is nil for anonymous requests.
func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}

// voteBody is shared by post and comment votes.
type voteBody struct {
	VoteType models.VoteDirection `json:"vote_type" binding:"required,oneof=upvote downvote"`
}
