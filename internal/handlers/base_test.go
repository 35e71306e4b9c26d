package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"saladoverflow/internal/log"
	"saladoverflow/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var logged bytes.Buffer
	log.SetOutput(&logged)

	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: post", services.ErrNotFound), http.StatusNotFound, "not_found"},
		{services.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{fmt.Errorf("%w: only the author can edit this post", services.ErrForbidden), http.StatusForbidden, "forbidden"},
		{fmt.Errorf("%w: replies cannot be accepted", services.ErrInvalidOperation), http.StatusConflict, "invalid_operation"},
		{fmt.Errorf("%w: parent comment", services.ErrInvalidReference), http.StatusUnprocessableEntity, "invalid_reference"},
		{fmt.Errorf("%w: title is too short", services.ErrValidation), http.StatusBadRequest, "validation_error"},
		{errors.New("connection reset"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		t.Run(tc.code, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

			writeError(c, tc.err)

			require.Equal(t, tc.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tc.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}
	assert.Contains(t, logged.String(), "connection reset")
}

func TestInternalErrorHidesDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/x", nil)

	writeError(c, errors.New("pq: password authentication failed"))
	assert.NotContains(t, w.Body.String(), "password")
}

func TestIDParam(t *testing.T) {
	gin.SetMode(gin.TestMode)
	for _, tc := range []struct {
		raw string
		id  uint
		ok  bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-1", 0, false},
		{"abc", 0, false},
	} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: tc.raw}}

		id, ok := idParam(c, "id")
		assert.Equal(t, tc.ok, ok, tc.raw)
		assert.Equal(t, tc.id, id, tc.raw)
		if !ok {
			assert.Equal(t, http.StatusBadRequest, w.Code)
		}
	}
}

func TestMsgCapitalizes(t *testing.T) {
	assert.Equal(t, "Not found: post", msg(fmt.Errorf("%w: post", services.ErrNotFound)))
	assert.Equal(t, "", msg(nil))
}
