package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"atelier/internal/http/middleware"
	"atelier/internal/modules/assignment"
	"atelier/internal/modules/order"
	"atelier/internal/modules/stage"
)

func TestWriteDomainErrorStatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		err  error
		want int
	}{
		{order.ErrBadRequest, http.StatusBadRequest},
		{stage.ErrBadRequest, http.StatusBadRequest},
		{order.ErrNotFound, http.StatusNotFound},
		{stage.ErrNotFound, http.StatusNotFound},
		{assignment.ErrNotFound, http.StatusNotFound},
		{order.ErrConflict, http.StatusConflict},
		{assignment.ErrConflict, http.StatusConflict},
		{assignment.ErrInvalidState, http.StatusConflict},
		{fmt.Errorf("wrapped: %w", order.ErrConflict), http.StatusConflict},
		{fmt.Errorf("something else"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(rec)
		writeDomainError(c, tc.err)
		assert.Equal(t, tc.want, rec.Code, "error %v", tc.err)
	}
}

func TestActorIDPrefersAuthenticatedUID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Actor-ID", "header-actor")
	c.Set(middleware.UIDKey, "firebase-uid")
	assert.EqualValues(t, "firebase-uid", actorID(c))

	rec = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.Header.Set("X-Actor-ID", "header-actor")
	assert.EqualValues(t, "header-actor", actorID(c))
}
