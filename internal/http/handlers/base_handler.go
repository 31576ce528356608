// README: Shared handler utilities: error mapping and actor resolution.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/http/middleware"
	"atelier/internal/modules/assignment"
	"atelier/internal/modules/order"
	"atelier/internal/modules/stage"
	"atelier/internal/types"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, errorResponse{Error: msg})
}

func writeDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, order.ErrBadRequest), errors.Is(err, stage.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound), errors.Is(err, stage.ErrNotFound),
		errors.Is(err, assignment.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, order.ErrConflict), errors.Is(err, assignment.ErrConflict),
		errors.Is(err, assignment.ErrInvalidState):
		writeError(c, http.StatusConflict, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

// actorID returns the authenticated actor, falling back to an explicit
// header when auth is disabled locally.
func actorID(c *gin.Context) types.ID {
	if uid, ok := c.Get(middleware.UIDKey); ok {
		if s, ok := uid.(string); ok {
			return types.ID(s)
		}
	}
	return types.ID(c.GetHeader("X-Actor-ID"))
}
