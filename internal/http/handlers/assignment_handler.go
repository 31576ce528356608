// README: Assignment handlers: create, list, status transitions, removal.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/modules/assignment"
	"atelier/internal/types"
)

type AssignmentHandler struct {
	assignments *assignment.Service
}

func NewAssignmentHandler(assignments *assignment.Service) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

type createAssignmentReq struct {
	OrderID  string `json:"order_id"`
	UserID   string `json:"user_id"`
	RoleType string `json:"role_type"`
}

func (h *AssignmentHandler) Create(c *gin.Context) {
	var req createAssignmentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	a, err := h.assignments.Create(c.Request.Context(), assignment.CreateCommand{
		OrderID:  types.ID(req.OrderID),
		UserID:   types.ID(req.UserID),
		RoleType: req.RoleType,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *AssignmentHandler) ListByOrder(c *gin.Context) {
	list, err := h.assignments.ListByOrder(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": list})
}

type setStatusReq struct {
	Status string `json:"status"`
}

func (h *AssignmentHandler) SetStatus(c *gin.Context) {
	var req setStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.assignments.SetStatus(c.Request.Context(), assignment.SetStatusCommand{
		AssignmentID: types.ID(c.Param("id")),
		NewStatus:    assignment.Status(req.Status),
		Actor:        actorID(c),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": req.Status})
}

func (h *AssignmentHandler) Remove(c *gin.Context) {
	if err := h.assignments.Remove(c.Request.Context(), types.ID(c.Param("id"))); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
