// README: Stage admin handlers.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/modules/stage"
	"atelier/internal/types"
)

type StageHandler struct {
	stages *stage.Service
}

func NewStageHandler(stages *stage.Service) *StageHandler {
	return &StageHandler{stages: stages}
}

func (h *StageHandler) Graph(c *gin.Context) {
	g, err := h.stages.Graph(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

type stageReq struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Rank        int    `json:"rank"`
	ColorHint   string `json:"color_hint"`
	Active      bool   `json:"active"`
}

func (h *StageHandler) Create(c *gin.Context) {
	var req stageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	st, err := h.stages.Create(c.Request.Context(), stage.Stage{
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Rank:        req.Rank,
		ColorHint:   req.ColorHint,
		Active:      req.Active,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

func (h *StageHandler) Update(c *gin.Context) {
	var req stageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.stages.Update(c.Request.Context(), stage.Stage{
		ID:          types.ID(c.Param("id")),
		Name:        req.Name,
		DisplayName: req.DisplayName,
		Rank:        req.Rank,
		ColorHint:   req.ColorHint,
		Active:      req.Active,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type stageRoleReq struct {
	RoleType   string `json:"role_type"`
	IsRequired bool   `json:"is_required"`
	AutoAssign bool   `json:"auto_assign"`
}

func (h *StageHandler) AttachRole(c *gin.Context) {
	var req stageRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	err := h.stages.AttachRole(c.Request.Context(), stage.Role{
		StageID:    types.ID(c.Param("id")),
		RoleType:   req.RoleType,
		IsRequired: req.IsRequired,
		AutoAssign: req.AutoAssign,
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *StageHandler) DetachRole(c *gin.Context) {
	err := h.stages.DetachRole(c.Request.Context(), types.ID(c.Param("id")), c.Param("role"))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
