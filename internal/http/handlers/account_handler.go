// README: Account handlers: users, role grants, grouped view.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/modules/account"
	"atelier/internal/types"
)

type AccountHandler struct {
	accounts *account.Service
}

func NewAccountHandler(accounts *account.Service) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func (h *AccountHandler) GroupedByStageRole(c *gin.Context) {
	groups, err := h.accounts.GroupedByStageRole(c.Request.Context())
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

type setRolesReq struct {
	Roles []string `json:"roles"`
}

func (h *AccountHandler) SetRoles(c *gin.Context) {
	var req setRolesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.accounts.SetUserRoles(c.Request.Context(), types.ID(c.Param("id")), req.Roles); err != nil {
		writeDomainError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
