// README: Product admin handlers.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/modules/product"
	"atelier/internal/types"
)

type ProductHandler struct {
	products *product.Service
}

func NewProductHandler(products *product.Service) *ProductHandler {
	return &ProductHandler{products: products}
}

type productReq struct {
	Name     string   `json:"name"`
	SKU      string   `json:"sku"`
	StageIDs []string `json:"stage_ids"`
}

func (h *ProductHandler) Create(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	p, err := h.products.Create(c.Request.Context(), product.Product{
		Name:     req.Name,
		SKU:      req.SKU,
		StageIDs: toIDs(req.StageIDs),
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) Get(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type productStagesReq struct {
	StageIDs []string `json:"stage_ids"`
}

func (h *ProductHandler) SetStages(c *gin.Context) {
	var req productStagesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.products.SetStages(c.Request.Context(), types.ID(c.Param("id")), toIDs(req.StageIDs)); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, product.ErrBadRequest):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, product.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	default:
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func toIDs(in []string) []types.ID {
	out := make([]types.ID, len(in))
	for i, v := range in {
		out[i] = types.ID(v)
	}
	return out
}
