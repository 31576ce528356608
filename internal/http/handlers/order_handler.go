// README: Order handlers: create, read, payment, bulk stage change.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"atelier/internal/modules/order"
	"atelier/internal/types"
)

type OrderHandler struct {
	orders *order.Service
}

func NewOrderHandler(orders *order.Service) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type createOrderReq struct {
	ProductID string `json:"product_id"`
	ClientID  string `json:"client_id"`
	ProjectID string `json:"project_id"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
}

func (h *OrderHandler) Create(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	cmd := order.CreateCommand{
		ProductID: types.ID(req.ProductID),
		ClientID:  types.ID(req.ClientID),
		Price:     types.Money{Amount: req.Price, Currency: req.Currency},
	}
	if req.ProjectID != "" {
		pid := types.ID(req.ProjectID)
		cmd.ProjectID = &pid
	}
	o, err := h.orders.Create(c.Request.Context(), cmd)
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func (h *OrderHandler) Get(c *gin.Context) {
	o, err := h.orders.Get(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h *OrderHandler) StatusLog(c *gin.Context) {
	log, err := h.orders.StatusLog(c.Request.Context(), types.ID(c.Param("id")))
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": log})
}

type paymentReq struct {
	Amount int64 `json:"amount"`
}

func (h *OrderHandler) RecordPayment(c *gin.Context) {
	var req paymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	o, err := h.orders.RecordPayment(c.Request.Context(), order.PaymentCommand{
		OrderID: types.ID(c.Param("id")),
		Amount:  req.Amount,
		Actor:   actorID(c),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type bulkStageReq struct {
	OrderIDs []string `json:"order_ids"`
	StageID  string   `json:"stage_id"`
}

func (h *OrderHandler) BulkSetStage(c *gin.Context) {
	var req bulkStageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	ids := make([]types.ID, len(req.OrderIDs))
	for i, id := range req.OrderIDs {
		ids[i] = types.ID(id)
	}
	moved, err := h.orders.BulkSetStage(c.Request.Context(), order.BulkStageCommand{
		OrderIDs: ids,
		StageID:  types.ID(req.StageID),
		Actor:    actorID(c),
	})
	if err != nil {
		writeDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved})
}
