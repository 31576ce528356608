// README: Production order aggregate and status log.
package order

import (
	"errors"
	"time"

	"atelier/internal/types"
)

var (
	ErrNotFound   = errors.New("order not found")
	ErrConflict   = errors.New("order stage conflict")
	ErrBadRequest = errors.New("bad request")
)

type Order struct {
	ID            types.ID    `json:"id"`
	StageID       types.ID    `json:"stage_id"`
	StageVersion  int         `json:"stage_version"`
	ProductID     types.ID    `json:"product_id"`
	ClientID      types.ID    `json:"client_id"`
	ProjectID     *types.ID   `json:"project_id,omitempty"`
	Price         types.Money `json:"price"`
	PaymentAmount types.Money `json:"payment_amount"`
	IsArchived    bool        `json:"is_archived"`
	ArchivedAt    *time.Time  `json:"archived_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
}

// IsFullyPaid holds when payments cover the price, or the order is free.
func (o *Order) IsFullyPaid() bool {
	return o.Price.Amount <= 0 || o.PaymentAmount.Covers(o.Price)
}

// StatusLog is one immutable stage-change record.
type StatusLog struct {
	ID          int64     `json:"id"`
	OrderID     types.ID  `json:"order_id"`
	FromStageID types.ID  `json:"from_stage_id"`
	ToStageID   types.ID  `json:"to_stage_id"`
	ActorID     *types.ID `json:"actor_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
