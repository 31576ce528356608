// README: Order assignment records and their status lifecycle.
package assignment

import (
	"time"

	"atelier/internal/types"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusInProgress  Status = "in_progress"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusCancelled   Status = "cancelled"
)

// statusRank orders the forward lifecycle. Cancelled sits outside the rank:
// it is reachable from any non-terminal state and terminal once entered.
var statusRank = map[Status]int{
	StatusPending:     0,
	StatusInProgress:  1,
	StatusUnderReview: 2,
	StatusApproved:    3,
}

// CanTransition reports whether an assignment may move from one status to
// another: strictly forward through the lifecycle, cancel from anywhere
// non-terminal, never out of cancelled or approved-backwards.
func CanTransition(from, to Status) bool {
	if from == StatusCancelled {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	fr, ok := statusRank[from]
	if !ok {
		return false
	}
	tr, ok := statusRank[to]
	if !ok {
		return false
	}
	return tr > fr
}

// Assignment binds a user to a role on an order. Stage applicability is
// derived: an assignment targets every stage whose role set contains its
// RoleType.
type Assignment struct {
	ID          types.ID   `json:"id"`
	OrderID     types.ID   `json:"order_id"`
	UserID      types.ID   `json:"user_id"`
	RoleType    string     `json:"role_type"`
	Status      Status     `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
