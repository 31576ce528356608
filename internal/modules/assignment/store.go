// README: Assignment store backed by PostgreSQL.
package assignment

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/types"
)

var (
	ErrNotFound = errors.New("assignment not found")
	ErrConflict = errors.New("assignment state conflict")
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Create(ctx context.Context, a *Assignment) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_assignments (id, order_id, user_id, role_type, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(a.ID), string(a.OrderID), string(a.UserID), a.RoleType, string(a.Status), a.CreatedAt,
	)
	return err
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, order_id, user_id, role_type, status,
		       started_at, approved_at, cancelled_at, created_at
		FROM order_assignments
		WHERE id = $1 AND deleted_at IS NULL`, string(id))
	return scanAssignment(row)
}

// UpdateStatus persists the status change with a compare-and-swap on the
// prior status, stamping lifecycle timestamps in SQL: started_at only when
// unset, approved_at exactly once, cancelled_at on cancellation.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status) (*Assignment, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE order_assignments
		SET status = $1,
		    started_at = CASE WHEN $1 = 'in_progress' AND started_at IS NULL THEN NOW() ELSE started_at END,
		    approved_at = CASE WHEN $1 = 'approved' AND approved_at IS NULL THEN NOW() ELSE approved_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END
		WHERE id = $2 AND status = $3 AND deleted_at IS NULL
		RETURNING id, order_id, user_id, role_type, status,
		          started_at, approved_at, cancelled_at, created_at`,
		string(to), string(id), string(from),
	)
	a, err := scanAssignment(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrConflict
	}
	return a, err
}

// ListByOrder returns the order's live (non-soft-deleted) assignments.
func (s *Store) ListByOrder(ctx context.Context, orderID types.ID) ([]Assignment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, user_id, role_type, status,
		       started_at, approved_at, cancelled_at, created_at
		FROM order_assignments
		WHERE order_id = $1 AND deleted_at IS NULL
		ORDER BY created_at`, string(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Assignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// SoftDelete hides a cancelled assignment. Only cancelled rows are eligible.
func (s *Store) SoftDelete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE order_assignments
		SET deleted_at = NOW()
		WHERE id = $1 AND status = 'cancelled' AND deleted_at IS NULL`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	return nil
}

func scanAssignment(row pgx.Row) (*Assignment, error) {
	var a Assignment
	var id, orderID, userID, status string
	var startedAt, approvedAt, cancelledAt sql.NullTime
	err := row.Scan(&id, &orderID, &userID, &a.RoleType, &status,
		&startedAt, &approvedAt, &cancelledAt, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	a.ID = types.ID(id)
	a.OrderID = types.ID(orderID)
	a.UserID = types.ID(userID)
	a.Status = Status(status)
	a.StartedAt = toTimePtr(startedAt)
	a.ApprovedAt = toTimePtr(approvedAt)
	a.CancelledAt = toTimePtr(cancelledAt)
	return &a, nil
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
