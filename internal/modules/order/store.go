// README: Order store backed by PostgreSQL; stage updates use optimistic CAS.
package order

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/cache"
	"atelier/internal/types"
)

type Store struct {
	db    *pgxpool.Pool
	cache *cache.Facade
}

func NewStore(db *pgxpool.Pool, c *cache.Facade) *Store {
	return &Store{db: db, cache: c}
}

func (s *Store) Create(ctx context.Context, o *Order) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO orders (
			id, stage_id, stage_version, product_id, client_id, project_id,
			price, payment_amount, currency, is_archived, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		string(o.ID), string(o.StageID), o.StageVersion,
		string(o.ProductID), string(o.ClientID), toStringPtr(o.ProjectID),
		o.Price.Amount, o.PaymentAmount.Amount, o.Price.Currency,
		o.IsArchived, o.CreatedAt,
	)
	return err
}

// Get reads an order through the cache under the orders tag. Every order
// mutation forgets order_{id}, so a hit is always current.
func (s *Store) Get(ctx context.Context, id types.ID) (*Order, error) {
	return cache.Remember(ctx, s.cache, cache.OrderKey(string(id)), 0, cache.TagOrders,
		func(ctx context.Context) (*Order, error) {
			return s.get(ctx, s.db, id)
		})
}

type queryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *Store) get(ctx context.Context, q queryer, id types.ID) (*Order, error) {
	row := q.QueryRow(ctx, `
		SELECT id, stage_id, stage_version, product_id, client_id, project_id,
		       price, payment_amount, currency, is_archived, archived_at, created_at
		FROM orders
		WHERE id = $1`, string(id))

	var o Order
	var oid, stageID, productID, clientID, currency string
	var projectID sql.NullString
	var archivedAt sql.NullTime
	err := row.Scan(&oid, &stageID, &o.StageVersion, &productID, &clientID, &projectID,
		&o.Price.Amount, &o.PaymentAmount.Amount, &currency,
		&o.IsArchived, &archivedAt, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	o.ID = types.ID(oid)
	o.StageID = types.ID(stageID)
	o.ProductID = types.ID(productID)
	o.ClientID = types.ID(clientID)
	o.Price.Currency = currency
	o.PaymentAmount.Currency = currency
	if projectID.Valid {
		p := types.ID(projectID.String)
		o.ProjectID = &p
	}
	o.ArchivedAt = toTimePtr(archivedAt)
	return &o, nil
}

// ApplyTransition moves the order to the target stage inside one transaction:
// CAS on (stage_id, stage_version) against lost updates, archive flags set or
// cleared with the stage, and the status log row appended. All of it commits
// or none of it does. A failed CAS surfaces as ErrConflict for the caller to
// retry.
func (s *Store) ApplyTransition(ctx context.Context, o *Order, to types.ID, archive bool, actor *types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var archivedAt *time.Time
	if archive {
		now := time.Now().UTC()
		archivedAt = &now
	}
	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET stage_id = $1,
		    stage_version = stage_version + 1,
		    is_archived = $2,
		    archived_at = $3
		WHERE id = $4 AND stage_id = $5 AND stage_version = $6`,
		string(to), archive, archivedAt,
		string(o.ID), string(o.StageID), o.StageVersion,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() != 1 {
		return ErrConflict
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, from_stage_id, to_stage_id, actor_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())`,
		string(o.ID), string(o.StageID), string(to), toStringPtr(actor),
	); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}

	o.StageID = to
	o.StageVersion++
	o.IsArchived = archive
	o.ArchivedAt = archivedAt
	return nil
}

// AddPayment increases the recorded payment. Amounts only ever grow; refunds
// are handled out of band.
func (s *Store) AddPayment(ctx context.Context, id types.ID, amount int64) (*Order, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE orders
		SET payment_amount = payment_amount + $1
		WHERE id = $2`, amount, string(id))
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.get(ctx, s.db, id)
}

// StatusLogFor returns the order's transition history, oldest first.
func (s *Store) StatusLogFor(ctx context.Context, orderID types.ID) ([]StatusLog, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, from_stage_id, to_stage_id, actor_id, created_at
		FROM order_status_log
		WHERE order_id = $1
		ORDER BY id`, string(orderID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StatusLog
	for rows.Next() {
		var l StatusLog
		var oid, from, to string
		var actor sql.NullString
		if err := rows.Scan(&l.ID, &oid, &from, &to, &actor, &l.CreatedAt); err != nil {
			return nil, err
		}
		l.OrderID = types.ID(oid)
		l.FromStageID = types.ID(from)
		l.ToStageID = types.ID(to)
		if actor.Valid {
			a := types.ID(actor.String)
			l.ActorID = &a
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
