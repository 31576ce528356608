// README: Product store backed by PostgreSQL with cached per-product reads.
package product

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/cache"
	"atelier/internal/types"
)

var ErrNotFound = errors.New("product not found")

type Store struct {
	db    *pgxpool.Pool
	cache *cache.Facade
}

func NewStore(db *pgxpool.Pool, c *cache.Facade) *Store {
	return &Store{db: db, cache: c}
}

// Get reads a product, including its supported-stage set, through the cache.
func (s *Store) Get(ctx context.Context, id types.ID) (*Product, error) {
	return cache.Remember(ctx, s.cache, cache.ProductKey(string(id)), 0, cache.TagProducts,
		func(ctx context.Context) (*Product, error) {
			row := s.db.QueryRow(ctx, `
				SELECT id, name, sku FROM products WHERE id = $1`, string(id))
			var p Product
			var pid string
			err := row.Scan(&pid, &p.Name, &p.SKU)
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrNotFound
			}
			if err != nil {
				return nil, err
			}
			p.ID = types.ID(pid)

			rows, err := s.db.Query(ctx, `
				SELECT stage_id FROM product_stages WHERE product_id = $1`, string(id))
			if err != nil {
				return nil, err
			}
			defer rows.Close()
			for rows.Next() {
				var sid string
				if err := rows.Scan(&sid); err != nil {
					return nil, err
				}
				p.StageIDs = append(p.StageIDs, types.ID(sid))
			}
			return &p, rows.Err()
		})
}

func (s *Store) Create(ctx context.Context, p *Product) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO products (id, name, sku) VALUES ($1, $2, $3)`,
		string(p.ID), p.Name, p.SKU,
	)
	return err
}

// SetStages replaces the product's supported-stage set.
func (s *Store) SetStages(ctx context.Context, id types.ID, stageIDs []types.ID) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM product_stages WHERE product_id = $1`, string(id)); err != nil {
		return err
	}
	for _, sid := range stageIDs {
		if _, err := tx.Exec(ctx, `
			INSERT INTO product_stages (product_id, stage_id) VALUES ($1, $2)`,
			string(id), string(sid),
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
