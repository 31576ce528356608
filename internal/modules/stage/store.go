// README: Stage store backed by PostgreSQL with a cached graph view.
package stage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/cache"
	"atelier/internal/types"
)

var ErrNotFound = errors.New("stage not found")

type Store struct {
	db    *pgxpool.Pool
	cache *cache.Facade
}

func NewStore(db *pgxpool.Pool, c *cache.Facade) *Store {
	return &Store{db: db, cache: c}
}

// Graph loads the full stage graph through the cache under the stages tag.
func (s *Store) Graph(ctx context.Context) (*Graph, error) {
	return cache.Remember(ctx, s.cache, cache.StageGraphKey, 0, cache.TagStages,
		func(ctx context.Context) (*Graph, error) {
			stages, err := s.listStages(ctx)
			if err != nil {
				return nil, err
			}
			roles, err := s.listRoles(ctx)
			if err != nil {
				return nil, err
			}
			return NewGraph(stages, roles), nil
		})
}

// ByName resolves a stage by slug through its own cache entry so a rename
// can evict exactly the affected lookups.
func (s *Store) ByName(ctx context.Context, name string) (Stage, error) {
	return cache.Remember(ctx, s.cache, cache.StageByNameKey(name), 0, cache.TagStages,
		func(ctx context.Context) (Stage, error) {
			row := s.db.QueryRow(ctx, `
				SELECT id, name, display_name, rank, color_hint, active
				FROM stages
				WHERE name = $1`, name)
			return scanStage(row)
		})
}

func (s *Store) Get(ctx context.Context, id types.ID) (Stage, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, display_name, rank, color_hint, active
		FROM stages
		WHERE id = $1`, string(id))
	return scanStage(row)
}

func (s *Store) Create(ctx context.Context, st *Stage) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO stages (id, name, display_name, rank, color_hint, active)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(st.ID), st.Name, st.DisplayName, st.Rank, st.ColorHint, st.Active,
	)
	return err
}

func (s *Store) Update(ctx context.Context, st *Stage) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE stages
		SET name = $2, display_name = $3, rank = $4, color_hint = $5, active = $6
		WHERE id = $1`,
		string(st.ID), st.Name, st.DisplayName, st.Rank, st.ColorHint, st.Active,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id types.ID) error {
	_, err := s.db.Exec(ctx, `DELETE FROM stages WHERE id = $1`, string(id))
	return err
}

func (s *Store) AttachRole(ctx context.Context, r Role) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO stage_roles (stage_id, role_type, is_required, auto_assign)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (stage_id, role_type)
		DO UPDATE SET is_required = $3, auto_assign = $4`,
		string(r.StageID), r.RoleType, r.IsRequired, r.AutoAssign,
	)
	return err
}

func (s *Store) DetachRole(ctx context.Context, stageID types.ID, roleType string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM stage_roles WHERE stage_id = $1 AND role_type = $2`,
		string(stageID), roleType,
	)
	return err
}

func (s *Store) listStages(ctx context.Context) ([]Stage, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, display_name, rank, color_hint, active
		FROM stages
		ORDER BY rank`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Stage
	for rows.Next() {
		st, err := scanStage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func (s *Store) listRoles(ctx context.Context) ([]Role, error) {
	rows, err := s.db.Query(ctx, `
		SELECT stage_id, role_type, is_required, auto_assign
		FROM stage_roles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Role
	for rows.Next() {
		var r Role
		var stageID string
		if err := rows.Scan(&stageID, &r.RoleType, &r.IsRequired, &r.AutoAssign); err != nil {
			return nil, err
		}
		r.StageID = types.ID(stageID)
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanStage(row pgx.Row) (Stage, error) {
	var st Stage
	var id string
	err := row.Scan(&id, &st.Name, &st.DisplayName, &st.Rank, &st.ColorHint, &st.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return Stage{}, ErrNotFound
	}
	if err != nil {
		return Stage{}, err
	}
	st.ID = types.ID(id)
	return st, nil
}
