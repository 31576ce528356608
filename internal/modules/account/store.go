// README: Account store backed by PostgreSQL; the grouped view reads through the cache.
package account

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"atelier/internal/cache"
	"atelier/internal/types"
)

var ErrNotFound = errors.New("user not found")

type Store struct {
	db    *pgxpool.Pool
	cache *cache.Facade
}

func NewStore(db *pgxpool.Pool, c *cache.Facade) *Store {
	return &Store{db: db, cache: c}
}

func (s *Store) Get(ctx context.Context, id types.ID) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, display_name, email, fcm_token FROM users WHERE id = $1`, string(id))
	return scanUser(row)
}

// GetByFirebaseUID resolves the authenticated principal to a user record.
func (s *Store) GetByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, display_name, email, fcm_token FROM users WHERE firebase_uid = $1`, uid)
	return scanUser(row)
}

// UsersWithRole returns the ids of users holding the given role.
func (s *Store) UsersWithRole(ctx context.Context, roleType string) ([]types.ID, error) {
	rows, err := s.db.Query(ctx, `
		SELECT user_id FROM user_roles WHERE role_type = $1`, roleType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []types.ID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, types.ID(id))
	}
	return out, rows.Err()
}

// FCMToken implements the notification token lookup.
func (s *Store) FCMToken(ctx context.Context, userID types.ID) (string, bool, error) {
	u, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if u.FCMToken == nil || *u.FCMToken == "" {
		return "", false, nil
	}
	return *u.FCMToken, true, nil
}

// GroupedByStageRole builds the composite view through the cache under the
// users, roles, and stages tags together: a mutation to any of the three
// must evict it.
func (s *Store) GroupedByStageRole(ctx context.Context) ([]StageRoleGroup, error) {
	return cache.RememberWithTags(ctx, s.cache, cache.UsersByStageRoleKey, 0,
		[]cache.Tag{cache.TagUsers, cache.TagRoles, cache.TagStages},
		func(ctx context.Context) ([]StageRoleGroup, error) {
			rows, err := s.db.Query(ctx, `
				SELECT st.id, st.name, sr.role_type, u.id, u.display_name, u.email
				FROM stage_roles sr
				JOIN stages st ON st.id = sr.stage_id
				JOIN user_roles ur ON ur.role_type = sr.role_type
				JOIN users u ON u.id = ur.user_id
				WHERE st.active
				ORDER BY st.rank, sr.role_type, u.display_name`)
			if err != nil {
				return nil, err
			}
			defer rows.Close()

			var groups []StageRoleGroup
			for rows.Next() {
				var stageID, stageName, roleType, userID, name, email string
				if err := rows.Scan(&stageID, &stageName, &roleType, &userID, &name, &email); err != nil {
					return nil, err
				}
				u := User{ID: types.ID(userID), DisplayName: name, Email: email}
				n := len(groups)
				if n > 0 && groups[n-1].StageID == types.ID(stageID) && groups[n-1].RoleType == roleType {
					groups[n-1].Users = append(groups[n-1].Users, u)
					continue
				}
				groups = append(groups, StageRoleGroup{
					StageID:   types.ID(stageID),
					StageName: stageName,
					RoleType:  roleType,
					Users:     []User{u},
				})
			}
			return groups, rows.Err()
		})
}

func (s *Store) UpdateUser(ctx context.Context, u *User) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE users SET display_name = $2, email = $3, fcm_token = $4 WHERE id = $1`,
		string(u.ID), u.DisplayName, u.Email, u.FCMToken,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetUserRoles(ctx context.Context, userID types.ID, roles []string) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_roles WHERE user_id = $1`, string(userID)); err != nil {
		return err
	}
	for _, r := range roles {
		if _, err := tx.Exec(ctx, `
			INSERT INTO user_roles (user_id, role_type) VALUES ($1, $2)`,
			string(userID), r,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var id string
	var token sql.NullString
	err := row.Scan(&id, &u.DisplayName, &u.Email, &token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.ID = types.ID(id)
	if token.Valid {
		u.FCMToken = &token.String
	}
	return &u, nil
}
