// README: Account service; user/role mutations evict the composite view.
package account

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"atelier/internal/cache"
	"atelier/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Storage interface {
	Get(ctx context.Context, id types.ID) (*User, error)
	UsersWithRole(ctx context.Context, roleType string) ([]types.ID, error)
	GroupedByStageRole(ctx context.Context) ([]StageRoleGroup, error)
	UpdateUser(ctx context.Context, u *User) error
	SetUserRoles(ctx context.Context, userID types.ID, roles []string) error
}

type Service struct {
	store Storage
	coord *cache.Coordinator
	log   zerolog.Logger
}

func NewService(store Storage, coord *cache.Coordinator, log zerolog.Logger) *Service {
	return &Service{store: store, coord: coord, log: log.With().Str("module", "account").Logger()}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*User, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) GroupedByStageRole(ctx context.Context) ([]StageRoleGroup, error) {
	return s.store.GroupedByStageRole(ctx)
}

func (s *Service) UpdateUser(ctx context.Context, u User) error {
	if u.ID == "" {
		return ErrBadRequest
	}
	if err := s.store.UpdateUser(ctx, &u); err != nil {
		return err
	}
	s.coord.Apply(ctx, cache.Mutation{Entity: cache.EntityUser, Action: cache.ActionUpdate})
	return nil
}

func (s *Service) SetUserRoles(ctx context.Context, userID types.ID, roles []string) error {
	if userID == "" {
		return ErrBadRequest
	}
	if err := s.store.SetUserRoles(ctx, userID, roles); err != nil {
		return err
	}
	s.coord.Apply(ctx, cache.Mutation{Entity: cache.EntityRole, Action: cache.ActionUpdate})
	return nil
}
