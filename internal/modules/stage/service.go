// README: Stage admin service; every mutation drives cache invalidation.
package stage

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"atelier/internal/cache"
	"atelier/internal/types"
)

var ErrBadRequest = errors.New("bad request")

// Storage is what the service needs from the persistence layer.
type Storage interface {
	Graph(ctx context.Context) (*Graph, error)
	Get(ctx context.Context, id types.ID) (Stage, error)
	Create(ctx context.Context, st *Stage) error
	Update(ctx context.Context, st *Stage) error
	Delete(ctx context.Context, id types.ID) error
	AttachRole(ctx context.Context, r Role) error
	DetachRole(ctx context.Context, stageID types.ID, roleType string) error
}

type Service struct {
	store Storage
	coord *cache.Coordinator
	log   zerolog.Logger
}

func NewService(store Storage, coord *cache.Coordinator, log zerolog.Logger) *Service {
	return &Service{store: store, coord: coord, log: log.With().Str("module", "stage").Logger()}
}

func (s *Service) Graph(ctx context.Context) (*Graph, error) {
	return s.store.Graph(ctx)
}

func (s *Service) Get(ctx context.Context, id types.ID) (Stage, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, st Stage) (Stage, error) {
	if st.Name == "" {
		return Stage{}, ErrBadRequest
	}
	if st.ID == "" {
		st.ID = types.NewID()
	}
	if err := s.store.Create(ctx, &st); err != nil {
		return Stage{}, err
	}
	s.coord.Apply(ctx, cache.Mutation{Entity: cache.EntityStage, Action: cache.ActionCreate})
	return st, nil
}

// Update persists the stage and evicts the name-lookup entries for both the
// old and the new slug: after a rename neither key may serve stale data.
func (s *Service) Update(ctx context.Context, st Stage) error {
	if st.ID == "" || st.Name == "" {
		return ErrBadRequest
	}
	old, err := s.store.Get(ctx, st.ID)
	if err != nil {
		return err
	}
	if err := s.store.Update(ctx, &st); err != nil {
		return err
	}
	s.coord.Apply(ctx, cache.Mutation{
		Entity: cache.EntityStage,
		Action: cache.ActionUpdate,
		ForgetKeys: []string{
			cache.StageByNameKey(old.Name),
			cache.StageByNameKey(st.Name),
		},
	})
	return nil
}

func (s *Service) Delete(ctx context.Context, id types.ID) error {
	st, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.coord.Apply(ctx, cache.Mutation{
		Entity:     cache.EntityStage,
		Action:     cache.ActionDelete,
		ForgetKeys: []string{cache.StageByNameKey(st.Name)},
	})
	return nil
}

func (s *Service) AttachRole(ctx context.Context, r Role) error {
	if r.StageID == "" || r.RoleType == "" {
		return ErrBadRequest
	}
	if err := s.store.AttachRole(ctx, r); err != nil {
		return err
	}
	s.coord.Apply(ctx, cache.Mutation{Entity: cache.EntityStageRole, Action: cache.ActionUpdate})
	return nil
}

func (s *Service) DetachRole(ctx context.Context, stageID types.ID, roleType string) error {
	if err := s.store.DetachRole(ctx, stageID, roleType); err != nil {
		return err
	}
	s.coord.Apply(ctx, cache.Mutation{Entity: cache.EntityStageRole, Action: cache.ActionDelete})
	return nil
}
