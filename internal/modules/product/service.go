// README: Product admin service.
package product

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"atelier/internal/cache"
	"atelier/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Storage interface {
	Get(ctx context.Context, id types.ID) (*Product, error)
	Create(ctx context.Context, p *Product) error
	SetStages(ctx context.Context, id types.ID, stageIDs []types.ID) error
}

type Service struct {
	store Storage
	coord *cache.Coordinator
	log   zerolog.Logger
}

func NewService(store Storage, coord *cache.Coordinator, log zerolog.Logger) *Service {
	return &Service{store: store, coord: coord, log: log.With().Str("module", "product").Logger()}
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Product, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, p Product) (*Product, error) {
	if p.Name == "" {
		return nil, ErrBadRequest
	}
	if p.ID == "" {
		p.ID = types.NewID()
	}
	if err := s.store.Create(ctx, &p); err != nil {
		return nil, err
	}
	if len(p.StageIDs) > 0 {
		if err := s.store.SetStages(ctx, p.ID, p.StageIDs); err != nil {
			return nil, err
		}
	}
	s.coord.Apply(ctx, cache.Mutation{Entity: cache.EntityProduct, Action: cache.ActionCreate})
	return &p, nil
}

// SetStages replaces the supported-stage set; the targeted product entry is
// evicted alongside the tag purge.
func (s *Service) SetStages(ctx context.Context, id types.ID, stageIDs []types.ID) error {
	if err := s.store.SetStages(ctx, id, stageIDs); err != nil {
		return err
	}
	s.coord.Apply(ctx, cache.Mutation{
		Entity:     cache.EntityProduct,
		Action:     cache.ActionUpdate,
		ForgetKeys: []string{cache.ProductKey(string(id))},
	})
	return nil
}
