// Package catalog is the read path over the lab test catalog. Lookups are
// cached; an order snapshots name and price at creation time, so a stale
// cache entry only delays new prices, it never rewrites existing orders.
package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

const listKey = "lab_tests:active"

type Service struct {
	repo   repository.CatalogRepository
	cache  *gocache.Cache
	logger zerolog.Logger
}

func NewService(repo repository.CatalogRepository, ttl, cleanup time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		cache:  gocache.New(ttl, cleanup),
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.LabTest, error) {
	if v, ok := s.cache.Get(id.String()); ok {
		return v.(*model.LabTest), nil
	}
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(id.String(), t)
	return t, nil
}

// GetByIDs resolves a batch of catalog ids. Every id must resolve; a missing
// or inactive test fails the whole batch so an order never silently drops a
// requested test.
func (s *Service) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.LabTest, error) {
	tests, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*model.LabTest, len(tests))
	for _, t := range tests {
		byID[t.ID] = t
		s.cache.SetDefault(t.ID.String(), t)
	}
	out := make([]*model.LabTest, 0, len(ids))
	for _, id := range ids {
		t, ok := byID[id]
		if !ok {
			return nil, apperrors.NotFound("lab test "+id.String(), nil)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *Service) ListActive(ctx context.Context) ([]*model.LabTest, error) {
	if v, ok := s.cache.Get(listKey); ok {
		return v.([]*model.LabTest), nil
	}
	tests, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(listKey, tests)
	return tests, nil
}
