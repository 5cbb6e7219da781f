// Package query is the read-side facade over both record families: the
// merged listing, the bucketed dashboard view and the patient-facing
// results view.
package query

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

type Service struct {
	listings repository.ListingRepository
	logger   zerolog.Logger
}

func NewService(listings repository.ListingRepository, logger zerolog.Logger) *Service {
	return &Service{
		listings: listings,
		logger:   logger.With().Str("component", "query").Logger(),
	}
}

// List returns the merged cross-family listing with derived fields filled.
func (s *Service) List(ctx context.Context, filters *model.RecordFilters) ([]*model.RecordListItem, int, error) {
	if filters == nil {
		filters = &model.RecordFilters{}
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return nil, 0, apperrors.Validation("unknown status "+string(filters.Status), nil)
	}
	switch filters.TestType {
	case "", model.TestTypeAll, model.TestTypeOrdered, model.TestTypePrescribed:
	default:
		return nil, 0, apperrors.Validation("unknown test_type "+filters.TestType, nil)
	}
	filters.Pagination.Normalize()

	items, total, err := s.listings.ListRecords(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	for _, it := range items {
		it.Decorate()
	}
	return items, total, nil
}

// Categorize groups the listing into dashboard buckets. Pagination applies
// before bucketing, so the buckets partition one page of results.
func (s *Service) Categorize(ctx context.Context, filters *model.RecordFilters) (*model.CategorizedRecords, int, error) {
	items, total, err := s.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	out := &model.CategorizedRecords{
		Pending:         []*model.RecordListItem{},
		InProgress:      []*model.RecordListItem{},
		ReadyForResults: []*model.RecordListItem{},
		Completed:       []*model.RecordListItem{},
	}
	for _, it := range items {
		switch it.Bucket {
		case model.BucketPending:
			out.Pending = append(out.Pending, it)
		case model.BucketInProgress:
			out.InProgress = append(out.InProgress, it)
		case model.BucketReadyForResults:
			out.ReadyForResults = append(out.ReadyForResults, it)
		default:
			out.Completed = append(out.Completed, it)
		}
	}
	return out, total, nil
}

// PatientResults returns only the patient's confirmed records. Results in
// earlier states stay invisible until staff confirms them.
func (s *Service) PatientResults(ctx context.Context, patientID uuid.UUID) ([]*model.RecordListItem, error) {
	items, err := s.listings.ListConfirmedForPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		it.Decorate()
	}
	return items, nil
}
