package lifecycle

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository"
	"github.com/medilab/lab-api/internal/service/event"
	apperrors "github.com/medilab/lab-api/pkg/errors"
	"github.com/medilab/lab-api/pkg/metrics"
)

// Notifier delivers patient-facing notifications. Delivery is best effort;
// failures are logged and never roll back a transition.
type Notifier interface {
	NotifyResultsReady(ctx context.Context, rec *model.TestRecord) error
}

type Service struct {
	store    repository.RecordStore
	notifier Notifier
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(store repository.RecordStore, notifier Notifier, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		metrics:  m,
		logger:   logger.With().Str("component", "lifecycle").Logger(),
	}
}

// Get loads the lifecycle view of a record.
func (s *Service) Get(ctx context.Context, ref model.RecordRef) (*model.TestRecord, error) {
	return s.store.GetRecord(ctx, ref)
}

// Transition moves a record to the requested status. Guards run against the
// current ledger totals and attached reports; the write carries the record
// version so a concurrent update surfaces as a conflict instead of a lost
// transition.
func (s *Service) Transition(ctx context.Context, ref model.RecordRef, req *model.UpdateStatusRequest) (*model.TestRecord, error) {
	rec, err := s.store.GetRecord(ctx, ref)
	if err != nil {
		return nil, err
	}

	from := rec.Status
	if err := Validate(rec, req.Status); err != nil {
		if s.metrics != nil {
			s.metrics.TransitionsDenied.WithLabelValues(apperrors.Code(err).String()).Inc()
		}
		return nil, err
	}

	rec.Status = req.Status
	if req.Notes != "" {
		rec.Notes = req.Notes
	}
	s.applySideEffects(ctx, rec, from)

	evt, err := event.NewStatusChanged(rec, from, req.Status)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if err := s.store.UpdateRecord(ctx, rec, evt); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TransitionsTotal.WithLabelValues(string(from), string(rec.Status)).Inc()
	}
	s.logger.Info().
		Str("kind", string(ref.Kind)).
		Str("record_id", ref.ID.String()).
		Str("from", string(from)).
		Str("to", string(rec.Status)).
		Msg("record transitioned")

	if rec.Status == model.StatusConfirmed {
		s.notifyConfirmed(ctx, rec)
	}
	return rec, nil
}

func (s *Service) applySideEffects(ctx context.Context, rec *model.TestRecord, from model.Status) {
	switch rec.Status {
	case model.StatusSampleTaken:
		if rec.SampleID == nil {
			id, err := s.store.NextSampleID(ctx)
			if err != nil {
				// The sample identifier is informational; the transition
				// proceeds without it and the gap is logged.
				s.logger.Error().Err(err).Msg("failed to allocate sample id")
				return
			}
			rec.SampleID = &id
		}
	case model.StatusConfirmed:
		now := time.Now()
		rec.VerifiedAt = &now
	case model.StatusReported:
		if from == model.StatusConfirmed {
			rec.VerifiedAt = nil
		}
	}
}

func (s *Service) notifyConfirmed(ctx context.Context, rec *model.TestRecord) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyResultsReady(ctx, rec); err != nil {
		s.logger.Warn().Err(err).
			Str("record_id", rec.Ref.ID.String()).
			Msg("results-ready notification failed")
	}
}
