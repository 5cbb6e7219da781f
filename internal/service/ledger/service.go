// Package ledger manages the append-only payment ledger. Entries are only
// ever added; a record's paid total is always the sum of its completed
// entries, recomputed inside the same transaction as the append.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository"
	"github.com/medilab/lab-api/internal/service/event"
	apperrors "github.com/medilab/lab-api/pkg/errors"
	"github.com/medilab/lab-api/pkg/metrics"
)

type Service struct {
	store    repository.RecordStore
	payments repository.PaymentRepository
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

func NewService(store repository.RecordStore, payments repository.PaymentRepository, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		payments: payments,
		metrics:  m,
		logger:   logger.With().Str("component", "ledger").Logger(),
	}
}

// RecordPayment appends a ledger entry for the record and returns the record
// with its refreshed paid total. A payment may never exceed the outstanding
// due, so the ledger sum can never pass the record total.
func (s *Service) RecordPayment(ctx context.Context, ref model.RecordRef, req *model.RecordPaymentRequest, processedBy *uuid.UUID) (*model.TestRecord, *model.Payment, error) {
	rec, err := s.store.GetRecord(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	if err := s.validate(rec, req); err != nil {
		if s.metrics != nil {
			s.metrics.PaymentsRejected.Inc()
		}
		return nil, nil, err
	}

	p := &model.Payment{
		ID:          uuid.New(),
		RecordKind:  ref.Kind,
		RecordID:    ref.ID,
		AmountCents: req.AmountCents,
		Method:      req.Method,
		State:       model.PaymentStateCompleted,
		PaidAt:      time.Now(),
		ProcessedBy: processedBy,
		Notes:       req.Notes,
	}
	if req.TransactionID != "" {
		p.TransactionID = &req.TransactionID
	}

	evt, err := event.NewPaymentRecorded(rec, p.ID, p.AmountCents, p.Method, rec.PaidCents+p.AmountCents)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	paid, err := s.payments.Append(ctx, p, rec.Version, evt)
	if err != nil {
		return nil, nil, err
	}
	rec.PaidCents = paid
	rec.Version++

	if s.metrics != nil {
		s.metrics.PaymentsRecorded.WithLabelValues(string(p.Method)).Inc()
		s.metrics.PaymentAmount.Observe(float64(p.AmountCents))
	}
	s.logger.Info().
		Str("kind", string(ref.Kind)).
		Str("record_id", ref.ID.String()).
		Int64("amount_cents", p.AmountCents).
		Str("method", string(p.Method)).
		Int64("paid_cents", paid).
		Msg("payment recorded")

	return rec, p, nil
}

func (s *Service) validate(rec *model.TestRecord, req *model.RecordPaymentRequest) error {
	if req.AmountCents <= 0 {
		return apperrors.Validation("payment amount must be positive", nil)
	}
	if !req.Method.Valid() {
		return apperrors.Validation("unknown payment method "+string(req.Method), nil)
	}
	if req.Method.RequiresTransactionID() && req.TransactionID == "" {
		return apperrors.Validation("transaction id is required for "+string(req.Method)+" payments", nil)
	}
	if rec.Status == model.StatusCancelled {
		return apperrors.Precondition("cannot record a payment on a cancelled record")
	}
	if due := rec.DueCents(); req.AmountCents > due {
		return apperrors.Validation("payment exceeds outstanding due", nil)
	}
	return nil
}

// ListPayments returns the full ledger for a record, newest first.
func (s *Service) ListPayments(ctx context.Context, ref model.RecordRef) ([]*model.Payment, error) {
	if _, err := s.store.GetRecord(ctx, ref); err != nil {
		return nil, err
	}
	return s.payments.ListForRecord(ctx, ref)
}
