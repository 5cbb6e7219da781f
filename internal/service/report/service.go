// Package report manages the result files attached to a record. Attaching
// the first files to a sample_taken record also moves it to reported, in the
// same write, so a record is never reported without at least one file.
package report

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository"
	"github.com/medilab/lab-api/internal/service/event"
	"github.com/medilab/lab-api/internal/service/lifecycle"
	apperrors "github.com/medilab/lab-api/pkg/errors"
	"github.com/medilab/lab-api/pkg/metrics"
)

var timeNow = time.Now

// Upload is one incoming result file.
type Upload struct {
	OriginalName string
	Content      io.Reader
}

type Service struct {
	store   repository.RecordStore
	files   FileStore
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewService(store repository.RecordStore, files FileStore, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		store:   store,
		files:   files,
		metrics: m,
		logger:  logger.With().Str("component", "report").Logger(),
	}
}

// Attach stores the uploaded files and appends them to the record. A
// sample_taken record transitions to reported in the same write; a reported
// record just gains the files. Saved files are cleaned up if the record
// write fails.
func (s *Service) Attach(ctx context.Context, ref model.RecordRef, uploads []Upload) (*model.TestRecord, error) {
	if len(uploads) == 0 {
		return nil, apperrors.Validation("at least one file is required", nil)
	}

	rec, err := s.store.GetRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	if err := s.checkAttachable(rec); err != nil {
		return nil, err
	}

	saved, err := s.saveAll(uploads)
	if err != nil {
		return nil, err
	}

	from := rec.Status
	rec.Reports = append(rec.Reports, saved...)
	transitioned := false
	if rec.Status == model.StatusSampleTaken {
		if err := lifecycle.Validate(rec, model.StatusReported); err != nil {
			s.discard(saved)
			return nil, err
		}
		rec.Status = model.StatusReported
		transitioned = true
	}

	events := make([]*model.OutboxEvent, 0, 2)
	attachedEvt, err := event.NewReportsAttached(rec, len(saved))
	if err != nil {
		s.discard(saved)
		return nil, apperrors.Internal(err)
	}
	events = append(events, attachedEvt)
	if transitioned {
		statusEvt, err := event.NewStatusChanged(rec, from, rec.Status)
		if err != nil {
			s.discard(saved)
			return nil, apperrors.Internal(err)
		}
		events = append(events, statusEvt)
	}

	if err := s.store.UpdateRecord(ctx, rec, events...); err != nil {
		s.discard(saved)
		return nil, err
	}

	if s.metrics != nil {
		for range saved {
			s.metrics.ReportsAttached.Inc()
		}
		if transitioned {
			s.metrics.TransitionsTotal.WithLabelValues(string(from), string(rec.Status)).Inc()
		}
	}
	s.logger.Info().
		Str("kind", string(ref.Kind)).
		Str("record_id", ref.ID.String()).
		Int("files", len(saved)).
		Bool("transitioned", transitioned).
		Msg("reports attached")
	return rec, nil
}

func (s *Service) checkAttachable(rec *model.TestRecord) error {
	switch rec.Status {
	case model.StatusSampleTaken:
		if rec.PaidCents < rec.TotalCents {
			return apperrors.NewPaymentInsufficient(rec.TotalCents, rec.PaidCents)
		}
		return nil
	case model.StatusReported:
		return nil
	case model.StatusConfirmed:
		return apperrors.Precondition("confirmed records cannot receive new files")
	case model.StatusCancelled:
		return apperrors.Precondition("cancelled records cannot be modified")
	default:
		return apperrors.Precondition("result files can only be attached after the sample is taken")
	}
}

func (s *Service) saveAll(uploads []Upload) (model.ReportList, error) {
	saved := make(model.ReportList, 0, len(uploads))
	for _, u := range uploads {
		name := storedName(u.OriginalName)
		path, err := s.files.Save(name, u.Content)
		if err != nil {
			s.discard(saved)
			return nil, apperrors.Internal(err)
		}
		saved = append(saved, model.TestReport{
			Filename:     name,
			OriginalName: u.OriginalName,
			StoragePath:  path,
			UploadedAt:   timeNow(),
		})
	}
	return saved, nil
}

func (s *Service) discard(reports model.ReportList) {
	for _, r := range reports {
		if err := s.files.Delete(r.StoragePath); err != nil {
			s.logger.Warn().Err(err).Str("path", r.StoragePath).Msg("failed to remove orphaned report file")
		}
	}
}

// Remove deletes the file at the given position in the record's report list.
// Confirmed records are immutable; reverting to reported first is required.
func (s *Service) Remove(ctx context.Context, ref model.RecordRef, index int) (*model.TestRecord, error) {
	rec, err := s.store.GetRecord(ctx, ref)
	if err != nil {
		return nil, err
	}
	if rec.Status == model.StatusConfirmed {
		return nil, apperrors.Precondition("confirmed records cannot have files removed")
	}
	if index < 0 || index >= len(rec.Reports) {
		return nil, apperrors.NotFound("report", nil)
	}

	removed := rec.Reports[index]
	rec.Reports = append(rec.Reports[:index], rec.Reports[index+1:]...)
	if err := s.store.UpdateRecord(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.files.Delete(removed.StoragePath); err != nil {
		s.logger.Warn().Err(err).Str("path", removed.StoragePath).Msg("failed to delete report file")
	}
	if s.metrics != nil {
		s.metrics.ReportsRemoved.Inc()
	}
	return rec, nil
}

// Open streams a stored result file by its position in the record's list.
func (s *Service) Open(ctx context.Context, ref model.RecordRef, index int) (*model.TestReport, io.ReadCloser, error) {
	rec, err := s.store.GetRecord(ctx, ref)
	if err != nil {
		return nil, nil, err
	}
	if index < 0 || index >= len(rec.Reports) {
		return nil, nil, apperrors.NotFound("report", nil)
	}
	r := rec.Reports[index]
	rc, err := s.files.Open(r.StoragePath)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	return &r, rc, nil
}
