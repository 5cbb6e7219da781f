// Package order creates and reads the two record families. Creation
// snapshots catalog prices into the record so later price changes never
// move an existing total.
package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository"
	"github.com/medilab/lab-api/internal/service/catalog"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

type Service struct {
	orders        repository.LabOrderRepository
	prescriptions repository.PrescriptionTestRepository
	catalog       *catalog.Service
	logger        zerolog.Logger
}

func NewService(orders repository.LabOrderRepository, prescriptions repository.PrescriptionTestRepository, cat *catalog.Service, logger zerolog.Logger) *Service {
	return &Service{
		orders:        orders,
		prescriptions: prescriptions,
		catalog:       cat,
		logger:        logger.With().Str("component", "order").Logger(),
	}
}

// CreateLabOrder builds a new self-ordered bundle. Duplicate test ids are
// rejected rather than deduplicated so the client sees its mistake.
func (s *Service) CreateLabOrder(ctx context.Context, req *model.CreateLabOrderRequest) (*model.LabOrder, error) {
	seen := make(map[uuid.UUID]struct{}, len(req.TestIDs))
	for _, id := range req.TestIDs {
		if _, dup := seen[id]; dup {
			return nil, apperrors.Validation("duplicate test id "+id.String(), nil)
		}
		seen[id] = struct{}{}
	}

	tests, err := s.catalog.GetByIDs(ctx, req.TestIDs)
	if err != nil {
		return nil, err
	}

	details := make(model.TestDetailList, 0, len(tests))
	var total int64
	for _, t := range tests {
		if !t.IsActive {
			return nil, apperrors.Validation("lab test "+t.Name+" is no longer offered", nil)
		}
		details = append(details, t.Snapshot())
		total += t.PriceCents
	}

	number, err := s.orders.NextOrderNumber(ctx)
	if err != nil {
		return nil, err
	}

	order := &model.LabOrder{
		OrderNumber:   number,
		PatientID:     req.PatientID,
		PatientName:   req.PatientName,
		PatientEmail:  req.PatientEmail,
		PatientPhone:  req.PatientPhone,
		DoctorID:      req.DoctorID,
		AppointmentID: req.AppointmentID,
		TestDetails:   details,
		TotalCents:    total,
		Status:        model.StatusOrdered,
		TestReports:   model.ReportList{},
		Notes:         req.Notes,
		Version:       1,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_number", order.OrderNumber).
		Str("patient_id", order.PatientID.String()).
		Int("tests", len(details)).
		Int64("total_cents", total).
		Msg("lab order created")
	order.Decorate()
	return order, nil
}

func (s *Service) GetLabOrder(ctx context.Context, id uuid.UUID) (*model.LabOrder, error) {
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	order.Decorate()
	return order, nil
}

func (s *Service) ListLabOrders(ctx context.Context, filters *model.RecordFilters) ([]*model.LabOrder, int, error) {
	if filters == nil {
		filters = &model.RecordFilters{}
	}
	filters.Pagination.Normalize()
	orders, total, err := s.orders.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	for _, o := range orders {
		o.Decorate()
	}
	return orders, total, nil
}

// CreatePrescriptionTest registers one prescribed test. The unique
// (prescription, test) constraint makes a repeat submission a conflict.
func (s *Service) CreatePrescriptionTest(ctx context.Context, req *model.CreatePrescriptionTestRequest) (*model.PrescriptionLabTest, error) {
	t, err := s.catalog.Get(ctx, req.TestID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, apperrors.Validation("lab test "+t.Name+" is no longer offered", nil)
	}

	test := &model.PrescriptionLabTest{
		PrescriptionID: req.PrescriptionID,
		TestID:         t.ID,
		TestName:       t.Name,
		Category:       t.Category,
		PatientID:      req.PatientID,
		PatientName:    req.PatientName,
		PatientEmail:   req.PatientEmail,
		PatientPhone:   req.PatientPhone,
		DoctorID:       req.DoctorID,
		TotalCents:     t.PriceCents,
		Status:         model.StatusOrdered,
		TestReports:    model.ReportList{},
		Notes:          req.Notes,
		Version:        1,
	}
	if err := s.prescriptions.Create(ctx, test); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("prescription_id", test.PrescriptionID.String()).
		Str("test_id", test.TestID.String()).
		Str("patient_id", test.PatientID.String()).
		Msg("prescription test created")
	test.Decorate()
	return test, nil
}

func (s *Service) GetPrescriptionTest(ctx context.Context, id uuid.UUID) (*model.PrescriptionLabTest, error) {
	test, err := s.prescriptions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	test.Decorate()
	return test, nil
}

func (s *Service) ListPrescriptionTests(ctx context.Context, filters *model.RecordFilters) ([]*model.PrescriptionLabTest, int, error) {
	if filters == nil {
		filters = &model.RecordFilters{}
	}
	filters.Pagination.Normalize()
	tests, total, err := s.prescriptions.List(ctx, filters)
	if err != nil {
		return nil, 0, err
	}
	for _, t := range tests {
		t.Decorate()
	}
	return tests, total, nil
}
