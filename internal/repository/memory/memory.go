// Package memory provides in-memory repository implementations backing unit
// tests and local development without a database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/model"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

// Store implements every repository interface over process-local maps.
type Store struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*model.LabOrder
	tests    map[uuid.UUID]*model.PrescriptionLabTest
	payments []*model.Payment
	catalog  map[uuid.UUID]*model.LabTest
	staff    map[string]*model.Staff
	events   []*model.OutboxEvent

	sampleSeq int64
	orderSeq  int64
}

func NewStore() *Store {
	return &Store{
		orders:  make(map[uuid.UUID]*model.LabOrder),
		tests:   make(map[uuid.UUID]*model.PrescriptionLabTest),
		catalog: make(map[uuid.UUID]*model.LabTest),
		staff:   make(map[string]*model.Staff),
	}
}

// Events returns a snapshot of all outbox events written so far.
func (s *Store) Events() []*model.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.OutboxEvent, len(s.events))
	copy(out, s.events)
	return out
}

// --- RecordStore ---

func (s *Store) GetRecord(_ context.Context, ref model.RecordRef) (*model.TestRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch ref.Kind {
	case model.KindLabOrder:
		if o, ok := s.orders[ref.ID]; ok {
			return o.Record(), nil
		}
	case model.KindPrescriptionTest:
		if t, ok := s.tests[ref.ID]; ok {
			return t.Record(), nil
		}
	default:
		return nil, apperrors.Validation("invalid record reference", fmt.Errorf("unknown kind %q", ref.Kind))
	}
	return nil, apperrors.NotFound("record", nil)
}

func (s *Store) UpdateRecord(_ context.Context, rec *model.TestRecord, events ...*model.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	switch rec.Ref.Kind {
	case model.KindLabOrder:
		o, ok := s.orders[rec.Ref.ID]
		if !ok {
			return apperrors.NotFound("record", nil)
		}
		if o.Version != rec.Version {
			return apperrors.Conflict("record")
		}
		o.Status = rec.Status
		o.PaidCents = rec.PaidCents
		o.SampleID = rec.SampleID
		o.TestReports = append(model.ReportList(nil), rec.Reports...)
		o.Notes = rec.Notes
		o.VerifiedAt = rec.VerifiedAt
		o.UpdatedAt = now
		o.Version++
		rec.Version = o.Version
	case model.KindPrescriptionTest:
		t, ok := s.tests[rec.Ref.ID]
		if !ok {
			return apperrors.NotFound("record", nil)
		}
		if t.Version != rec.Version {
			return apperrors.Conflict("record")
		}
		t.Status = rec.Status
		t.PaidCents = rec.PaidCents
		t.SampleID = rec.SampleID
		t.TestReports = append(model.ReportList(nil), rec.Reports...)
		t.Notes = rec.Notes
		t.VerifiedAt = rec.VerifiedAt
		t.UpdatedAt = now
		t.Version++
		rec.Version = t.Version
	default:
		return apperrors.Validation("invalid record reference", fmt.Errorf("unknown kind %q", rec.Ref.Kind))
	}

	s.appendEvents(events)
	return nil
}

func (s *Store) NextSampleID(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sampleSeq++
	return fmt.Sprintf("SMP-%06d", s.sampleSeq), nil
}

func (s *Store) appendEvents(events []*model.OutboxEvent) {
	now := time.Now()
	for _, e := range events {
		e.ID = uuid.New()
		e.Status = model.OutboxStatusPending
		e.CreatedAt = now
		e.UpdatedAt = now
		s.events = append(s.events, e)
	}
}

// --- PaymentRepository ---

func (s *Store) Append(_ context.Context, p *model.Payment, expectedVersion int, events ...*model.OutboxEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	if p.PaidAt.IsZero() {
		p.PaidAt = p.CreatedAt
	}

	var sum int64
	for _, entry := range s.payments {
		if entry.RecordKind == p.RecordKind && entry.RecordID == p.RecordID &&
			entry.State == model.PaymentStateCompleted {
			sum += entry.AmountCents
		}
	}
	if p.State == model.PaymentStateCompleted {
		sum += p.AmountCents
	}

	switch p.RecordKind {
	case model.KindLabOrder:
		o, ok := s.orders[p.RecordID]
		if !ok {
			return 0, apperrors.NotFound("record", nil)
		}
		if o.Version != expectedVersion {
			return 0, apperrors.Conflict("record")
		}
		o.PaidCents = sum
		o.UpdatedAt = time.Now()
		o.Version++
	case model.KindPrescriptionTest:
		t, ok := s.tests[p.RecordID]
		if !ok {
			return 0, apperrors.NotFound("record", nil)
		}
		if t.Version != expectedVersion {
			return 0, apperrors.Conflict("record")
		}
		t.PaidCents = sum
		t.UpdatedAt = time.Now()
		t.Version++
	default:
		return 0, apperrors.Validation("invalid record reference", fmt.Errorf("unknown kind %q", p.RecordKind))
	}

	s.payments = append(s.payments, p)
	s.appendEvents(events)
	return sum, nil
}

func (s *Store) ListForRecord(_ context.Context, ref model.RecordRef) ([]*model.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.Payment
	for _, p := range s.payments {
		if p.RecordKind == ref.Kind && p.RecordID == ref.ID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(out[j].PaidAt) })
	return out, nil
}

func (s *Store) SumForRecord(_ context.Context, ref model.RecordRef) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var sum int64
	for _, p := range s.payments {
		if p.RecordKind == ref.Kind && p.RecordID == ref.ID && p.State == model.PaymentStateCompleted {
			sum += p.AmountCents
		}
	}
	return sum, nil
}

// --- LabOrderRepository ---

func (s *Store) Create(_ context.Context, order *model.LabOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	order.Version = 1
	s.orders[order.ID] = order
	return nil
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*model.LabOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, apperrors.NotFound("lab order", nil)
	}
	cp := *o
	return &cp, nil
}

func (s *Store) List(_ context.Context, filters *model.RecordFilters) ([]*model.LabOrder, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*model.LabOrder
	for _, o := range s.orders {
		if matches(filters, o.Status, o.PatientName, o.PatientEmail, o.PatientPhone,
			o.PatientID, o.OrderNumber, o.CreatedAt) {
			cp := *o
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	return paginate(all, filters.Pagination), total, nil
}

func (s *Store) NextOrderNumber(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderSeq++
	return fmt.Sprintf("LAB-%06d", s.orderSeq), nil
}

// --- PrescriptionTestRepository ---

func (s *Store) CreatePrescriptionTest(_ context.Context, test *model.PrescriptionLabTest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	test.ID = uuid.New()
	test.CreatedAt = time.Now()
	test.UpdatedAt = test.CreatedAt
	test.Version = 1
	s.tests[test.ID] = test
	return nil
}

func (s *Store) GetPrescriptionTest(_ context.Context, id uuid.UUID) (*model.PrescriptionLabTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tests[id]
	if !ok {
		return nil, apperrors.NotFound("prescription test", nil)
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListPrescriptionTests(_ context.Context, filters *model.RecordFilters) ([]*model.PrescriptionLabTest, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*model.PrescriptionLabTest
	for _, t := range s.tests {
		if matches(filters, t.Status, t.PatientName, t.PatientEmail, t.PatientPhone,
			t.PatientID, t.TestName, t.CreatedAt) {
			cp := *t
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	return paginate(all, filters.Pagination), total, nil
}

// --- ListingRepository ---

func (s *Store) ListRecords(_ context.Context, filters *model.RecordFilters) ([]*model.RecordListItem, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*model.RecordListItem
	if filters.TestType != model.TestTypePrescribed {
		for _, o := range s.orders {
			if matches(filters, o.Status, o.PatientName, o.PatientEmail, o.PatientPhone,
				o.PatientID, o.OrderNumber, o.CreatedAt) {
				items = append(items, orderItem(o))
			}
		}
	}
	if filters.TestType != model.TestTypeOrdered {
		for _, t := range s.tests {
			if matches(filters, t.Status, t.PatientName, t.PatientEmail, t.PatientPhone,
				t.PatientID, t.TestName, t.CreatedAt) {
				items = append(items, testItem(t))
			}
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	total := len(items)
	return paginate(items, filters.Pagination), total, nil
}

func (s *Store) ListConfirmedForPatient(_ context.Context, patientID uuid.UUID) ([]*model.RecordListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []*model.RecordListItem
	for _, o := range s.orders {
		if o.PatientID == patientID && o.Status == model.StatusConfirmed {
			items = append(items, orderItem(o))
		}
	}
	for _, t := range s.tests {
		if t.PatientID == patientID && t.Status == model.StatusConfirmed {
			items = append(items, testItem(t))
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

// --- CatalogRepository ---

func (s *Store) AddLabTest(test *model.LabTest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if test.ID == uuid.Nil {
		test.ID = uuid.New()
	}
	s.catalog[test.ID] = test
}

func (s *Store) GetLabTest(_ context.Context, id uuid.UUID) (*model.LabTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.catalog[id]
	if !ok {
		return nil, apperrors.NotFound("lab test", nil)
	}
	cp := *t
	return &cp, nil
}

func (s *Store) GetLabTestsByIDs(_ context.Context, ids []uuid.UUID) ([]*model.LabTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.LabTest
	for _, id := range ids {
		if t, ok := s.catalog[id]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ListActiveLabTests(_ context.Context) ([]*model.LabTest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*model.LabTest
	for _, t := range s.catalog {
		if t.IsActive {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// --- StaffRepository ---

func (s *Store) GetStaffByEmail(_ context.Context, email string) (*model.Staff, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.staff[email]
	if !ok {
		return nil, apperrors.NotFound("staff", nil)
	}
	cp := *st
	return &cp, nil
}

func (s *Store) CreateStaff(_ context.Context, staff *model.Staff) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staff.ID = uuid.New()
	staff.CreatedAt = time.Now()
	staff.UpdatedAt = staff.CreatedAt
	s.staff[staff.Email] = staff
	return nil
}

// --- helpers ---

func matches(f *model.RecordFilters, status model.Status, name, email, phone string,
	patientID uuid.UUID, label string, createdAt time.Time) bool {
	if f == nil {
		return true
	}
	if f.Status != "" && status != f.Status {
		return false
	}
	if !f.DateFrom.IsZero() && createdAt.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && !createdAt.Before(f.DateTo.Add(24*time.Hour)) {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(name), q) &&
			!strings.Contains(strings.ToLower(email), q) &&
			!strings.Contains(strings.ToLower(phone), q) &&
			!strings.Contains(strings.ToLower(label), q) &&
			patientID.String() != f.Search {
			return false
		}
	}
	return true
}

func paginate[T any](items []T, p model.Pagination) []T {
	if p.PageSize <= 0 {
		return items
	}
	start := p.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + p.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func orderItem(o *model.LabOrder) *model.RecordListItem {
	item := &model.RecordListItem{
		ID:          o.ID,
		Kind:        model.KindLabOrder,
		Label:       o.OrderNumber,
		PatientID:   o.PatientID,
		PatientName: o.PatientName,
		Status:      o.Status,
		TotalCents:  o.TotalCents,
		PaidCents:   o.PaidCents,
		CreatedAt:   o.CreatedAt,
	}
	item.Decorate()
	return item
}

func testItem(t *model.PrescriptionLabTest) *model.RecordListItem {
	item := &model.RecordListItem{
		ID:          t.ID,
		Kind:        model.KindPrescriptionTest,
		Label:       t.TestName,
		PatientID:   t.PatientID,
		PatientName: t.PatientName,
		Status:      t.Status,
		TotalCents:  t.TotalCents,
		PaidCents:   t.PaidCents,
		CreatedAt:   t.CreatedAt,
	}
	item.Decorate()
	return item
}
