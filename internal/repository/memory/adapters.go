package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository"
)

// The Store itself satisfies RecordStore, PaymentRepository,
// LabOrderRepository and ListingRepository. The adapters below expose the
// remaining interfaces whose method names collide on Store.

type prescriptionTests struct{ s *Store }

func NewPrescriptionTests(s *Store) repository.PrescriptionTestRepository {
	return prescriptionTests{s: s}
}

func (p prescriptionTests) Create(ctx context.Context, test *model.PrescriptionLabTest) error {
	return p.s.CreatePrescriptionTest(ctx, test)
}

func (p prescriptionTests) Get(ctx context.Context, id uuid.UUID) (*model.PrescriptionLabTest, error) {
	return p.s.GetPrescriptionTest(ctx, id)
}

func (p prescriptionTests) List(ctx context.Context, filters *model.RecordFilters) ([]*model.PrescriptionLabTest, int, error) {
	return p.s.ListPrescriptionTests(ctx, filters)
}

type catalog struct{ s *Store }

func NewCatalog(s *Store) repository.CatalogRepository {
	return catalog{s: s}
}

func (c catalog) Get(ctx context.Context, id uuid.UUID) (*model.LabTest, error) {
	return c.s.GetLabTest(ctx, id)
}

func (c catalog) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.LabTest, error) {
	return c.s.GetLabTestsByIDs(ctx, ids)
}

func (c catalog) ListActive(ctx context.Context) ([]*model.LabTest, error) {
	return c.s.ListActiveLabTests(ctx)
}

type staffs struct{ s *Store }

func NewStaff(s *Store) repository.StaffRepository {
	return staffs{s: s}
}

func (st staffs) GetByEmail(ctx context.Context, email string) (*model.Staff, error) {
	return st.s.GetStaffByEmail(ctx, email)
}

func (st staffs) Create(ctx context.Context, staff *model.Staff) error {
	return st.s.CreateStaff(ctx, staff)
}
