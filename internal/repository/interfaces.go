package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/model"
)

// RecordStore is the lifecycle view over both record families. UpdateRecord
// performs a compare-and-swap on the record version and writes any outbox
// events in the same transaction; a version mismatch yields a conflict error
// and leaves the record unchanged.
type RecordStore interface {
	GetRecord(ctx context.Context, ref model.RecordRef) (*model.TestRecord, error)
	UpdateRecord(ctx context.Context, rec *model.TestRecord, events ...*model.OutboxEvent) error
	NextSampleID(ctx context.Context) (string, error)
}

// PaymentRepository is the append-only ledger. Append inserts the payment,
// recomputes the owning record's paid total from the ledger sum and applies
// it with a version compare-and-swap, all in one transaction.
type PaymentRepository interface {
	Append(ctx context.Context, p *model.Payment, expectedVersion int, events ...*model.OutboxEvent) (paidCents int64, err error)
	ListForRecord(ctx context.Context, ref model.RecordRef) ([]*model.Payment, error)
	SumForRecord(ctx context.Context, ref model.RecordRef) (int64, error)
}

type LabOrderRepository interface {
	Create(ctx context.Context, order *model.LabOrder) error
	Get(ctx context.Context, id uuid.UUID) (*model.LabOrder, error)
	List(ctx context.Context, filters *model.RecordFilters) ([]*model.LabOrder, int, error)
	NextOrderNumber(ctx context.Context) (string, error)
}

type PrescriptionTestRepository interface {
	Create(ctx context.Context, test *model.PrescriptionLabTest) error
	Get(ctx context.Context, id uuid.UUID) (*model.PrescriptionLabTest, error)
	List(ctx context.Context, filters *model.RecordFilters) ([]*model.PrescriptionLabTest, int, error)
}

// ListingRepository backs the merged cross-family views of the query facade.
type ListingRepository interface {
	ListRecords(ctx context.Context, filters *model.RecordFilters) ([]*model.RecordListItem, int, error)
	ListConfirmedForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RecordListItem, error)
}

type CatalogRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*model.LabTest, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.LabTest, error)
	ListActive(ctx context.Context) ([]*model.LabTest, error)
}

type StaffRepository interface {
	GetByEmail(ctx context.Context, email string) (*model.Staff, error)
	Create(ctx context.Context, staff *model.Staff) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error
	DeleteProcessedBefore(ctx context.Context, olderThanDays int) (int64, error)
}
