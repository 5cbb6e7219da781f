package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/medilab/lab-api/internal/repository"
)

type labOrderRepository struct {
	BaseRepository
}

type prescriptionTestRepository struct {
	BaseRepository
}

type recordStore struct {
	BaseRepository
}

type paymentRepository struct {
	BaseRepository
}

type listingRepository struct {
	BaseRepository
}

type catalogRepository struct {
	BaseRepository
}

type staffRepository struct {
	BaseRepository
}

type outboxRepository struct {
	BaseRepository
}

func NewLabOrderRepository(db *sqlx.DB) repository.LabOrderRepository {
	return &labOrderRepository{NewBaseRepository(db)}
}

func NewPrescriptionTestRepository(db *sqlx.DB) repository.PrescriptionTestRepository {
	return &prescriptionTestRepository{NewBaseRepository(db)}
}

func NewRecordStore(db *sqlx.DB) repository.RecordStore {
	return &recordStore{NewBaseRepository(db)}
}

func NewPaymentRepository(db *sqlx.DB) repository.PaymentRepository {
	return &paymentRepository{NewBaseRepository(db)}
}

func NewListingRepository(db *sqlx.DB) repository.ListingRepository {
	return &listingRepository{NewBaseRepository(db)}
}

func NewCatalogRepository(db *sqlx.DB) repository.CatalogRepository {
	return &catalogRepository{NewBaseRepository(db)}
}

func NewStaffRepository(db *sqlx.DB) repository.StaffRepository {
	return &staffRepository{NewBaseRepository(db)}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{NewBaseRepository(db)}
}
