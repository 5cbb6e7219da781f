package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TestDetail is a denormalized snapshot of a catalog test at order time.
// The snapshot never changes even if the catalog price changes later.
type TestDetail struct {
	TestID     uuid.UUID `json:"test_id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"price_cents"`
	Category   string    `json:"category"`
}

// TestDetailList stores snapshots as a JSONB column.
type TestDetailList []TestDetail

func (l TestDetailList) Value() (driver.Value, error) {
	if l == nil {
		l = TestDetailList{}
	}
	return json.Marshal(l)
}

func (l *TestDetailList) Scan(src interface{}) error {
	if src == nil {
		*l = TestDetailList{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into TestDetailList", src)
	}
	return json.Unmarshal(b, l)
}

// LabOrder is a self-ordered bundle of catalog tests for one patient.
type LabOrder struct {
	Base
	OrderNumber   string         `db:"order_number" json:"order_number"`
	PatientID     uuid.UUID      `db:"patient_id" json:"patient_id"`
	PatientName   string         `db:"patient_name" json:"patient_name"`
	PatientEmail  string         `db:"patient_email" json:"patient_email,omitempty"`
	PatientPhone  string         `db:"patient_phone" json:"patient_phone,omitempty"`
	DoctorID      *uuid.UUID     `db:"doctor_id" json:"doctor_id,omitempty"`
	AppointmentID *uuid.UUID     `db:"appointment_id" json:"appointment_id,omitempty"`
	TestDetails   TestDetailList `db:"test_details" json:"test_details"`
	TotalCents    int64          `db:"total_cents" json:"total_cents"`
	PaidCents     int64          `db:"paid_cents" json:"paid_cents"`
	Status        Status         `db:"status" json:"status"`
	SampleID      *string        `db:"sample_id" json:"sample_id,omitempty"`
	TestReports   ReportList     `db:"test_reports" json:"test_reports"`
	Notes         string         `db:"notes" json:"notes,omitempty"`
	VerifiedAt    *time.Time     `db:"verified_at" json:"verified_at,omitempty"`
	Version       int            `db:"version" json:"version"`

	// Derived, never persisted.
	DueCents      int64         `db:"-" json:"due_cents"`
	PaymentStatus PaymentStatus `db:"-" json:"payment_status"`
}

// Decorate fills the derived fields before the order is returned to a caller.
func (o *LabOrder) Decorate() {
	rec := TestRecord{TotalCents: o.TotalCents, PaidCents: o.PaidCents}
	o.DueCents = rec.DueCents()
	o.PaymentStatus = rec.PaymentState()
}

// Record projects the order onto the shared lifecycle view.
func (o *LabOrder) Record() *TestRecord {
	return &TestRecord{
		Ref:          RecordRef{Kind: KindLabOrder, ID: o.ID},
		PatientID:    o.PatientID,
		PatientName:  o.PatientName,
		PatientEmail: o.PatientEmail,
		Status:       o.Status,
		TotalCents:   o.TotalCents,
		PaidCents:    o.PaidCents,
		SampleID:     o.SampleID,
		Reports:      o.TestReports,
		Notes:        o.Notes,
		VerifiedAt:   o.VerifiedAt,
		UpdatedAt:    o.UpdatedAt,
		Version:      o.Version,
	}
}

type CreateLabOrderRequest struct {
	PatientID     uuid.UUID   `json:"patient_id" binding:"required"`
	PatientName   string      `json:"patient_name" binding:"required"`
	PatientEmail  string      `json:"patient_email" binding:"omitempty,email"`
	PatientPhone  string      `json:"patient_phone"`
	DoctorID      *uuid.UUID  `json:"doctor_id"`
	AppointmentID *uuid.UUID  `json:"appointment_id"`
	TestIDs       []uuid.UUID `json:"test_ids" binding:"required,min=1"`
	Notes         string      `json:"notes" binding:"max=1000"`
}

type UpdateStatusRequest struct {
	Status Status `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=1000"`
}

// TestType filter values for the merged listing.
const (
	TestTypeAll        = "all"
	TestTypeOrdered    = "ordered"
	TestTypePrescribed = "prescribed"
)

// RecordFilters are the query facade filters.
type RecordFilters struct {
	Status   Status    `form:"status"`
	TestType string    `form:"test_type"`
	DateFrom time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo   time.Time `form:"date_to" time_format:"2006-01-02"`
	Search   string    `form:"search"`
	Pagination
}

// RecordListItem is one row of the merged cross-family listing.
type RecordListItem struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	Kind          RecordKind    `db:"kind" json:"kind"`
	Label         string        `db:"label" json:"label"`
	PatientID     uuid.UUID     `db:"patient_id" json:"patient_id"`
	PatientName   string        `db:"patient_name" json:"patient_name"`
	Status        Status        `db:"status" json:"status"`
	TotalCents    int64         `db:"total_cents" json:"total_cents"`
	PaidCents     int64         `db:"paid_cents" json:"paid_cents"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	DueCents      int64         `db:"-" json:"due_cents"`
	PaymentStatus PaymentStatus `db:"-" json:"payment_status"`
	Bucket        Bucket        `db:"-" json:"bucket"`
}

// Decorate fills the derived fields on a listing row.
func (i *RecordListItem) Decorate() {
	rec := TestRecord{TotalCents: i.TotalCents, PaidCents: i.PaidCents}
	i.DueCents = rec.DueCents()
	i.PaymentStatus = rec.PaymentState()
	i.Bucket = BucketFor(i.Status)
}

// CategorizedRecords buckets visible records for the dashboard view.
type CategorizedRecords struct {
	Pending         []*RecordListItem `json:"pending"`
	InProgress      []*RecordListItem `json:"inProgress"`
	ReadyForResults []*RecordListItem `json:"readyForResults"`
	Completed       []*RecordListItem `json:"completed"`
}
