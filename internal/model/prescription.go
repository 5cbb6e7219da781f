package model

import (
	"time"

	"github.com/google/uuid"
)

// PrescriptionLabTest is a single doctor-prescribed test. It carries its own
// synthetic primary key; the prescription id and test name are plain columns,
// not an identity encoding.
type PrescriptionLabTest struct {
	Base
	PrescriptionID uuid.UUID  `db:"prescription_id" json:"prescription_id"`
	TestID         uuid.UUID  `db:"test_id" json:"test_id"`
	TestName       string     `db:"test_name" json:"test_name"`
	Category       string     `db:"category" json:"category"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	PatientName    string     `db:"patient_name" json:"patient_name"`
	PatientEmail   string     `db:"patient_email" json:"patient_email,omitempty"`
	PatientPhone   string     `db:"patient_phone" json:"patient_phone,omitempty"`
	DoctorID       uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	TotalCents     int64      `db:"total_cents" json:"total_cents"`
	PaidCents      int64      `db:"paid_cents" json:"paid_cents"`
	Status         Status     `db:"status" json:"status"`
	SampleID       *string    `db:"sample_id" json:"sample_id,omitempty"`
	TestReports    ReportList `db:"test_reports" json:"test_reports"`
	Notes          string     `db:"notes" json:"notes,omitempty"`
	VerifiedAt     *time.Time `db:"verified_at" json:"verified_at,omitempty"`
	Version        int        `db:"version" json:"version"`

	// Derived, never persisted.
	DueCents      int64         `db:"-" json:"due_cents"`
	PaymentStatus PaymentStatus `db:"-" json:"payment_status"`
}

func (t *PrescriptionLabTest) Decorate() {
	rec := TestRecord{TotalCents: t.TotalCents, PaidCents: t.PaidCents}
	t.DueCents = rec.DueCents()
	t.PaymentStatus = rec.PaymentState()
}

// Record projects the prescription test onto the shared lifecycle view.
func (t *PrescriptionLabTest) Record() *TestRecord {
	return &TestRecord{
		Ref:          RecordRef{Kind: KindPrescriptionTest, ID: t.ID},
		PatientID:    t.PatientID,
		PatientName:  t.PatientName,
		PatientEmail: t.PatientEmail,
		Status:       t.Status,
		TotalCents:   t.TotalCents,
		PaidCents:    t.PaidCents,
		SampleID:     t.SampleID,
		Reports:      t.TestReports,
		Notes:        t.Notes,
		VerifiedAt:   t.VerifiedAt,
		UpdatedAt:    t.UpdatedAt,
		Version:      t.Version,
	}
}

type CreatePrescriptionTestRequest struct {
	PrescriptionID uuid.UUID `json:"prescription_id" binding:"required"`
	TestID         uuid.UUID `json:"test_id" binding:"required"`
	PatientID      uuid.UUID `json:"patient_id" binding:"required"`
	PatientName    string    `json:"patient_name" binding:"required"`
	PatientEmail   string    `json:"patient_email" binding:"omitempty,email"`
	PatientPhone   string    `json:"patient_phone"`
	DoctorID       uuid.UUID `json:"doctor_id" binding:"required"`
	Notes          string    `json:"notes" binding:"max=1000"`
}
