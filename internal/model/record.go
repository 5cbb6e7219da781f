package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state shared by lab orders and prescription tests.
type Status string

const (
	StatusOrdered          Status = "ordered"
	StatusApproved         Status = "approved"
	StatusSampleProcessing Status = "sample_processing"
	StatusSampleTaken      Status = "sample_taken"
	StatusReported         Status = "reported"
	StatusConfirmed        Status = "confirmed"
	StatusCancelled        Status = "cancelled"
)

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusOrdered, StatusApproved, StatusSampleProcessing,
		StatusSampleTaken, StatusReported, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is always derived from paid vs total, never stored.
type PaymentStatus string

const (
	PaymentStatusNotPaid       PaymentStatus = "not_paid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially_paid"
	PaymentStatusPaid          PaymentStatus = "paid"
)

// Bucket is the presentation grouping used by the categorized view.
type Bucket string

const (
	BucketPending         Bucket = "pending"
	BucketInProgress      Bucket = "inProgress"
	BucketReadyForResults Bucket = "readyForResults"
	BucketCompleted       Bucket = "completed"
)

// BucketFor maps a lifecycle status to its presentation bucket. Cancelled
// records bucket under completed, they need no further action.
func BucketFor(s Status) Bucket {
	switch s {
	case StatusOrdered, StatusApproved:
		return BucketPending
	case StatusSampleProcessing, StatusSampleTaken:
		return BucketInProgress
	case StatusReported:
		return BucketReadyForResults
	default:
		return BucketCompleted
	}
}

// RecordKind distinguishes the two record families sharing the lifecycle.
type RecordKind string

const (
	KindLabOrder         RecordKind = "lab_order"
	KindPrescriptionTest RecordKind = "prescription_test"
)

func (k RecordKind) Valid() bool {
	return k == KindLabOrder || k == KindPrescriptionTest
}

// RecordRef identifies a record of either family.
type RecordRef struct {
	Kind RecordKind `json:"kind"`
	ID   uuid.UUID  `json:"id"`
}

func (r RecordRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// TestReport is one uploaded result file.
type TestReport struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	StoragePath  string    `json:"storage_path"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// ReportList stores uploaded reports as a JSONB column.
type ReportList []TestReport

func (l ReportList) Value() (driver.Value, error) {
	if l == nil {
		l = ReportList{}
	}
	return json.Marshal(l)
}

func (l *ReportList) Scan(src interface{}) error {
	if src == nil {
		*l = ReportList{}
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("cannot scan %T into ReportList", src)
	}
	return json.Unmarshal(b, l)
}

// TestRecord is the lifecycle view shared by both families. The state
// machine, ledger and report manager operate on it without caring which
// table backs the record.
type TestRecord struct {
	Ref          RecordRef `json:"ref"`
	PatientID    uuid.UUID `json:"patient_id"`
	PatientName  string    `json:"patient_name,omitempty"`
	PatientEmail string    `json:"patient_email,omitempty"`

	Status     Status     `json:"status"`
	TotalCents int64      `json:"total_cents"`
	PaidCents  int64      `json:"paid_cents"`
	SampleID   *string    `json:"sample_id,omitempty"`
	Reports    ReportList `json:"test_reports"`
	Notes      string     `json:"notes,omitempty"`
	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`

	// Version backs the compare-and-swap on every mutation.
	Version int `json:"version"`
}

// DueCents derives the outstanding amount. Never negative.
func (r *TestRecord) DueCents() int64 {
	due := r.TotalCents - r.PaidCents
	if due < 0 {
		return 0
	}
	return due
}

// PaymentState derives the payment status from paid vs total.
func (r *TestRecord) PaymentState() PaymentStatus {
	switch {
	case r.TotalCents > 0 && r.PaidCents >= r.TotalCents:
		return PaymentStatusPaid
	case r.PaidCents > 0:
		return PaymentStatusPartiallyPaid
	default:
		return PaymentStatusNotPaid
	}
}
