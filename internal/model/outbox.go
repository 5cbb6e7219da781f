package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "PENDING"
	OutboxStatusProcessed OutboxStatus = "PROCESSED"
	OutboxStatusFailed    OutboxStatus = "FAILED"
)

// Lifecycle event types published through the outbox.
const (
	EventStatusChanged   = "lab.record.status_changed"
	EventPaymentRecorded = "lab.record.payment_recorded"
	EventReportsAttached = "lab.record.reports_attached"
)

type OutboxEvent struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	EventType    string          `db:"event_type" json:"event_type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	Status       OutboxStatus    `db:"status" json:"status"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int             `db:"retry_count" json:"retry_count"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// StatusChangedPayload is the body of EventStatusChanged events.
type StatusChangedPayload struct {
	Ref       RecordRef `json:"ref"`
	PatientID uuid.UUID `json:"patient_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

// PaymentRecordedPayload is the body of EventPaymentRecorded events.
type PaymentRecordedPayload struct {
	Ref         RecordRef     `json:"ref"`
	PaymentID   uuid.UUID     `json:"payment_id"`
	AmountCents int64         `json:"amount_cents"`
	Method      PaymentMethod `json:"method"`
	PaidCents   int64         `json:"paid_cents"`
	TotalCents  int64         `json:"total_cents"`
}
