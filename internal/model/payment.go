package model

import (
	"time"

	"github.com/google/uuid"
)

// PaymentMethod tags how a payment was collected. Cash and offline payments
// are recorded by staff after physical collection; the online methods are
// submitted by the patient and must carry a gateway transaction id.
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "cash"
	PaymentMethodBkash    PaymentMethod = "bkash"
	PaymentMethodBankCard PaymentMethod = "bank_card"
	PaymentMethodOffline  PaymentMethod = "offline"
	PaymentMethodOnline   PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBkash, PaymentMethodBankCard,
		PaymentMethodOffline, PaymentMethodOnline:
		return true
	}
	return false
}

// RequiresTransactionID reports whether the method goes through a gateway.
func (m PaymentMethod) RequiresTransactionID() bool {
	switch m {
	case PaymentMethodOnline, PaymentMethodBkash, PaymentMethodBankCard:
		return true
	}
	return false
}

// PaymentState of a ledger entry.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "pending"
	PaymentStateCompleted PaymentState = "completed"
)

// Payment is one append-only ledger entry. Entries are never edited or
// deleted; the owning record's paid total is recomputed from their sum.
type Payment struct {
	ID            uuid.UUID     `db:"id" json:"id"`
	RecordKind    RecordKind    `db:"record_kind" json:"record_kind"`
	RecordID      uuid.UUID     `db:"record_id" json:"record_id"`
	AmountCents   int64         `db:"amount_cents" json:"amount_cents"`
	Method        PaymentMethod `db:"method" json:"method"`
	TransactionID *string       `db:"transaction_id" json:"transaction_id,omitempty"`
	State         PaymentState  `db:"state" json:"state"`
	PaidAt        time.Time     `db:"paid_at" json:"paid_at"`
	ProcessedBy   *uuid.UUID    `db:"processed_by" json:"processed_by,omitempty"`
	Notes         string        `db:"notes" json:"notes,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
}

type RecordPaymentRequest struct {
	AmountCents   int64         `json:"amount_cents" binding:"required"`
	Method        PaymentMethod `json:"payment_method" binding:"required,paymentmethod"`
	TransactionID string        `json:"transaction_id"`
	Notes         string        `json:"notes" binding:"max=1000"`
}
