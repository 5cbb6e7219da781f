// Package event builds the outbox events emitted alongside record
// mutations. Events are written in the same transaction as the mutation and
// published to the broker by the outbox poller.
package event

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/model"
)

func build(eventType string, payload interface{}) (*model.OutboxEvent, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
	}
	return &model.OutboxEvent{EventType: eventType, Payload: raw}, nil
}

func NewStatusChanged(rec *model.TestRecord, from, to model.Status) (*model.OutboxEvent, error) {
	return build(model.EventStatusChanged, model.StatusChangedPayload{
		Ref:       rec.Ref,
		PatientID: rec.PatientID,
		From:      from,
		To:        to,
		ChangedAt: time.Now(),
	})
}

func NewPaymentRecorded(rec *model.TestRecord, paymentID uuid.UUID, amountCents int64, method model.PaymentMethod, paidCents int64) (*model.OutboxEvent, error) {
	return build(model.EventPaymentRecorded, model.PaymentRecordedPayload{
		Ref:         rec.Ref,
		PaymentID:   paymentID,
		AmountCents: amountCents,
		Method:      method,
		PaidCents:   paidCents,
		TotalCents:  rec.TotalCents,
	})
}

func NewReportsAttached(rec *model.TestRecord, count int) (*model.OutboxEvent, error) {
	return build(model.EventReportsAttached, map[string]interface{}{
		"ref":        rec.Ref,
		"patient_id": rec.PatientID,
		"count":      count,
	})
}
