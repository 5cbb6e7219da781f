package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/model"
)

// recordUnion merges both families into the common listing shape.
const recordUnion = `
	SELECT id, 'lab_order' AS kind, order_number AS label,
	       patient_id, patient_name, patient_email, patient_phone,
	       status, total_cents, paid_cents, created_at
	FROM lab_orders
	UNION ALL
	SELECT id, 'prescription_test' AS kind, test_name AS label,
	       patient_id, patient_name, patient_email, patient_phone,
	       status, total_cents, paid_cents, created_at
	FROM prescription_tests
`

func unionFor(testType string) string {
	switch testType {
	case model.TestTypeOrdered:
		return `
			SELECT id, 'lab_order' AS kind, order_number AS label,
			       patient_id, patient_name, patient_email, patient_phone,
			       status, total_cents, paid_cents, created_at
			FROM lab_orders
		`
	case model.TestTypePrescribed:
		return `
			SELECT id, 'prescription_test' AS kind, test_name AS label,
			       patient_id, patient_name, patient_email, patient_phone,
			       status, total_cents, paid_cents, created_at
			FROM prescription_tests
		`
	default:
		return recordUnion
	}
}

type listingRow struct {
	ID           uuid.UUID        `db:"id"`
	Kind         model.RecordKind `db:"kind"`
	Label        string           `db:"label"`
	PatientID    uuid.UUID        `db:"patient_id"`
	PatientName  string           `db:"patient_name"`
	PatientEmail string           `db:"patient_email"`
	PatientPhone string           `db:"patient_phone"`
	Status       model.Status     `db:"status"`
	TotalCents   int64            `db:"total_cents"`
	PaidCents    int64            `db:"paid_cents"`
	CreatedAt    time.Time        `db:"created_at"`
}

func (row *listingRow) toItem() *model.RecordListItem {
	item := &model.RecordListItem{
		ID:          row.ID,
		Kind:        row.Kind,
		Label:       row.Label,
		PatientID:   row.PatientID,
		PatientName: row.PatientName,
		Status:      row.Status,
		TotalCents:  row.TotalCents,
		PaidCents:   row.PaidCents,
		CreatedAt:   row.CreatedAt,
	}
	item.Decorate()
	return item
}

func (r *listingRepository) ListRecords(ctx context.Context, filters *model.RecordFilters) ([]*model.RecordListItem, int, error) {
	base := fmt.Sprintf("(%s) AS r", unionFor(filters.TestType))

	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters.Status != "" {
		where += fmt.Sprintf(" AND r.status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.DateFrom.IsZero() {
		where += fmt.Sprintf(" AND r.created_at >= $%d", argCount)
		args = append(args, filters.DateFrom)
		argCount++
	}
	if !filters.DateTo.IsZero() {
		where += fmt.Sprintf(" AND r.created_at < $%d", argCount)
		args = append(args, filters.DateTo.Add(24*time.Hour))
		argCount++
	}
	if filters.Search != "" {
		where += fmt.Sprintf(` AND (r.patient_name ILIKE $%d OR r.patient_email ILIKE $%d
			OR r.patient_phone ILIKE $%d OR r.patient_id::text = $%d OR r.label ILIKE $%d)`,
			argCount, argCount, argCount, argCount+1, argCount)
		args = append(args, "%"+filters.Search+"%", filters.Search)
		argCount += 2
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM " + base + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count records: %w", err)
	}

	query := fmt.Sprintf("SELECT r.* FROM %s%s ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d",
		base, where, argCount, argCount+1)
	args = append(args, filters.PageSize, filters.Offset())

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list records: %w", err)
	}

	items := make([]*model.RecordListItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toItem())
	}
	return items, total, nil
}

// ListConfirmedForPatient is the patient-facing read path: only confirmed
// records are ever visible there.
func (r *listingRepository) ListConfirmedForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.RecordListItem, error) {
	query := fmt.Sprintf(`
		SELECT r.* FROM (%s) AS r
		WHERE r.patient_id = $1 AND r.status = $2
		ORDER BY r.created_at DESC
	`, recordUnion)

	var rows []listingRow
	if err := r.db.SelectContext(ctx, &rows, query, patientID, model.StatusConfirmed); err != nil {
		return nil, fmt.Errorf("failed to list patient records: %w", err)
	}

	items := make([]*model.RecordListItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].toItem())
	}
	return items, nil
}
