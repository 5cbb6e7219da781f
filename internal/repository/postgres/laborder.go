package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/model"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func (r *labOrderRepository) Create(ctx context.Context, order *model.LabOrder) error {
	query := `
		INSERT INTO lab_orders (
			id, order_number, patient_id, patient_name, patient_email, patient_phone,
			doctor_id, appointment_id, test_details, total_cents, paid_cents,
			status, test_reports, notes, version, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	order.Version = 1

	_, err := r.db.ExecContext(ctx, query,
		order.ID,
		order.OrderNumber,
		order.PatientID,
		order.PatientName,
		order.PatientEmail,
		order.PatientPhone,
		order.DoctorID,
		order.AppointmentID,
		order.TestDetails,
		order.TotalCents,
		order.PaidCents,
		order.Status,
		order.TestReports,
		order.Notes,
		order.Version,
		order.CreatedAt,
		order.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lab order: %w", err)
	}
	return nil
}

const labOrderColumns = `
	id, order_number, patient_id, patient_name, patient_email, patient_phone,
	doctor_id, appointment_id, test_details, total_cents, paid_cents,
	status, sample_id, test_reports, notes, verified_at, version,
	created_at, updated_at
`

func (r *labOrderRepository) Get(ctx context.Context, id uuid.UUID) (*model.LabOrder, error) {
	query := fmt.Sprintf("SELECT %s FROM lab_orders WHERE id = $1", labOrderColumns)

	var order model.LabOrder
	if err := r.db.GetContext(ctx, &order, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("lab order", err)
		}
		return nil, fmt.Errorf("failed to get lab order: %w", err)
	}
	return &order, nil
}

func (r *labOrderRepository) List(ctx context.Context, filters *model.RecordFilters) ([]*model.LabOrder, int, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	argCount := 1

	if filters.Status != "" {
		where += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
		argCount++
	}
	if !filters.DateFrom.IsZero() {
		where += fmt.Sprintf(" AND created_at >= $%d", argCount)
		args = append(args, filters.DateFrom)
		argCount++
	}
	if !filters.DateTo.IsZero() {
		where += fmt.Sprintf(" AND created_at < $%d", argCount)
		args = append(args, filters.DateTo.Add(24*time.Hour))
		argCount++
	}
	if filters.Search != "" {
		where += fmt.Sprintf(` AND (patient_name ILIKE $%d OR patient_email ILIKE $%d
			OR patient_phone ILIKE $%d OR patient_id::text = $%d OR order_number ILIKE $%d)`,
			argCount, argCount, argCount, argCount+1, argCount)
		args = append(args, "%"+filters.Search+"%", filters.Search)
		argCount += 2
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM lab_orders" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count lab orders: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM lab_orders%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		labOrderColumns, where, argCount, argCount+1)
	args = append(args, filters.PageSize, filters.Offset())

	var orders []*model.LabOrder
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list lab orders: %w", err)
	}
	return orders, total, nil
}

func (r *labOrderRepository) NextOrderNumber(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, "SELECT nextval('lab_order_number_seq')"); err != nil {
		return "", fmt.Errorf("failed to get next order sequence: %w", err)
	}
	return fmt.Sprintf("LAB-%06d", seq), nil
}
