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

func (r *prescriptionTestRepository) Create(ctx context.Context, test *model.PrescriptionLabTest) error {
	query := `
		INSERT INTO prescription_tests (
			id, prescription_id, test_id, test_name, category,
			patient_id, patient_name, patient_email, patient_phone, doctor_id,
			total_cents, paid_cents, status, test_reports, notes, version,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`
	test.ID = uuid.New()
	test.CreatedAt = time.Now()
	test.UpdatedAt = test.CreatedAt
	test.Version = 1

	_, err := r.db.ExecContext(ctx, query,
		test.ID,
		test.PrescriptionID,
		test.TestID,
		test.TestName,
		test.Category,
		test.PatientID,
		test.PatientName,
		test.PatientEmail,
		test.PatientPhone,
		test.DoctorID,
		test.TotalCents,
		test.PaidCents,
		test.Status,
		test.TestReports,
		test.Notes,
		test.Version,
		test.CreatedAt,
		test.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prescription test: %w", err)
	}
	return nil
}

const prescriptionTestColumns = `
	id, prescription_id, test_id, test_name, category,
	patient_id, patient_name, patient_email, patient_phone, doctor_id,
	total_cents, paid_cents, status, sample_id, test_reports, notes,
	verified_at, version, created_at, updated_at
`

func (r *prescriptionTestRepository) Get(ctx context.Context, id uuid.UUID) (*model.PrescriptionLabTest, error) {
	query := fmt.Sprintf("SELECT %s FROM prescription_tests WHERE id = $1", prescriptionTestColumns)

	var test model.PrescriptionLabTest
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("prescription test", err)
		}
		return nil, fmt.Errorf("failed to get prescription test: %w", err)
	}
	return &test, nil
}

func (r *prescriptionTestRepository) List(ctx context.Context, filters *model.RecordFilters) ([]*model.PrescriptionLabTest, int, error) {
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
			OR patient_phone ILIKE $%d OR patient_id::text = $%d OR test_name ILIKE $%d)`,
			argCount, argCount, argCount, argCount+1, argCount)
		args = append(args, "%"+filters.Search+"%", filters.Search)
		argCount += 2
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM prescription_tests" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count prescription tests: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM prescription_tests%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		prescriptionTestColumns, where, argCount, argCount+1)
	args = append(args, filters.PageSize, filters.Offset())

	var tests []*model.PrescriptionLabTest
	if err := r.db.SelectContext(ctx, &tests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list prescription tests: %w", err)
	}
	return tests, total, nil
}
