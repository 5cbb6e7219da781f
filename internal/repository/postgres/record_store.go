package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medilab/lab-api/internal/model"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func tableFor(kind model.RecordKind) (string, error) {
	switch kind {
	case model.KindLabOrder:
		return "lab_orders", nil
	case model.KindPrescriptionTest:
		return "prescription_tests", nil
	default:
		return "", fmt.Errorf("unknown record kind %q", kind)
	}
}

// recordRow mirrors the lifecycle columns shared by both tables.
type recordRow struct {
	ID           uuid.UUID `db:"id"`
	PatientID    uuid.UUID `db:"patient_id"`
	PatientName  string    `db:"patient_name"`
	PatientEmail string    `db:"patient_email"`

	Status     model.Status     `db:"status"`
	TotalCents int64            `db:"total_cents"`
	PaidCents  int64            `db:"paid_cents"`
	SampleID   *string          `db:"sample_id"`
	Reports    model.ReportList `db:"test_reports"`
	Notes      string           `db:"notes"`
	VerifiedAt sql.NullTime     `db:"verified_at"`
	UpdatedAt  sql.NullTime     `db:"updated_at"`
	Version    int              `db:"version"`
}

func (r *recordStore) GetRecord(ctx context.Context, ref model.RecordRef) (*model.TestRecord, error) {
	table, err := tableFor(ref.Kind)
	if err != nil {
		return nil, apperrors.Validation("invalid record reference", err)
	}

	query := fmt.Sprintf(`
		SELECT id, patient_id, patient_name, patient_email, status, total_cents,
		       paid_cents, sample_id, test_reports, notes, verified_at, updated_at, version
		FROM %s
		WHERE id = $1
	`, table)

	var row recordRow
	if err := r.db.GetContext(ctx, &row, query, ref.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("record", err)
		}
		return nil, fmt.Errorf("failed to get record: %w", err)
	}

	rec := &model.TestRecord{
		Ref:          ref,
		PatientID:    row.PatientID,
		PatientName:  row.PatientName,
		PatientEmail: row.PatientEmail,
		Status:       row.Status,
		TotalCents:   row.TotalCents,
		PaidCents:    row.PaidCents,
		SampleID:     row.SampleID,
		Reports:      row.Reports,
		Notes:        row.Notes,
		Version:      row.Version,
	}
	if row.VerifiedAt.Valid {
		t := row.VerifiedAt.Time
		rec.VerifiedAt = &t
	}
	if row.UpdatedAt.Valid {
		rec.UpdatedAt = row.UpdatedAt.Time
	}
	return rec, nil
}

func (r *recordStore) UpdateRecord(ctx context.Context, rec *model.TestRecord, events ...*model.OutboxEvent) error {
	table, err := tableFor(rec.Ref.Kind)
	if err != nil {
		return apperrors.Validation("invalid record reference", err)
	}

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := fmt.Sprintf(`
			UPDATE %s
			SET status = $1, paid_cents = $2, sample_id = $3, test_reports = $4,
			    notes = $5, verified_at = $6, updated_at = NOW(), version = version + 1
			WHERE id = $7 AND version = $8
		`, table)

		result, err := tx.ExecContext(ctx, query,
			rec.Status,
			rec.PaidCents,
			rec.SampleID,
			rec.Reports,
			rec.Notes,
			rec.VerifiedAt,
			rec.Ref.ID,
			rec.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return casFailure(ctx, tx, table, rec.Ref)
		}

		for _, event := range events {
			if err := insertOutboxEvent(ctx, tx, event); err != nil {
				return err
			}
		}

		rec.Version++
		return nil
	})
}

// casFailure distinguishes a missing row from a version mismatch.
func casFailure(ctx context.Context, tx *sqlx.Tx, table string, ref model.RecordRef) error {
	var exists bool
	checkQuery := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)", table)
	if err := tx.GetContext(ctx, &exists, checkQuery, ref.ID); err != nil {
		return fmt.Errorf("failed to check record existence: %w", err)
	}
	if !exists {
		return apperrors.NotFound("record", nil)
	}
	return apperrors.Conflict("record")
}

func (r *recordStore) NextSampleID(ctx context.Context) (string, error) {
	var seq int64
	if err := r.db.GetContext(ctx, &seq, "SELECT nextval('sample_id_seq')"); err != nil {
		return "", fmt.Errorf("failed to get next sample sequence: %w", err)
	}
	return fmt.Sprintf("SMP-%06d", seq), nil
}
