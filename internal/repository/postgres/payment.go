package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medilab/lab-api/internal/model"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

// Append inserts the ledger row and recomputes the owning record's paid
// total from SUM(ledger) under the record's version compare-and-swap, so a
// payment is never visible with stale derived totals.
func (r *paymentRepository) Append(ctx context.Context, p *model.Payment, expectedVersion int, events ...*model.OutboxEvent) (int64, error) {
	table, err := tableFor(p.RecordKind)
	if err != nil {
		return 0, apperrors.Validation("invalid record reference", err)
	}

	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	if p.PaidAt.IsZero() {
		p.PaidAt = p.CreatedAt
	}

	var paidCents int64
	err = r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO payments (
				id, record_kind, record_id, amount_cents, method,
				transaction_id, state, paid_at, processed_by, notes, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, insert,
			p.ID,
			p.RecordKind,
			p.RecordID,
			p.AmountCents,
			p.Method,
			p.TransactionID,
			p.State,
			p.PaidAt,
			p.ProcessedBy,
			p.Notes,
			p.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}

		sumQuery := `
			SELECT COALESCE(SUM(amount_cents), 0)
			FROM payments
			WHERE record_kind = $1 AND record_id = $2 AND state = $3
		`
		if err := tx.GetContext(ctx, &paidCents, sumQuery,
			p.RecordKind, p.RecordID, model.PaymentStateCompleted); err != nil {
			return fmt.Errorf("failed to sum ledger: %w", err)
		}

		update := fmt.Sprintf(`
			UPDATE %s
			SET paid_cents = $1, updated_at = NOW(), version = version + 1
			WHERE id = $2 AND version = $3
		`, table)
		result, err := tx.ExecContext(ctx, update, paidCents, p.RecordID, expectedVersion)
		if err != nil {
			return fmt.Errorf("failed to update record totals: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return casFailure(ctx, tx, table, model.RecordRef{Kind: p.RecordKind, ID: p.RecordID})
		}

		for _, event := range events {
			if err := insertOutboxEvent(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return paidCents, nil
}

const paymentColumns = `
	id, record_kind, record_id, amount_cents, method, transaction_id,
	state, paid_at, processed_by, notes, created_at
`

func (r *paymentRepository) ListForRecord(ctx context.Context, ref model.RecordRef) ([]*model.Payment, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payments
		WHERE record_kind = $1 AND record_id = $2
		ORDER BY paid_at ASC
	`, paymentColumns)

	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, query, ref.Kind, ref.ID); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) SumForRecord(ctx context.Context, ref model.RecordRef) (int64, error) {
	query := `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM payments
		WHERE record_kind = $1 AND record_id = $2 AND state = $3
	`
	var sum int64
	if err := r.db.GetContext(ctx, &sum, query, ref.Kind, ref.ID, model.PaymentStateCompleted); err != nil {
		return 0, fmt.Errorf("failed to sum payments: %w", err)
	}
	return sum, nil
}
