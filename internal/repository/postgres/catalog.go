package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/medilab/lab-api/internal/model"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

const labTestColumns = `
	id, name, description, category, price_cents, sample_type,
	preparation_instructions, report_delivery_time, is_active,
	created_at, updated_at
`

func (r *catalogRepository) Get(ctx context.Context, id uuid.UUID) (*model.LabTest, error) {
	query := fmt.Sprintf("SELECT %s FROM lab_tests WHERE id = $1", labTestColumns)

	var test model.LabTest
	if err := r.db.GetContext(ctx, &test, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("lab test", err)
		}
		return nil, fmt.Errorf("failed to get lab test: %w", err)
	}
	return &test, nil
}

func (r *catalogRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.LabTest, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, id.String())
	}

	query := fmt.Sprintf("SELECT %s FROM lab_tests WHERE id = ANY($1)", labTestColumns)

	var tests []*model.LabTest
	if err := r.db.SelectContext(ctx, &tests, query, pq.Array(strIDs)); err != nil {
		return nil, fmt.Errorf("failed to get lab tests: %w", err)
	}
	return tests, nil
}

func (r *catalogRepository) ListActive(ctx context.Context) ([]*model.LabTest, error) {
	query := fmt.Sprintf("SELECT %s FROM lab_tests WHERE is_active = TRUE ORDER BY category, name", labTestColumns)

	var tests []*model.LabTest
	if err := r.db.SelectContext(ctx, &tests, query); err != nil {
		return nil, fmt.Errorf("failed to list lab tests: %w", err)
	}
	return tests, nil
}
