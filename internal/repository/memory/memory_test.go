package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilab/lab-api/internal/model"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func seed(t *testing.T, s *Store) model.RecordRef {
	t.Helper()
	order := &model.LabOrder{
		OrderNumber: "LAB-000001",
		PatientID:   uuid.New(),
		PatientName: "Rahim Uddin",
		Status:      model.StatusOrdered,
		TotalCents:  10000,
		TestReports: model.ReportList{},
	}
	require.NoError(t, s.Create(context.Background(), order))
	return model.RecordRef{Kind: model.KindLabOrder, ID: order.ID}
}

func TestUpdateRecordVersionConflict(t *testing.T) {
	s := NewStore()
	ref := seed(t, s)
	ctx := context.Background()

	a, err := s.GetRecord(ctx, ref)
	require.NoError(t, err)
	b, err := s.GetRecord(ctx, ref)
	require.NoError(t, err)

	a.Status = model.StatusApproved
	require.NoError(t, s.UpdateRecord(ctx, a))

	b.Status = model.StatusCancelled
	err = s.UpdateRecord(ctx, b)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.Code(err))

	// The stale writer lost; the first write survived.
	got, err := s.GetRecord(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Equal(t, 2, got.Version)
}

func TestAppendVersionConflictLeavesNoOrphan(t *testing.T) {
	s := NewStore()
	ref := seed(t, s)
	ctx := context.Background()

	_, err := s.Append(ctx, &model.Payment{
		RecordKind:  ref.Kind,
		RecordID:    ref.ID,
		AmountCents: 1000,
		Method:      model.PaymentMethodCash,
		State:       model.PaymentStateCompleted,
	}, 99)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeConflict, apperrors.Code(err))

	sum, err := s.SumForRecord(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, int64(0), sum)

	payments, err := s.ListForRecord(ctx, ref)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestPendingPaymentsExcludedFromSum(t *testing.T) {
	s := NewStore()
	ref := seed(t, s)
	ctx := context.Background()

	rec, err := s.GetRecord(ctx, ref)
	require.NoError(t, err)
	paid, err := s.Append(ctx, &model.Payment{
		RecordKind:  ref.Kind,
		RecordID:    ref.ID,
		AmountCents: 1000,
		Method:      model.PaymentMethodOnline,
		State:       model.PaymentStatePending,
	}, rec.Version)
	require.NoError(t, err)
	assert.Equal(t, int64(0), paid)

	payments, err := s.ListForRecord(ctx, ref)
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestGetRecordCopiesAreIndependent(t *testing.T) {
	s := NewStore()
	ref := seed(t, s)
	ctx := context.Background()

	rec, err := s.GetRecord(ctx, ref)
	require.NoError(t, err)
	rec.Status = model.StatusCancelled

	fresh, err := s.GetRecord(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOrdered, fresh.Status)
}
