package query_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository/memory"
	"github.com/medilab/lab-api/internal/service/query"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func newService(t *testing.T) (*query.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return query.NewService(store, zerolog.Nop()), store
}

func seed(t *testing.T, store *memory.Store, patientID uuid.UUID, status model.Status) {
	t.Helper()
	order := &model.LabOrder{
		OrderNumber: "LAB-" + string(status)[:3],
		PatientID:   patientID,
		PatientName: "Rahim Uddin",
		Status:      status,
		TotalCents:  10000,
		PaidCents:   5000,
		TestReports: model.ReportList{},
	}
	require.NoError(t, store.Create(context.Background(), order))
}

func seedPrescribed(t *testing.T, store *memory.Store, patientID uuid.UUID, status model.Status) {
	t.Helper()
	test := &model.PrescriptionLabTest{
		PrescriptionID: uuid.New(),
		TestID:         uuid.New(),
		TestName:       "CBC",
		PatientID:      patientID,
		PatientName:    "Karima Begum",
		DoctorID:       uuid.New(),
		Status:         status,
		TotalCents:     20000,
		PaidCents:      20000,
		TestReports:    model.ReportList{},
	}
	require.NoError(t, store.CreatePrescriptionTest(context.Background(), test))
}

func TestListMergesBothFamilies(t *testing.T) {
	svc, store := newService(t)
	patient := uuid.New()
	seed(t, store, patient, model.StatusOrdered)
	seedPrescribed(t, store, patient, model.StatusReported)

	items, total, err := svc.List(context.Background(), &model.RecordFilters{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	kinds := map[model.RecordKind]bool{}
	for _, it := range items {
		kinds[it.Kind] = true
		assert.NotEmpty(t, it.Bucket)
		assert.NotEmpty(t, it.PaymentStatus)
	}
	assert.True(t, kinds[model.KindLabOrder])
	assert.True(t, kinds[model.KindPrescriptionTest])
}

func TestListFiltersByTestType(t *testing.T) {
	svc, store := newService(t)
	patient := uuid.New()
	seed(t, store, patient, model.StatusOrdered)
	seedPrescribed(t, store, patient, model.StatusOrdered)

	items, total, err := svc.List(context.Background(), &model.RecordFilters{TestType: model.TestTypeOrdered})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, model.KindLabOrder, items[0].Kind)

	items, _, err = svc.List(context.Background(), &model.RecordFilters{TestType: model.TestTypePrescribed})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.KindPrescriptionTest, items[0].Kind)
}

func TestListRejectsUnknownFilters(t *testing.T) {
	svc, _ := newService(t)

	_, _, err := svc.List(context.Background(), &model.RecordFilters{Status: "archived"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))

	_, _, err = svc.List(context.Background(), &model.RecordFilters{TestType: "weird"})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
}

func TestCategorizeBucketsEveryStatus(t *testing.T) {
	svc, store := newService(t)
	patient := uuid.New()
	for _, status := range []model.Status{
		model.StatusOrdered, model.StatusApproved,
		model.StatusSampleProcessing, model.StatusSampleTaken,
		model.StatusReported,
		model.StatusConfirmed, model.StatusCancelled,
	} {
		seed(t, store, patient, status)
	}

	buckets, total, err := svc.Categorize(context.Background(), &model.RecordFilters{})
	require.NoError(t, err)
	assert.Equal(t, 7, total)
	assert.Len(t, buckets.Pending, 2)
	assert.Len(t, buckets.InProgress, 2)
	assert.Len(t, buckets.ReadyForResults, 1)
	assert.Len(t, buckets.Completed, 2)
}

func TestPatientResultsOnlyConfirmed(t *testing.T) {
	svc, store := newService(t)
	patient := uuid.New()
	other := uuid.New()
	seed(t, store, patient, model.StatusConfirmed)
	seed(t, store, patient, model.StatusReported)
	seedPrescribed(t, store, patient, model.StatusConfirmed)
	seed(t, store, other, model.StatusConfirmed)

	items, err := svc.PatientResults(context.Background(), patient)
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.Equal(t, model.StatusConfirmed, it.Status)
		assert.Equal(t, patient, it.PatientID)
	}
}
