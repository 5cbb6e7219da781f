package order_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository/memory"
	catalogService "github.com/medilab/lab-api/internal/service/catalog"
	"github.com/medilab/lab-api/internal/service/order"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func newService(t *testing.T) (*order.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	cat := catalogService.NewService(memory.NewCatalog(store), time.Minute, time.Minute, zerolog.Nop())
	svc := order.NewService(store, memory.NewPrescriptionTests(store), cat, zerolog.Nop())
	return svc, store
}

func addTest(store *memory.Store, name string, priceCents int64, active bool) *model.LabTest {
	test := &model.LabTest{
		Name:       name,
		Category:   "hematology",
		PriceCents: priceCents,
		IsActive:   active,
	}
	store.AddLabTest(test)
	return test
}

func TestCreateLabOrderSnapshotsPrices(t *testing.T) {
	svc, store := newService(t)
	cbc := addTest(store, "CBC", 40000, true)
	lipid := addTest(store, "Lipid Profile", 120000, true)

	created, err := svc.CreateLabOrder(context.Background(), &model.CreateLabOrderRequest{
		PatientID:   uuid.New(),
		PatientName: "Rahim Uddin",
		TestIDs:     []uuid.UUID{cbc.ID, lipid.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, "LAB-000001", created.OrderNumber)
	assert.Equal(t, model.StatusOrdered, created.Status)
	assert.Equal(t, int64(160000), created.TotalCents)
	assert.Equal(t, model.PaymentStatusNotPaid, created.PaymentStatus)
	require.Len(t, created.TestDetails, 2)
	assert.Equal(t, int64(40000), created.TestDetails[0].PriceCents)

	// A later catalog price change must not move the order total.
	cbc.PriceCents = 99999
	got, err := svc.GetLabOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(160000), got.TotalCents)
	assert.Equal(t, int64(40000), got.TestDetails[0].PriceCents)
}

func TestCreateLabOrderRejectsUnknownTest(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.CreateLabOrder(context.Background(), &model.CreateLabOrderRequest{
		PatientID:   uuid.New(),
		PatientName: "Rahim Uddin",
		TestIDs:     []uuid.UUID{uuid.New()},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}

func TestCreateLabOrderRejectsDuplicateTests(t *testing.T) {
	svc, store := newService(t)
	cbc := addTest(store, "CBC", 40000, true)

	_, err := svc.CreateLabOrder(context.Background(), &model.CreateLabOrderRequest{
		PatientID:   uuid.New(),
		PatientName: "Rahim Uddin",
		TestIDs:     []uuid.UUID{cbc.ID, cbc.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
}

func TestCreateLabOrderRejectsInactiveTest(t *testing.T) {
	svc, store := newService(t)
	retired := addTest(store, "Retired Panel", 40000, false)

	_, err := svc.CreateLabOrder(context.Background(), &model.CreateLabOrderRequest{
		PatientID:   uuid.New(),
		PatientName: "Rahim Uddin",
		TestIDs:     []uuid.UUID{retired.ID},
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
}

func TestOrderNumbersAreSequential(t *testing.T) {
	svc, store := newService(t)
	cbc := addTest(store, "CBC", 40000, true)

	for i, want := range []string{"LAB-000001", "LAB-000002", "LAB-000003"} {
		created, err := svc.CreateLabOrder(context.Background(), &model.CreateLabOrderRequest{
			PatientID:   uuid.New(),
			PatientName: "Rahim Uddin",
			TestIDs:     []uuid.UUID{cbc.ID},
		})
		require.NoError(t, err, "order %d", i)
		assert.Equal(t, want, created.OrderNumber)
	}
}

func TestCreatePrescriptionTest(t *testing.T) {
	svc, store := newService(t)
	cbc := addTest(store, "CBC", 40000, true)

	created, err := svc.CreatePrescriptionTest(context.Background(), &model.CreatePrescriptionTestRequest{
		PrescriptionID: uuid.New(),
		TestID:         cbc.ID,
		PatientID:      uuid.New(),
		PatientName:    "Karima Begum",
		DoctorID:       uuid.New(),
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusOrdered, created.Status)
	assert.Equal(t, "CBC", created.TestName)
	assert.Equal(t, int64(40000), created.TotalCents)
	assert.Equal(t, model.PaymentStatusNotPaid, created.PaymentStatus)

	got, err := svc.GetPrescriptionTest(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestListLabOrdersPaginates(t *testing.T) {
	svc, store := newService(t)
	cbc := addTest(store, "CBC", 40000, true)

	for i := 0; i < 5; i++ {
		_, err := svc.CreateLabOrder(context.Background(), &model.CreateLabOrderRequest{
			PatientID:   uuid.New(),
			PatientName: "Rahim Uddin",
			TestIDs:     []uuid.UUID{cbc.ID},
		})
		require.NoError(t, err)
	}

	orders, total, err := svc.ListLabOrders(context.Background(), &model.RecordFilters{
		Pagination: model.Pagination{Page: 1, PageSize: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, orders, 2)
}
