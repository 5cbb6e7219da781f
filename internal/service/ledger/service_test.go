package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository/memory"
	"github.com/medilab/lab-api/internal/service/ledger"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func newService(t *testing.T) (*ledger.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	svc := ledger.NewService(store, store, nil, zerolog.Nop())
	return svc, store
}

func seedOrder(t *testing.T, store *memory.Store, status model.Status, totalCents, paidCents int64) model.RecordRef {
	t.Helper()
	order := &model.LabOrder{
		OrderNumber: "LAB-000001",
		PatientID:   uuid.New(),
		PatientName: "Rahim Uddin",
		Status:      status,
		TotalCents:  totalCents,
		PaidCents:   paidCents,
		TestReports: model.ReportList{},
	}
	require.NoError(t, store.Create(context.Background(), order))
	return model.RecordRef{Kind: model.KindLabOrder, ID: order.ID}
}

func pay(t *testing.T, svc *ledger.Service, ref model.RecordRef, amount int64, method model.PaymentMethod, txid string) (*model.TestRecord, *model.Payment, error) {
	t.Helper()
	return svc.RecordPayment(context.Background(), ref, &model.RecordPaymentRequest{
		AmountCents:   amount,
		Method:        method,
		TransactionID: txid,
	}, nil)
}

func TestRecordPaymentAccumulates(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusApproved, 100000, 0)

	rec, p, err := pay(t, svc, ref, 30000, model.PaymentMethodCash, "")
	require.NoError(t, err)
	assert.Equal(t, int64(30000), rec.PaidCents)
	assert.Equal(t, model.PaymentStateCompleted, p.State)

	rec, _, err = pay(t, svc, ref, 20000, model.PaymentMethodOffline, "")
	require.NoError(t, err)
	assert.Equal(t, int64(50000), rec.PaidCents)
	assert.Equal(t, int64(50000), rec.DueCents())
	assert.Equal(t, model.PaymentStatusPartiallyPaid, rec.PaymentState())
}

func TestPaidTotalEqualsLedgerSum(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusApproved, 100000, 0)

	_, _, err := pay(t, svc, ref, 40000, model.PaymentMethodCash, "")
	require.NoError(t, err)
	_, _, err = pay(t, svc, ref, 60000, model.PaymentMethodCash, "")
	require.NoError(t, err)

	sum, err := store.SumForRecord(context.Background(), ref)
	require.NoError(t, err)
	rec, err := store.GetRecord(context.Background(), ref)
	require.NoError(t, err)
	assert.Equal(t, sum, rec.PaidCents)
	assert.Equal(t, model.PaymentStatusPaid, rec.PaymentState())
}

func TestPaymentMustBePositive(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusApproved, 100000, 0)

	for _, amount := range []int64{0, -500} {
		_, _, err := pay(t, svc, ref, amount, model.PaymentMethodCash, "")
		require.Error(t, err)
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
	}
}

func TestPaymentMayNotExceedDue(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusApproved, 100000, 80000)

	_, _, err := pay(t, svc, ref, 30000, model.PaymentMethodCash, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))

	// Exactly the due amount is fine.
	rec, _, err := pay(t, svc, ref, 20000, model.PaymentMethodCash, "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rec.DueCents())
}

func TestGatewayMethodsRequireTransactionID(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusApproved, 100000, 0)

	for _, method := range []model.PaymentMethod{
		model.PaymentMethodOnline, model.PaymentMethodBkash, model.PaymentMethodBankCard,
	} {
		_, _, err := pay(t, svc, ref, 10000, method, "")
		require.Error(t, err, "method %s", method)
		assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
	}

	_, p, err := pay(t, svc, ref, 10000, model.PaymentMethodBkash, "TXN-123")
	require.NoError(t, err)
	require.NotNil(t, p.TransactionID)
	assert.Equal(t, "TXN-123", *p.TransactionID)
}

func TestUnknownMethodRejected(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusApproved, 100000, 0)

	_, _, err := pay(t, svc, ref, 10000, model.PaymentMethod("cheque"), "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
}

func TestNoPaymentsOnCancelledRecords(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusCancelled, 100000, 0)

	_, _, err := pay(t, svc, ref, 10000, model.PaymentMethodCash, "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePrecondition, apperrors.Code(err))
}

func TestRecordPaymentEmitsEvent(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusApproved, 100000, 0)

	_, _, err := pay(t, svc, ref, 10000, model.PaymentMethodCash, "")
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, model.EventPaymentRecorded, events[0].EventType)
}

func TestListPayments(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusApproved, 100000, 0)

	_, _, err := pay(t, svc, ref, 10000, model.PaymentMethodCash, "")
	require.NoError(t, err)
	_, _, err = pay(t, svc, ref, 20000, model.PaymentMethodBkash, "TXN-9")
	require.NoError(t, err)

	payments, err := svc.ListPayments(context.Background(), ref)
	require.NoError(t, err)
	require.Len(t, payments, 2)

	_, err = svc.ListPayments(context.Background(), model.RecordRef{Kind: model.KindLabOrder, ID: uuid.New()})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
}
