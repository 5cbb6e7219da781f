package report_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository/memory"
	"github.com/medilab/lab-api/internal/service/report"
	apperrors "github.com/medilab/lab-api/pkg/errors"
)

func newService(t *testing.T) (*report.Service, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	files, err := report.NewDiskStore(t.TempDir())
	require.NoError(t, err)
	return report.NewService(store, files, nil, zerolog.Nop()), store
}

func seedOrder(t *testing.T, store *memory.Store, status model.Status, totalCents, paidCents int64, reports model.ReportList) model.RecordRef {
	t.Helper()
	if reports == nil {
		reports = model.ReportList{}
	}
	order := &model.LabOrder{
		OrderNumber: "LAB-000001",
		PatientID:   uuid.New(),
		PatientName: "Rahim Uddin",
		Status:      status,
		TotalCents:  totalCents,
		PaidCents:   paidCents,
		TestReports: reports,
	}
	require.NoError(t, store.Create(context.Background(), order))
	return model.RecordRef{Kind: model.KindLabOrder, ID: order.ID}
}

func uploads(names ...string) []report.Upload {
	out := make([]report.Upload, 0, len(names))
	for _, n := range names {
		out = append(out, report.Upload{OriginalName: n, Content: strings.NewReader("pdf-bytes")})
	}
	return out
}

func TestAttachTransitionsSampleTakenToReported(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusSampleTaken, 50000, 50000, nil)

	rec, err := svc.Attach(context.Background(), ref, uploads("cbc.pdf", "lipid.pdf"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusReported, rec.Status)
	require.Len(t, rec.Reports, 2)
	assert.Equal(t, "cbc.pdf", rec.Reports[0].OriginalName)

	for _, r := range rec.Reports {
		_, err := os.Stat(r.StoragePath)
		assert.NoError(t, err, "file %s should exist", r.StoragePath)
	}

	// One reports event plus one status event, both in the same write.
	events := store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, model.EventReportsAttached, events[0].EventType)
	assert.Equal(t, model.EventStatusChanged, events[1].EventType)
}

func TestAttachRequiresFullPayment(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusSampleTaken, 50000, 20000, nil)

	_, err := svc.Attach(context.Background(), ref, uploads("cbc.pdf"))
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePaymentInsufficient, apperrors.Code(err))
}

func TestAttachAppendsOnReportedRecords(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusReported, 50000, 50000,
		model.ReportList{{Filename: "a.pdf", OriginalName: "first.pdf", StoragePath: "/nonexistent/a.pdf"}})

	rec, err := svc.Attach(context.Background(), ref, uploads("second.pdf"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusReported, rec.Status)
	assert.Len(t, rec.Reports, 2)
}

func TestAttachRejectedBeforeSampleTaken(t *testing.T) {
	svc, store := newService(t)
	for _, status := range []model.Status{
		model.StatusOrdered, model.StatusApproved, model.StatusSampleProcessing,
	} {
		ref := seedOrder(t, store, status, 50000, 50000, nil)
		_, err := svc.Attach(context.Background(), ref, uploads("cbc.pdf"))
		require.Error(t, err, "status %s", status)
		assert.Equal(t, apperrors.CodePrecondition, apperrors.Code(err))
	}
}

func TestAttachRejectedOnConfirmedAndCancelled(t *testing.T) {
	svc, store := newService(t)
	for _, status := range []model.Status{model.StatusConfirmed, model.StatusCancelled} {
		ref := seedOrder(t, store, status, 50000, 50000, nil)
		_, err := svc.Attach(context.Background(), ref, uploads("cbc.pdf"))
		require.Error(t, err, "status %s", status)
		assert.Equal(t, apperrors.CodePrecondition, apperrors.Code(err))
	}
}

func TestAttachWithNoFiles(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusSampleTaken, 50000, 50000, nil)

	_, err := svc.Attach(context.Background(), ref, nil)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.Code(err))
}

func TestRemoveReport(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusSampleTaken, 50000, 50000, nil)

	rec, err := svc.Attach(context.Background(), ref, uploads("a.pdf", "b.pdf"))
	require.NoError(t, err)
	removedPath := rec.Reports[0].StoragePath

	rec, err = svc.Remove(context.Background(), ref, 0)
	require.NoError(t, err)
	require.Len(t, rec.Reports, 1)
	assert.Equal(t, "b.pdf", rec.Reports[0].OriginalName)

	_, err = os.Stat(removedPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveOutOfRangeIndex(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusReported, 50000, 50000,
		model.ReportList{{Filename: "a.pdf", OriginalName: "a.pdf", StoragePath: "/nonexistent/a.pdf"}})

	for _, index := range []int{5, -1, 1} {
		_, err := svc.Remove(context.Background(), ref, index)
		require.Error(t, err, "index %d", index)
		assert.Equal(t, apperrors.CodeNotFound, apperrors.Code(err))
	}
}

func TestRemoveBlockedOnConfirmed(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusConfirmed, 50000, 50000,
		model.ReportList{{Filename: "a.pdf", OriginalName: "a.pdf", StoragePath: "/nonexistent/a.pdf"}})

	_, err := svc.Remove(context.Background(), ref, 0)
	require.Error(t, err)
	assert.Equal(t, apperrors.CodePrecondition, apperrors.Code(err))
}

func TestOpenStreamsStoredFile(t *testing.T) {
	svc, store := newService(t)
	ref := seedOrder(t, store, model.StatusSampleTaken, 50000, 50000, nil)

	_, err := svc.Attach(context.Background(), ref, uploads("cbc.pdf"))
	require.NoError(t, err)

	meta, rc, err := svc.Open(context.Background(), ref, 0)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "cbc.pdf", meta.OriginalName)

	buf := make([]byte, 16)
	n, _ := rc.Read(buf)
	assert.Equal(t, "pdf-bytes", string(buf[:n]))
}
