package record_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	recordHandler "github.com/medilab/lab-api/internal/handler/record"
	"github.com/medilab/lab-api/internal/model"
	"github.com/medilab/lab-api/internal/repository/memory"
	ledgerService "github.com/medilab/lab-api/internal/service/ledger"
	lifecycleService "github.com/medilab/lab-api/internal/service/lifecycle"
	reportService "github.com/medilab/lab-api/internal/service/report"
	"github.com/medilab/lab-api/pkg/validator"
)

func newServer(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.RegisterBindingRules()

	store := memory.NewStore()
	files, err := reportService.NewDiskStore(t.TempDir())
	require.NoError(t, err)

	h := recordHandler.NewHandler(
		lifecycleService.NewService(store, nil, nil, zerolog.Nop()),
		ledgerService.NewService(store, store, nil, zerolog.Nop()),
		reportService.NewService(store, files, nil, zerolog.Nop()),
	)

	engine := gin.New()
	api := engine.Group("/api/v1")
	h.RegisterRoutes(api.Group("/lab-orders"), model.KindLabOrder)
	h.RegisterRoutes(api.Group("/prescription-tests"), model.KindPrescriptionTest)
	return engine, store
}

func seedOrder(t *testing.T, store *memory.Store, status model.Status, totalCents, paidCents int64) uuid.UUID {
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
	return order.ID
}

func doJSON(t *testing.T, engine *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestStatusUpdateEndpoint(t *testing.T) {
	engine, store := newServer(t)
	id := seedOrder(t, store, model.StatusOrdered, 100000, 0)

	w := doJSON(t, engine, http.MethodPut, "/api/v1/lab-orders/"+id.String()+"/status",
		gin.H{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "approved", resp.Data.Status)
}

func TestInsufficientPaymentMapsTo402(t *testing.T) {
	engine, store := newServer(t)
	id := seedOrder(t, store, model.StatusApproved, 100000, 40000)

	w := doJSON(t, engine, http.MethodPut, "/api/v1/lab-orders/"+id.String()+"/status",
		gin.H{"status": "sample_processing"})
	require.Equal(t, http.StatusPaymentRequired, w.Code)

	var resp struct {
		Error struct {
			Details struct {
				RequiredCents int64 `json:"required_cents"`
				PaidCents     int64 `json:"paid_cents"`
			} `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(50000), resp.Error.Details.RequiredCents)
	assert.Equal(t, int64(40000), resp.Error.Details.PaidCents)
}

func TestInvalidTransitionMapsTo422(t *testing.T) {
	engine, store := newServer(t)
	id := seedOrder(t, store, model.StatusOrdered, 100000, 0)

	w := doJSON(t, engine, http.MethodPut, "/api/v1/lab-orders/"+id.String()+"/status",
		gin.H{"status": "sample_taken"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestUnknownRecordMapsTo404(t *testing.T) {
	engine, _ := newServer(t)

	w := doJSON(t, engine, http.MethodPut, "/api/v1/lab-orders/"+uuid.NewString()+"/status",
		gin.H{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentEndpoint(t *testing.T) {
	engine, store := newServer(t)
	id := seedOrder(t, store, model.StatusApproved, 100000, 0)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/lab-orders/"+id.String()+"/payments",
		gin.H{"amount_cents": 50000, "payment_method": "cash"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Record struct {
				PaidCents int64 `json:"paid_cents"`
			} `json:"record"`
			Payment struct {
				Method string `json:"method"`
			} `json:"payment"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(50000), resp.Data.Record.PaidCents)
	assert.Equal(t, "cash", resp.Data.Payment.Method)

	// Listing shows the ledger entry.
	w = doJSON(t, engine, http.MethodGet, "/api/v1/lab-orders/"+id.String()+"/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestOverpaymentMapsTo400(t *testing.T) {
	engine, store := newServer(t)
	id := seedOrder(t, store, model.StatusApproved, 100000, 90000)

	w := doJSON(t, engine, http.MethodPost, "/api/v1/lab-orders/"+id.String()+"/payments",
		gin.H{"amount_cents": 20000, "payment_method": "cash"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReportUploadFlow(t *testing.T) {
	engine, store := newServer(t)
	id := seedOrder(t, store, model.StatusSampleTaken, 50000, 50000)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("files", "cbc.pdf")
	require.NoError(t, err)
	_, err = fw.Write([]byte("pdf-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/lab-orders/"+id.String()+"/reports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			Status  string             `json:"status"`
			Reports []model.TestReport `json:"test_reports"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "reported", resp.Data.Status)
	require.Len(t, resp.Data.Reports, 1)

	// Confirm, then a repeat confirm is rejected.
	w = doJSON(t, engine, http.MethodPost, "/api/v1/lab-orders/"+id.String()+"/reports/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, engine, http.MethodPost, "/api/v1/lab-orders/"+id.String()+"/reports/confirm", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	// Removing a file from a confirmed record is blocked until revert.
	w = doJSON(t, engine, http.MethodDelete, "/api/v1/lab-orders/"+id.String()+"/reports/0", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, engine, http.MethodPost, "/api/v1/lab-orders/"+id.String()+"/reports/revert", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, engine, http.MethodDelete, "/api/v1/lab-orders/"+id.String()+"/reports/0", nil)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestPrescriptionTestSharesLifecycle(t *testing.T) {
	engine, store := newServer(t)
	test := &model.PrescriptionLabTest{
		PrescriptionID: uuid.New(),
		TestID:         uuid.New(),
		TestName:       "CBC",
		PatientID:      uuid.New(),
		PatientName:    "Karima Begum",
		DoctorID:       uuid.New(),
		Status:         model.StatusOrdered,
		TotalCents:     40000,
		TestReports:    model.ReportList{},
	}
	require.NoError(t, store.CreatePrescriptionTest(context.Background(), test))

	w := doJSON(t, engine, http.MethodPut, "/api/v1/prescription-tests/"+test.ID.String()+"/status",
		gin.H{"status": "approved"})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The same id is not addressable through the other family's routes.
	w = doJSON(t, engine, http.MethodPut, "/api/v1/lab-orders/"+test.ID.String()+"/status",
		gin.H{"status": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
