// Package record exposes the shared lifecycle operations. The same handler
// mounts under both /lab-orders and /prescription-tests; the record kind is
// fixed per mount so URLs stay family-scoped.
package record

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/middleware"
	"github.com/medilab/lab-api/internal/model"
	ledgerService "github.com/medilab/lab-api/internal/service/ledger"
	lifecycleService "github.com/medilab/lab-api/internal/service/lifecycle"
	reportService "github.com/medilab/lab-api/internal/service/report"
	apperrors "github.com/medilab/lab-api/pkg/errors"
	"github.com/medilab/lab-api/pkg/httputil"
)

// Keeps a single upload from exhausting memory before it hits disk.
const maxReportSize = 25 << 20

type Handler struct {
	lifecycle *lifecycleService.Service
	ledger    *ledgerService.Service
	reports   *reportService.Service
}

func NewHandler(lifecycle *lifecycleService.Service, ledger *ledgerService.Service, reports *reportService.Service) *Handler {
	return &Handler{lifecycle: lifecycle, ledger: ledger, reports: reports}
}

// RegisterRoutes mounts the lifecycle operations for one record family.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, kind model.RecordKind) {
	r.PUT("/:id/status", h.updateStatus(kind))
	r.POST("/:id/payments", h.recordPayment(kind))
	r.GET("/:id/payments", h.listPayments(kind))
	r.POST("/:id/reports", h.attachReports(kind))
	r.POST("/:id/reports/confirm", h.confirm(kind))
	r.POST("/:id/reports/revert", h.revert(kind))
	r.GET("/:id/reports/:index", h.downloadReport(kind))
	r.DELETE("/:id/reports/:index", h.removeReport(kind))
}

func refParam(c *gin.Context, kind model.RecordKind) (model.RecordRef, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid record id", err))
		return model.RecordRef{}, false
	}
	return model.RecordRef{Kind: kind, ID: id}, true
}

func (h *Handler) updateStatus(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := refParam(c, kind)
		if !ok {
			return
		}

		var req model.UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
			return
		}

		rec, err := h.lifecycle.Transition(c.Request.Context(), ref, &req)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, rec)
	}
}

func (h *Handler) recordPayment(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := refParam(c, kind)
		if !ok {
			return
		}

		var req model.RecordPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
			return
		}

		rec, payment, err := h.ledger.RecordPayment(c.Request.Context(), ref, &req, staffID(c))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithCreated(c, gin.H{"record": rec, "payment": payment})
	}
}

func (h *Handler) listPayments(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := refParam(c, kind)
		if !ok {
			return
		}

		payments, err := h.ledger.ListPayments(c.Request.Context(), ref)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, payments)
	}
}

func (h *Handler) attachReports(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := refParam(c, kind)
		if !ok {
			return
		}

		form, err := c.MultipartForm()
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid multipart form", err))
			return
		}
		files := form.File["files"]
		if len(files) == 0 {
			httputil.RespondWithError(c, apperrors.Validation("at least one file is required", nil))
			return
		}

		uploads := make([]reportService.Upload, 0, len(files))
		closers := make([]interface{ Close() error }, 0, len(files))
		defer func() {
			for _, cl := range closers {
				cl.Close()
			}
		}()
		for _, fh := range files {
			if fh.Size > maxReportSize {
				httputil.RespondWithError(c, apperrors.Validation("file "+fh.Filename+" exceeds the size limit", nil))
				return
			}
			f, err := fh.Open()
			if err != nil {
				httputil.RespondWithError(c, apperrors.Internal(err))
				return
			}
			closers = append(closers, f)
			uploads = append(uploads, reportService.Upload{OriginalName: fh.Filename, Content: f})
		}

		rec, err := h.reports.Attach(c.Request.Context(), ref, uploads)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, rec)
	}
}

func (h *Handler) confirm(kind model.RecordKind) gin.HandlerFunc {
	return h.transitionTo(kind, model.StatusConfirmed)
}

// revert undoes a premature confirmation so files can be corrected.
func (h *Handler) revert(kind model.RecordKind) gin.HandlerFunc {
	return h.transitionTo(kind, model.StatusReported)
}

func (h *Handler) transitionTo(kind model.RecordKind, to model.Status) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := refParam(c, kind)
		if !ok {
			return
		}

		rec, err := h.lifecycle.Transition(c.Request.Context(), ref, &model.UpdateStatusRequest{Status: to})
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, rec)
	}
}

func (h *Handler) downloadReport(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := refParam(c, kind)
		if !ok {
			return
		}
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid report index", err))
			return
		}

		report, rc, err := h.reports.Open(c.Request.Context(), ref, index)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		defer rc.Close()

		c.Header("Content-Disposition", `attachment; filename="`+report.OriginalName+`"`)
		c.DataFromReader(http.StatusOK, -1, "application/octet-stream", rc, nil)
	}
}

func (h *Handler) removeReport(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		ref, ok := refParam(c, kind)
		if !ok {
			return
		}
		index, err := strconv.Atoi(c.Param("index"))
		if err != nil {
			httputil.RespondWithError(c, apperrors.Validation("invalid report index", err))
			return
		}

		rec, err := h.reports.Remove(c.Request.Context(), ref, index)
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		httputil.RespondWithSuccess(c, rec)
	}
}

// staffID returns the authenticated staff id, nil for unauthenticated
// callers on routes that allow them.
func staffID(c *gin.Context) *uuid.UUID {
	raw := c.GetString(middleware.ContextSubjectID)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil
	}
	return &id
}
