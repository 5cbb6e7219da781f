package listing

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/middleware"
	"github.com/medilab/lab-api/internal/model"
	queryService "github.com/medilab/lab-api/internal/service/query"
	"github.com/medilab/lab-api/pkg/auth"
	apperrors "github.com/medilab/lab-api/pkg/errors"
	"github.com/medilab/lab-api/pkg/httputil"
)

type Handler struct {
	service *queryService.Service
}

func NewHandler(service *queryService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	records := r.Group("/lab-records")
	{
		records.GET("", h.List)
		records.GET("/categorized", h.Categorized)
	}
}

// RegisterPatientRoutes mounts the patient-facing results view.
func (h *Handler) RegisterPatientRoutes(r *gin.RouterGroup) {
	r.GET("/patients/:id/lab-results", h.PatientResults)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.RecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	items, total, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, items, filters.Page, filters.PageSize, total)
}

func (h *Handler) Categorized(c *gin.Context) {
	var filters model.RecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	buckets, total, err := h.service.Categorize(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, buckets, filters.Page, filters.PageSize, total)
}

// PatientResults returns the patient's confirmed records. A patient may only
// see their own; staff and admins may see any patient's.
func (h *Handler) PatientResults(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid patient id", err))
		return
	}

	if c.GetString(middleware.ContextRole) == auth.RolePatient &&
		c.GetString(middleware.ContextSubjectID) != patientID.String() {
		httputil.RespondWithError(c, apperrors.Forbidden("patients may only view their own results"))
		return
	}

	items, err := h.service.PatientResults(c.Request.Context(), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, items)
}
