package prescription

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medilab/lab-api/internal/model"
	orderService "github.com/medilab/lab-api/internal/service/order"
	apperrors "github.com/medilab/lab-api/pkg/errors"
	"github.com/medilab/lab-api/pkg/httputil"
)

type Handler struct {
	service *orderService.Service
}

func NewHandler(service *orderService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tests := r.Group("/prescription-tests")
	{
		tests.POST("", h.Create)
		tests.GET("", h.List)
		tests.GET("/:id", h.Get)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreatePrescriptionTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	test, err := h.service.CreatePrescriptionTest(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, test)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid prescription test id", err))
		return
	}

	test, err := h.service.GetPrescriptionTest(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, test)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.RecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	tests, total, err := h.service.ListPrescriptionTests(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, tests, filters.Page, filters.PageSize, total)
}
