package laborder

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
	orders := r.Group("/lab-orders")
	{
		orders.POST("", h.Create)
		orders.GET("", h.List)
		orders.GET("/:id", h.Get)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateLabOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	order, err := h.service.CreateLabOrder(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, order)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid lab order id", err))
		return
	}

	order, err := h.service.GetLabOrder(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, order)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.RecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		httputil.RespondWithError(c, apperrors.Validation(err.Error(), err))
		return
	}

	orders, total, err := h.service.ListLabOrders(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithPagination(c, orders, filters.Page, filters.PageSize, total)
}
