package catalog

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogService "github.com/medilab/lab-api/internal/service/catalog"
	apperrors "github.com/medilab/lab-api/pkg/errors"
	"github.com/medilab/lab-api/pkg/httputil"
)

type Handler struct {
	service *catalogService.Service
}

func NewHandler(service *catalogService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	tests := r.Group("/lab-tests")
	{
		tests.GET("", h.ListActive)
		tests.GET("/:id", h.Get)
	}
}

func (h *Handler) ListActive(c *gin.Context) {
	tests, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tests)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid lab test id", err))
		return
	}

	test, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, test)
}
