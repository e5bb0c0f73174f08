package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/veriport/bgv-api/internal/models"
	"github.com/veriport/bgv-api/pkg/response"
)

type schemaService interface {
	List(ctx context.Context) ([]models.ServiceFormSchema, error)
	Get(ctx context.Context, serviceID string) (*models.ServiceFormSchema, error)
}

// SchemaHandler exposes the read-only service form schemas.
type SchemaHandler struct {
	service schemaService
}

// NewSchemaHandler builds a new handler.
func NewSchemaHandler(service schemaService) *SchemaHandler {
	return &SchemaHandler{service: service}
}

// List godoc
// @Summary List service form schemas
// @Tags Schemas
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /service-schemas [get]
func (h *SchemaHandler) List(c *gin.Context) {
	schemas, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schemas, nil)
}

// Get godoc
// @Summary Get one service form schema
// @Tags Schemas
// @Produce json
// @Param serviceId path string true "Service ID"
// @Success 200 {object} response.Envelope
// @Router /service-schemas/{serviceId} [get]
func (h *SchemaHandler) Get(c *gin.Context) {
	schema, err := h.service.Get(c.Request.Context(), c.Param("serviceId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schema, nil)
}
