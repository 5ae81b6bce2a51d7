package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"watermap-api/helper"
	"watermap-api/models"
	"watermap-api/services"
)

// CatalogHandler serves the public read path. Responses are plain GeoJSON
// rather than the envelope, so map clients can consume them directly.
type CatalogHandler struct {
	catalogService services.CatalogService
	Helper         *helper.HTTPHelper
}

func NewCatalogHandler(catalogService services.CatalogService, h *helper.HTTPHelper) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, Helper: h}
}

func (h *CatalogHandler) GetWaterObjects(c *gin.Context) {
	objectType := models.ObjectType(c.Query("type"))

	fc, err := h.catalogService.ListPublished(objectType)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, fc)
}

func (h *CatalogHandler) GetWaterObject(c *gin.Context) {
	canonicalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Helper.SendNotFoundError(c, "Water object not found", h.Helper.EmptyJsonMap())
		return
	}

	feature, err := h.catalogService.GetPublished(canonicalID)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feature)
}
