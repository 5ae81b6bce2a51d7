package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"watermap-api/helper"
	"watermap-api/models"
	"watermap-api/services"
)

type WaterObjectHandler struct {
	waterObjectService services.WaterObjectService
	Helper             *helper.HTTPHelper
}

func NewWaterObjectHandler(waterObjectService services.WaterObjectService, h *helper.HTTPHelper) *WaterObjectHandler {
	return &WaterObjectHandler{waterObjectService: waterObjectService, Helper: h}
}

func (h *WaterObjectHandler) CreateWaterObject(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req models.CreateWaterObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, err.Error(), h.Helper.EmptyJsonMap())
		return
	}

	obj, err := h.waterObjectService.Create(req, userID.(uint))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Draft created successfully", obj)
}

func (h *WaterObjectHandler) UpdateWaterObject(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")

	id, err := parseID(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid object ID", h.Helper.EmptyJsonMap())
		return
	}

	var req models.UpdateWaterObjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, err.Error(), h.Helper.EmptyJsonMap())
		return
	}

	obj, err := h.waterObjectService.Update(id, req, userID.(uint), models.UserRole(role.(string)))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Draft updated successfully", obj)
}

func (h *WaterObjectHandler) SubmitWaterObject(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")

	id, err := parseID(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid object ID", h.Helper.EmptyJsonMap())
		return
	}

	if err := h.waterObjectService.Submit(id, userID.(uint), models.UserRole(role.(string))); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Submitted for review successfully", h.Helper.EmptyJsonMap())
}

func (h *WaterObjectHandler) DeleteWaterObject(c *gin.Context) {
	userID, _ := c.Get("user_id")
	role, _ := c.Get("role")

	id, err := parseID(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid object ID", h.Helper.EmptyJsonMap())
		return
	}

	if err := h.waterObjectService.Delete(id, userID.(uint), models.UserRole(role.(string))); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Draft deleted successfully", h.Helper.EmptyJsonMap())
}

func (h *WaterObjectHandler) CreateRevision(c *gin.Context) {
	userID, _ := c.Get("user_id")

	id, err := parseID(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid object ID", h.Helper.EmptyJsonMap())
		return
	}

	revision, err := h.waterObjectService.CreateRevision(id, userID.(uint))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Revision draft created successfully", revision)
}

// GetMyWaterObjects lists the caller's own submissions. By default returns
// everything still in the editorial pipeline.
func (h *WaterObjectHandler) GetMyWaterObjects(c *gin.Context) {
	userID, _ := c.Get("user_id")

	statuses := []models.ObjectStatus{models.StatusDraft, models.StatusPending, models.StatusRejected}
	if raw := c.Query("status"); raw != "" {
		statuses = statuses[:0]
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, models.ObjectStatus(strings.TrimSpace(s)))
		}
	}

	objects, err := h.waterObjectService.ListByOwner(userID.(uint), statuses)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Drafts loaded", gin.H{"drafts": objects})
}

func (h *WaterObjectHandler) GetHistory(c *gin.Context) {
	canonicalID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid canonical ID", h.Helper.EmptyJsonMap())
		return
	}

	history, err := h.waterObjectService.History(canonicalID)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "History loaded", gin.H{"history": history})
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}
