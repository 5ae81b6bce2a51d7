package handlers

import (
	"github.com/gin-gonic/gin"

	"watermap-api/helper"
	"watermap-api/models"
	"watermap-api/services"
)

type AdminHandler struct {
	waterObjectService services.WaterObjectService
	adminService       services.AdminService
	Helper             *helper.HTTPHelper
}

func NewAdminHandler(waterObjectService services.WaterObjectService, adminService services.AdminService, h *helper.HTTPHelper) *AdminHandler {
	return &AdminHandler{
		waterObjectService: waterObjectService,
		adminService:       adminService,
		Helper:             h,
	}
}

func (h *AdminHandler) GetPending(c *gin.Context) {
	pending, err := h.waterObjectService.ListPending()
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Pending submissions loaded", gin.H{"pending": pending})
}

func (h *AdminHandler) GetPendingDiff(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid object ID", h.Helper.EmptyJsonMap())
		return
	}

	diff, err := h.waterObjectService.GetDiff(id)
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Diff loaded", diff)
}

func (h *AdminHandler) ApproveWaterObject(c *gin.Context) {
	reviewerID, _ := c.Get("user_id")

	id, err := parseID(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid object ID", h.Helper.EmptyJsonMap())
		return
	}

	// Notes are optional; an empty body is fine.
	var req models.ApproveRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.waterObjectService.Approve(id, reviewerID.(uint), req.Notes); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Object approved and published successfully", h.Helper.EmptyJsonMap())
}

func (h *AdminHandler) RejectWaterObject(c *gin.Context) {
	reviewerID, _ := c.Get("user_id")

	id, err := parseID(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid object ID", h.Helper.EmptyJsonMap())
		return
	}

	var req models.RejectRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.waterObjectService.Reject(id, reviewerID.(uint), req.Reason); err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Object rejected successfully", h.Helper.EmptyJsonMap())
}

func (h *AdminHandler) GetUsers(c *gin.Context) {
	users, err := h.adminService.ListUsers()
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Users loaded", gin.H{"users": users})
}

func (h *AdminHandler) UpdateUserRole(c *gin.Context) {
	actorID, _ := c.Get("user_id")

	id, err := parseID(c.Param("id"))
	if err != nil {
		h.Helper.SendBadRequest(c, "Invalid user ID", h.Helper.EmptyJsonMap())
		return
	}

	var req models.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Helper.SendBadRequest(c, err.Error(), h.Helper.EmptyJsonMap())
		return
	}

	user, err := h.adminService.UpdateUserRole(id, req.Role, actorID.(uint))
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Role updated successfully", user)
}

func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.Stats()
	if err != nil {
		h.Helper.SendServiceError(c, err)
		return
	}

	h.Helper.SendSuccess(c, "Stats loaded", stats)
}
