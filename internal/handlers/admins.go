package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexfleet/devicehub/internal/middleware"
	"github.com/nexfleet/devicehub/internal/services"
	"github.com/nexfleet/devicehub/internal/utils"
)

// AdminHandler handles admin account and audit log routes
type AdminHandler struct {
	Admins *services.AdminService
	Audit  *services.AuditService
}

// ListAdmins handles GET /api/admin/admins
// @Summary List admins
// @Tags Admins
// @Produce json
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 401 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/admins [get]
func (h *AdminHandler) ListAdmins(c *fiber.Ctx) error {
	admins, err := h.Admins.List(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Admins retrieved", admins)
}

// GetAdmin handles GET /api/admin/admins/:id
// @Summary Get an admin
// @Tags Admins
// @Produce json
// @Param id path string true "Admin ID"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/admins/{id} [get]
func (h *AdminHandler) GetAdmin(c *fiber.Ctx) error {
	admin, err := h.Admins.Get(c.Context(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Admin retrieved", admin)
}

// CreateAdmin handles POST /api/admin/admins (super-admin only)
// @Summary Create an admin
// @Tags Admins
// @Accept json
// @Produce json
// @Param body body services.CreateAdminInput true "Admin fields"
// @Success 201 {object} utils.SuccessEnvelope
// @Failure 400 {object} utils.ErrorEnvelope
// @Failure 409 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/admins [post]
func (h *AdminHandler) CreateAdmin(c *fiber.Ctx) error {
	var in services.CreateAdminInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	admin, err := h.Admins.Create(c.Context(), in, middleware.ActorFrom(c))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Admin created", admin)
}

// SetAdminStatus handles PATCH /api/admin/admins/:id/status (super-admin only)
// @Summary Activate or disable an admin
// @Tags Admins
// @Accept json
// @Produce json
// @Param id path string true "Admin ID"
// @Param body body statusRequest true "Target status and optional reason"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 400 {object} utils.ErrorEnvelope
// @Failure 409 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/admins/{id}/status [patch]
func (h *AdminHandler) SetAdminStatus(c *fiber.Ctx) error {
	var in statusRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	admin, err := h.Admins.SetStatus(c.Context(), c.Params("id"), in.Status, middleware.ActorFrom(c), in.Reason)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Admin status updated", admin)
}

// ListAuditLogs handles GET /api/admin/audit-logs
// @Summary List audit records, newest first
// @Tags Audit
// @Produce json
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 401 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/audit-logs [get]
func (h *AdminHandler) ListAuditLogs(c *fiber.Ctx) error {
	logs, err := h.Audit.List(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Audit logs retrieved", logs)
}
