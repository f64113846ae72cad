package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexfleet/devicehub/internal/middleware"
	"github.com/nexfleet/devicehub/internal/services"
	"github.com/nexfleet/devicehub/internal/utils"
)

// UserHandler handles user routes including device assignment
type UserHandler struct {
	Users       *services.UserService
	Assignments *services.AssignmentService
}

// ListUsers handles GET /api/admin/users
// @Summary List users
// @Tags Users
// @Produce json
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 401 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.Users.List(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Users retrieved", users)
}

// GetUser handles GET /api/admin/users/:id
// @Summary Get a user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	user, err := h.Users.Get(c.Context(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User retrieved", user)
}

// CreateUser handles POST /api/admin/users
// @Summary Create a user
// @Tags Users
// @Accept json
// @Produce json
// @Param body body services.CreateUserInput true "User fields"
// @Success 201 {object} utils.SuccessEnvelope
// @Failure 400 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var in services.CreateUserInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	user, err := h.Users.Create(c.Context(), in, middleware.ActorFrom(c))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "User created", user)
}

// UpdateUser handles PATCH /api/admin/users/:id
// @Summary Update user profile fields
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body services.UpdateUserInput true "Fields to update"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/users/{id} [patch]
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	var in services.UpdateUserInput
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	user, err := h.Users.Update(c.Context(), c.Params("id"), in, middleware.ActorFrom(c))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User updated", user)
}

type statusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// SetUserStatus handles PATCH /api/admin/users/:id/status
// @Summary Activate or disable a user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param body body statusRequest true "Target status and optional reason"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 400 {object} utils.ErrorEnvelope
// @Failure 409 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/users/{id}/status [patch]
func (h *UserHandler) SetUserStatus(c *fiber.Ctx) error {
	var in statusRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	user, err := h.Users.SetStatus(c.Context(), c.Params("id"), in.Status, middleware.ActorFrom(c), in.Reason)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "User status updated", user)
}

type assignRequest struct {
	Reason string `json:"reason"`
}

func parseReason(c *fiber.Ctx) string {
	if len(c.Body()) == 0 {
		return ""
	}
	var in assignRequest
	if err := c.BodyParser(&in); err != nil {
		return ""
	}
	return in.Reason
}

// AssignDevice handles POST /api/admin/users/:id/devices/:deviceId
// @Summary Assign a device to a user
// @Tags Assignment
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param deviceId path string true "Device ID"
// @Param body body assignRequest false "Optional reason"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Failure 409 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/users/{id}/devices/{deviceId} [post]
func (h *UserHandler) AssignDevice(c *fiber.Ctx) error {
	err := h.Assignments.Assign(c.Context(), c.Params("id"), c.Params("deviceId"),
		middleware.ActorFrom(c), parseReason(c))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Device assigned", nil)
}

// UnassignDevice handles DELETE /api/admin/users/:id/devices/:deviceId
// @Summary Unassign a device from a user
// @Tags Assignment
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param deviceId path string true "Device ID"
// @Param body body assignRequest false "Optional reason"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Failure 409 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/users/{id}/devices/{deviceId} [delete]
func (h *UserHandler) UnassignDevice(c *fiber.Ctx) error {
	err := h.Assignments.Unassign(c.Context(), c.Params("id"), c.Params("deviceId"),
		middleware.ActorFrom(c), parseReason(c))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Device unassigned", nil)
}
