package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexfleet/devicehub/internal/middleware"
	"github.com/nexfleet/devicehub/internal/services"
	"github.com/nexfleet/devicehub/internal/utils"
)

// DeviceHandler handles device routes
type DeviceHandler struct {
	Devices *services.DeviceService
}

type registerDeviceRequest struct {
	MacID       string `json:"macId"`
	Description string `json:"description"`
}

type updateDeviceRequest struct {
	Description string `json:"description"`
}

type deleteRequest struct {
	Reason string `json:"reason"`
}

// ListDevices handles GET /api/admin/devices
// @Summary List devices
// @Tags Devices
// @Produce json
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 401 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/devices [get]
func (h *DeviceHandler) ListDevices(c *fiber.Ctx) error {
	devices, err := h.Devices.List(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Devices retrieved", devices)
}

// GetDevice handles GET /api/admin/devices/:id
// @Summary Get a device
// @Tags Devices
// @Produce json
// @Param id path string true "Device ID"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/devices/{id} [get]
func (h *DeviceHandler) GetDevice(c *fiber.Ctx) error {
	device, err := h.Devices.Get(c.Context(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Device retrieved", device)
}

// RegisterDevice handles POST /api/admin/devices
// @Summary Register a device
// @Tags Devices
// @Accept json
// @Produce json
// @Param body body registerDeviceRequest true "Device fields"
// @Success 201 {object} utils.SuccessEnvelope
// @Failure 400 {object} utils.ErrorEnvelope
// @Failure 409 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/devices [post]
func (h *DeviceHandler) RegisterDevice(c *fiber.Ctx) error {
	var in registerDeviceRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	device, err := h.Devices.Register(c.Context(), in.MacID, in.Description, middleware.ActorFrom(c))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Device registered", device)
}

// UpdateDevice handles PATCH /api/admin/devices/:id
// @Summary Update a device description
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param body body updateDeviceRequest true "Fields to update"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/devices/{id} [patch]
func (h *DeviceHandler) UpdateDevice(c *fiber.Ctx) error {
	var in updateDeviceRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	device, err := h.Devices.Update(c.Context(), c.Params("id"), in.Description, middleware.ActorFrom(c))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Device updated", device)
}

// DeleteDevice handles DELETE /api/admin/devices/:id
// @Summary Delete a device
// @Tags Devices
// @Accept json
// @Produce json
// @Param id path string true "Device ID"
// @Param body body deleteRequest false "Optional reason"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/devices/{id} [delete]
func (h *DeviceHandler) DeleteDevice(c *fiber.Ctx) error {
	reason := ""
	if len(c.Body()) > 0 {
		var in deleteRequest
		if err := c.BodyParser(&in); err == nil {
			reason = in.Reason
		}
	}

	if err := h.Devices.Delete(c.Context(), c.Params("id"), middleware.ActorFrom(c), reason); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Device deleted", nil)
}
