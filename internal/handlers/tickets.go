package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/nexfleet/devicehub/internal/middleware"
	"github.com/nexfleet/devicehub/internal/services"
	"github.com/nexfleet/devicehub/internal/utils"
)

// TicketHandler handles support ticket routes
type TicketHandler struct {
	Tickets *services.TicketService
}

type createTicketRequest struct {
	UserID      string `json:"userId"`
	Description string `json:"description"`
	IssueType   string `json:"issueType"`
	Notes       string `json:"notes"`
}

type ticketStatusRequest struct {
	Status string `json:"status"`
}

// ListTickets handles GET /api/admin/tickets
// @Summary List tickets
// @Tags Tickets
// @Produce json
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 401 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/tickets [get]
func (h *TicketHandler) ListTickets(c *fiber.Ctx) error {
	tickets, err := h.Tickets.List(c.Context())
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Tickets retrieved", tickets)
}

// ListUserTickets handles GET /api/admin/users/:id/tickets
// @Summary List tickets owned by a user
// @Tags Tickets
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 401 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/users/{id}/tickets [get]
func (h *TicketHandler) ListUserTickets(c *fiber.Ctx) error {
	tickets, err := h.Tickets.ListByUser(c.Context(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Tickets retrieved", tickets)
}

// GetTicket handles GET /api/admin/tickets/:id
// @Summary Get a ticket
// @Tags Tickets
// @Produce json
// @Param id path string true "Ticket ID"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/tickets/{id} [get]
func (h *TicketHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.Tickets.Get(c.Context(), c.Params("id"))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Ticket retrieved", ticket)
}

// CreateTicket handles POST /api/admin/tickets
// @Summary Open a ticket for a user
// @Tags Tickets
// @Accept json
// @Produce json
// @Param body body createTicketRequest true "Ticket fields"
// @Success 201 {object} utils.SuccessEnvelope
// @Failure 400 {object} utils.ErrorEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/tickets [post]
func (h *TicketHandler) CreateTicket(c *fiber.Ctx) error {
	var in createTicketRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	ticket, err := h.Tickets.Create(c.Context(), in.UserID, in.Description, in.IssueType, in.Notes)
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, "Ticket created", ticket)
}

// UpdateTicketStatus handles PATCH /api/admin/tickets/:id/status
// @Summary Move a ticket through its lifecycle
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param body body ticketStatusRequest true "Target status"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 400 {object} utils.ErrorEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/tickets/{id}/status [patch]
func (h *TicketHandler) UpdateTicketStatus(c *fiber.Ctx) error {
	var in ticketStatusRequest
	if err := c.BodyParser(&in); err != nil {
		return utils.ErrorResponse(c, fiber.NewError(fiber.StatusBadRequest, "invalid request body"))
	}

	ticket, err := h.Tickets.UpdateStatus(c.Context(), c.Params("id"), in.Status, middleware.ActorFrom(c))
	if err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Ticket status updated", ticket)
}

// DeleteTicket handles DELETE /api/admin/tickets/:id
// @Summary Delete a ticket
// @Tags Tickets
// @Accept json
// @Produce json
// @Param id path string true "Ticket ID"
// @Param body body deleteRequest false "Optional reason"
// @Success 200 {object} utils.SuccessEnvelope
// @Failure 404 {object} utils.ErrorEnvelope
// @Security BearerAuth
// @Router /admin/tickets/{id} [delete]
func (h *TicketHandler) DeleteTicket(c *fiber.Ctx) error {
	reason := ""
	if len(c.Body()) > 0 {
		var in deleteRequest
		if err := c.BodyParser(&in); err == nil {
			reason = in.Reason
		}
	}

	if err := h.Tickets.Delete(c.Context(), c.Params("id"), middleware.ActorFrom(c), reason); err != nil {
		return utils.ErrorResponse(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, "Ticket deleted", nil)
}
