package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nexfleet/devicehub/internal/config"
	"github.com/nexfleet/devicehub/internal/handlers"
	"github.com/nexfleet/devicehub/internal/middleware"
	"github.com/nexfleet/devicehub/internal/models"
	"github.com/nexfleet/devicehub/internal/services"
	"github.com/nexfleet/devicehub/internal/store"
	"github.com/nexfleet/devicehub/internal/utils"
)

// newTestApp wires the full route table against the in-memory store.
// Bearer tokens resolve to admin ids directly, so tests authenticate
// with "Bearer <adminId>".
func newTestApp(t *testing.T) (*fiber.App, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	cfg := &config.Config{Port: "3000", StoreType: "memory"}

	auditService := services.NewAuditService(st)
	userService := services.NewUserService(st, auditService)
	deviceService := services.NewDeviceService(st, auditService)
	ticketService := services.NewTicketService(st, auditService)
	adminService := services.NewAdminService(st, auditService)
	assignmentService := services.NewAssignmentService(st, auditService)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return utils.ErrorResponse(c, err)
		},
	})

	userHandler := &handlers.UserHandler{Users: userService, Assignments: assignmentService}
	deviceHandler := &handlers.DeviceHandler{Devices: deviceService}
	ticketHandler := &handlers.TicketHandler{Tickets: ticketService}
	adminHandler := &handlers.AdminHandler{Admins: adminService, Audit: auditService}
	healthHandler := &handlers.HealthHandler{Cfg: cfg, Store: st}

	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())
	api.Get("/health", healthHandler.Check)

	admin := api.Group("/admin", middleware.Protected(st, adminService))

	admin.Get("/users", userHandler.ListUsers)
	admin.Post("/users", userHandler.CreateUser)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Patch("/users/:id", userHandler.UpdateUser)
	admin.Patch("/users/:id/status", userHandler.SetUserStatus)
	admin.Get("/users/:id/tickets", ticketHandler.ListUserTickets)
	admin.Post("/users/:id/devices/:deviceId", userHandler.AssignDevice)
	admin.Delete("/users/:id/devices/:deviceId", userHandler.UnassignDevice)

	admin.Get("/devices", deviceHandler.ListDevices)
	admin.Post("/devices", deviceHandler.RegisterDevice)
	admin.Get("/devices/:id", deviceHandler.GetDevice)
	admin.Patch("/devices/:id", deviceHandler.UpdateDevice)
	admin.Delete("/devices/:id", deviceHandler.DeleteDevice)

	admin.Get("/tickets", ticketHandler.ListTickets)
	admin.Post("/tickets", ticketHandler.CreateTicket)
	admin.Get("/tickets/:id", ticketHandler.GetTicket)
	admin.Patch("/tickets/:id/status", ticketHandler.UpdateTicketStatus)
	admin.Delete("/tickets/:id", ticketHandler.DeleteTicket)

	admin.Get("/admins", adminHandler.ListAdmins)
	admin.Get("/admins/:id", adminHandler.GetAdmin)
	admin.Post("/admins", middleware.RequireSuperAdmin(), adminHandler.CreateAdmin)
	admin.Patch("/admins/:id/status", middleware.RequireSuperAdmin(), adminHandler.SetAdminStatus)

	admin.Get("/audit-logs", adminHandler.ListAuditLogs)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Resource Not Found",
		})
	})

	seedTestAdmin(t, st, "admin1", models.RoleAdmin, models.UserStatusActivated)
	seedTestAdmin(t, st, "root1", models.RoleSuperAdmin, models.UserStatusActivated)
	seedTestAdmin(t, st, "benched", models.RoleAdmin, models.UserStatusDisabled)

	return app, st
}

func seedTestAdmin(t *testing.T, st *store.Memory, id, role, status string) {
	t.Helper()
	now := time.Now().UTC()
	err := st.Create(context.Background(), models.AdminsCollection, id, models.Admin{
		FirstName: "Test",
		LastName:  "Admin",
		Email:     id + "@example.com",
		Role:      role,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("Failed to seed admin %s: %v", id, err)
	}
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request %s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("Failed to decode response %q: %v", raw, err)
		}
	}
	return resp.StatusCode, env
}

func TestAuthRejections(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := doRequest(t, app, http.MethodGet, "/api/admin/users", "", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d (%s)", status, env.Message)
	}

	// Raw header without the Bearer scheme.
	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.Header.Set("Authorization", "admin1")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for malformed header, got %d", resp.StatusCode)
	}

	status, _ = doRequest(t, app, http.MethodGet, "/api/admin/users", "nobody", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for unknown admin, got %d", status)
	}

	status, env = doRequest(t, app, http.MethodGet, "/api/admin/users", "benched", nil)
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for disabled admin, got %d", status)
	}
	if env.Message != "admin account is disabled" {
		t.Errorf("Unexpected message: %q", env.Message)
	}
}

func TestUserEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := doRequest(t, app, http.MethodPost, "/api/admin/users", "admin1", map[string]string{
		"firstName": "Noor",
		"lastName":  "Haddad",
		"email":     "noor@example.com",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d (%s)", status, env.Message)
	}
	var created models.User
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("Failed to decode created user: %v", err)
	}
	if created.ID == "" {
		t.Fatal("Expected created user id in response data")
	}

	status, _ = doRequest(t, app, http.MethodPost, "/api/admin/users", "admin1", map[string]string{
		"lastName": "NoFirstName",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for invalid payload, got %d", status)
	}

	status, env = doRequest(t, app, http.MethodGet, "/api/admin/users/"+created.ID, "admin1", nil)
	if status != fiber.StatusOK {
		t.Errorf("Expected 200, got %d (%s)", status, env.Message)
	}

	status, _ = doRequest(t, app, http.MethodGet, "/api/admin/users/ghost", "admin1", nil)
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404 for missing user, got %d", status)
	}

	status, _ = doRequest(t, app, http.MethodPatch, "/api/admin/users/"+created.ID+"/status", "admin1", map[string]string{
		"status": models.UserStatusDisabled,
		"reason": "left company",
	})
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for disable, got %d", status)
	}
	status, _ = doRequest(t, app, http.MethodPatch, "/api/admin/users/"+created.ID+"/status", "admin1", map[string]string{
		"status": models.UserStatusDisabled,
	})
	if status != fiber.StatusConflict {
		t.Errorf("Expected 409 for repeated disable, got %d", status)
	}
}

func TestAssignmentEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	_, userEnv := doRequest(t, app, http.MethodPost, "/api/admin/users", "admin1", map[string]string{
		"firstName": "Noor",
		"email":     "noor@example.com",
	})
	var user models.User
	if err := json.Unmarshal(userEnv.Data, &user); err != nil {
		t.Fatalf("Failed to decode user: %v", err)
	}

	_, deviceEnv := doRequest(t, app, http.MethodPost, "/api/admin/devices", "admin1", map[string]string{
		"macId":       "00:1B:44:11:3A:B7",
		"description": "lobby sensor",
	})
	var device models.Device
	if err := json.Unmarshal(deviceEnv.Data, &device); err != nil {
		t.Fatalf("Failed to decode device: %v", err)
	}

	link := "/api/admin/users/" + user.ID + "/devices/" + device.ID

	status, env := doRequest(t, app, http.MethodPost, link, "admin1", map[string]string{"reason": "field work"})
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200 for assign, got %d (%s)", status, env.Message)
	}

	status, _ = doRequest(t, app, http.MethodPost, link, "admin1", nil)
	if status != fiber.StatusConflict {
		t.Errorf("Expected 409 for double assign, got %d", status)
	}

	status, env = doRequest(t, app, http.MethodGet, "/api/admin/devices/"+device.ID, "admin1", nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	if err := json.Unmarshal(env.Data, &device); err != nil {
		t.Fatalf("Failed to decode device: %v", err)
	}
	if device.Status != models.DeviceStatusPaired || !device.HasUser(user.ID) {
		t.Errorf("Device not linked after assign: status=%q connectedUsers=%v", device.Status, device.ConnectedUsers)
	}

	status, _ = doRequest(t, app, http.MethodDelete, link, "admin1", nil)
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for unassign, got %d", status)
	}
	status, _ = doRequest(t, app, http.MethodDelete, link, "admin1", nil)
	if status != fiber.StatusConflict {
		t.Errorf("Expected 409 for double unassign, got %d", status)
	}

	status, _ = doRequest(t, app, http.MethodPost, "/api/admin/users/ghost/devices/"+device.ID, "admin1", nil)
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404 for missing user, got %d", status)
	}
}

func TestDeviceEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	status, env := doRequest(t, app, http.MethodPost, "/api/admin/devices", "admin1", map[string]string{
		"macId": "00:1B:44:11:3A:B7",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d (%s)", status, env.Message)
	}
	var device models.Device
	if err := json.Unmarshal(env.Data, &device); err != nil {
		t.Fatalf("Failed to decode device: %v", err)
	}

	status, _ = doRequest(t, app, http.MethodPost, "/api/admin/devices", "admin1", map[string]string{
		"macId": "00:1B:44:11:3A:B7",
	})
	if status != fiber.StatusConflict {
		t.Errorf("Expected 409 for duplicate mac id, got %d", status)
	}

	status, _ = doRequest(t, app, http.MethodPatch, "/api/admin/devices/"+device.ID, "admin1", map[string]string{
		"description": "relabeled",
	})
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for update, got %d", status)
	}

	status, _ = doRequest(t, app, http.MethodDelete, "/api/admin/devices/"+device.ID, "admin1", nil)
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for delete, got %d", status)
	}
	status, _ = doRequest(t, app, http.MethodGet, "/api/admin/devices/"+device.ID, "admin1", nil)
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", status)
	}
}

func TestTicketEndpoints(t *testing.T) {
	app, _ := newTestApp(t)

	_, userEnv := doRequest(t, app, http.MethodPost, "/api/admin/users", "admin1", map[string]string{
		"firstName": "Noor",
		"email":     "noor@example.com",
	})
	var user models.User
	if err := json.Unmarshal(userEnv.Data, &user); err != nil {
		t.Fatalf("Failed to decode user: %v", err)
	}

	status, env := doRequest(t, app, http.MethodPost, "/api/admin/tickets", "admin1", map[string]string{
		"userId":      user.ID,
		"description": "no wifi",
		"issueType":   "network",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d (%s)", status, env.Message)
	}
	var ticket models.Ticket
	if err := json.Unmarshal(env.Data, &ticket); err != nil {
		t.Fatalf("Failed to decode ticket: %v", err)
	}
	if ticket.Status != models.TicketStatusOpen {
		t.Errorf("Expected new ticket to be %q, got %q", models.TicketStatusOpen, ticket.Status)
	}

	status, _ = doRequest(t, app, http.MethodPatch, "/api/admin/tickets/"+ticket.ID+"/status", "admin1", map[string]string{
		"status": "Closed",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for unknown status, got %d", status)
	}

	status, _ = doRequest(t, app, http.MethodPatch, "/api/admin/tickets/"+ticket.ID+"/status", "admin1", map[string]string{
		"status": models.TicketStatusInProgress,
	})
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for status update, got %d", status)
	}

	status, env = doRequest(t, app, http.MethodGet, "/api/admin/users/"+user.ID+"/tickets", "admin1", nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", status)
	}
	var tickets []models.Ticket
	if err := json.Unmarshal(env.Data, &tickets); err != nil {
		t.Fatalf("Failed to decode tickets: %v", err)
	}
	if len(tickets) != 1 {
		t.Errorf("Expected 1 ticket for user, got %d", len(tickets))
	}

	status, _ = doRequest(t, app, http.MethodDelete, "/api/admin/tickets/"+ticket.ID, "admin1", map[string]string{
		"reason": "duplicate",
	})
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for delete, got %d", status)
	}
}

func TestAdminEndpointsRequireSuperAdmin(t *testing.T) {
	app, _ := newTestApp(t)

	payload := map[string]string{
		"id":    "uid-500",
		"email": "new@example.com",
		"role":  models.RoleAdmin,
	}

	status, _ := doRequest(t, app, http.MethodPost, "/api/admin/admins", "admin1", payload)
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for regular admin, got %d", status)
	}

	status, env := doRequest(t, app, http.MethodPost, "/api/admin/admins", "root1", payload)
	if status != fiber.StatusCreated {
		t.Fatalf("Expected 201 for super-admin, got %d (%s)", status, env.Message)
	}

	status, _ = doRequest(t, app, http.MethodPatch, "/api/admin/admins/uid-500/status", "admin1", map[string]string{
		"status": models.UserStatusDisabled,
	})
	if status != fiber.StatusUnauthorized {
		t.Errorf("Expected 401 for regular admin status change, got %d", status)
	}
	status, _ = doRequest(t, app, http.MethodPatch, "/api/admin/admins/uid-500/status", "root1", map[string]string{
		"status": models.UserStatusDisabled,
	})
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for super-admin status change, got %d", status)
	}

	// Read endpoints stay open to any active admin.
	status, _ = doRequest(t, app, http.MethodGet, "/api/admin/admins", "admin1", nil)
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for admin list, got %d", status)
	}
}

func TestAuditLogEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	doRequest(t, app, http.MethodPost, "/api/admin/users", "admin1", map[string]string{
		"firstName": "Noor",
		"email":     "noor@example.com",
	})

	status, env := doRequest(t, app, http.MethodGet, "/api/admin/audit-logs", "admin1", nil)
	if status != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d (%s)", status, env.Message)
	}
	var logs []models.AuditLog
	if err := json.Unmarshal(env.Data, &logs); err != nil {
		t.Fatalf("Failed to decode audit logs: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != "User Created" {
		t.Errorf("Unexpected audit logs: %+v", logs)
	}
	if logs[0].PerformedBy != "Test Admin (admin1@example.com)" {
		t.Errorf("Unexpected performedBy: %q", logs[0].PerformedBy)
	}
}

func TestHealthAndFallback(t *testing.T) {
	app, _ := newTestApp(t)

	status, _ := doRequest(t, app, http.MethodGet, "/api/health", "", nil)
	if status != fiber.StatusOK {
		t.Errorf("Expected 200 for health, got %d", status)
	}

	status, env := doRequest(t, app, http.MethodGet, "/api/nope", "", nil)
	if status != fiber.StatusNotFound {
		t.Errorf("Expected 404 fallback, got %d", status)
	}
	if env.Message != "Resource Not Found" {
		t.Errorf("Unexpected fallback message: %q", env.Message)
	}
}
