package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"
	"github.com/joho/godotenv"

	"github.com/nexfleet/devicehub/internal/apperr"
	"github.com/nexfleet/devicehub/internal/config"
	"github.com/nexfleet/devicehub/internal/handlers"
	"github.com/nexfleet/devicehub/internal/middleware"
	"github.com/nexfleet/devicehub/internal/services"
	"github.com/nexfleet/devicehub/internal/store"

	_ "github.com/nexfleet/devicehub/docs/api" // Swagger docs
)

// @title DeviceHub API
// @version 1.0.0
// @description IoT device-management backend: users, devices, tickets, admins, audit log
// @contact.name API Support
// @contact.url https://github.com/nexfleet/devicehub

// @host localhost:3000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to the document store
	ctx := context.Background()
	st, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	defer st.Close()

	verifier, ok := st.(store.TokenVerifier)
	if !ok {
		log.Fatalf("Store backend %q does not support token verification", cfg.StoreType)
	}

	// Create services
	auditService := services.NewAuditService(st)
	userService := services.NewUserService(st, auditService)
	deviceService := services.NewDeviceService(st, auditService)
	ticketService := services.NewTicketService(st, auditService)
	adminService := services.NewAdminService(st, auditService)
	assignmentService := services.NewAssignmentService(st, auditService)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("devicehub")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Create handlers
	userHandler := &handlers.UserHandler{Users: userService, Assignments: assignmentService}
	deviceHandler := &handlers.DeviceHandler{Devices: deviceService}
	ticketHandler := &handlers.TicketHandler{Tickets: ticketService}
	adminHandler := &handlers.AdminHandler{Admins: adminService, Audit: auditService}
	healthHandler := &handlers.HealthHandler{Cfg: cfg, Store: st}

	// API routes under /api
	api := app.Group("/api")
	api.Use(middleware.VersionMiddleware())
	api.Get("/health", healthHandler.Check)

	// Admin portal routes (all require a verified admin bearer token)
	admin := api.Group("/admin", middleware.Protected(verifier, adminService))

	admin.Get("/users", userHandler.ListUsers)
	admin.Post("/users", userHandler.CreateUser)
	admin.Get("/users/:id", userHandler.GetUser)
	admin.Patch("/users/:id", userHandler.UpdateUser)
	admin.Patch("/users/:id/status", userHandler.SetUserStatus)
	admin.Get("/users/:id/tickets", ticketHandler.ListUserTickets)

	// Device assignment (the bidirectional link lives under the user)
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

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Resource Not Found",
		})
	})

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting server on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler maps errors escaping handlers and middleware to the
// response envelope
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var appErr *apperr.Error
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &appErr):
		code = appErr.HTTPStatus()
		message = appErr.Message
		if appErr.Kind == apperr.KindInternal {
			message = "Internal Server Error"
			log.Printf("internal error on %s: %v", c.OriginalURL(), appErr)
		}
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	default:
		log.Printf("unhandled error on %s: %v", c.OriginalURL(), err)
	}

	return c.Status(code).JSON(fiber.Map{
		"message": message,
	})
}
