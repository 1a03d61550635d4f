// Package server assembles the fiber application: global middleware, authentication, and every API route.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"restaurant-pos/backend/internal/audit"
	audithandler "restaurant-pos/backend/internal/audit/handler"
	categoryhandler "restaurant-pos/backend/internal/category/handler"
	dashboardhandler "restaurant-pos/backend/internal/dashboard/handler"
	healthhandler "restaurant-pos/backend/internal/health/handler"
	identityhandler "restaurant-pos/backend/internal/identity/handler"
	"restaurant-pos/backend/internal/logging"
	menuhandler "restaurant-pos/backend/internal/menu/handler"
	orderhandler "restaurant-pos/backend/internal/order/handler"
	"restaurant-pos/backend/internal/platform/rbac"
	"restaurant-pos/backend/internal/platform/response"
	"restaurant-pos/backend/internal/policy/engine"
	"restaurant-pos/backend/internal/server/middleware"
	settingshandler "restaurant-pos/backend/internal/settings/handler"
	tablehandler "restaurant-pos/backend/internal/table/handler"
	telemetryhandler "restaurant-pos/backend/internal/telemetry/handler"
	otelhttp "restaurant-pos/backend/internal/telemetry/otel"
	userhandler "restaurant-pos/backend/internal/user/handler"
)

// Options holds the transport settings read from config.
type Options struct {
	CookieName       string
	CORSOrigin       string
	AuthRateLimitMax int
	// BodyLimit caps request bodies in bytes; zero keeps the fiber default.
	BodyLimit int
}

// Deps are the collaborators NewApp wires into routes. Any handler left nil is not mounted.
type Deps struct {
	Log       logging.Logger
	Tokens    middleware.TokenVerifier
	Evaluator engine.Evaluator
	Audit     audit.AuditLogger

	Health     *healthhandler.Handler
	Auth       *identityhandler.Handler
	Users      *userhandler.Handler
	Tables     *tablehandler.Handler
	Categories *categoryhandler.Handler
	Menu       *menuhandler.Handler
	Orders     *orderhandler.Handler
	Dashboard  *dashboardhandler.Handler
	Settings   *settingshandler.Handler
	Telemetry  *telemetryhandler.Handler
	AuditLogs  *audithandler.Handler
}

// auditSkip lists routes the generic audit middleware ignores: auth and user handlers record their
// own named actions, and telemetry ingestion is anonymous noise.
var auditSkip = map[string]bool{
	"/api/auth/login":                true,
	"/api/auth/logout":               true,
	"/api/users":                     true,
	"/api/users/:id":                 true,
	"/api/users/:id/change-password": true,
	"/api/analytics/event":           true,
	"/api/analytics/pageview":        true,
	"/api/performance/timing":        true,
	"/api/performance/error":         true,
}

// NewApp builds the fiber app with global middleware and all routes mounted.
func NewApp(opts Options, d Deps) *fiber.App {
	if d.Log == nil {
		d.Log = logging.Nop()
	}
	if opts.CookieName == "" {
		opts.CookieName = "token"
	}
	app := fiber.New(fiber.Config{
		ErrorHandler:          response.ErrorHandler(d.Log),
		BodyLimit:             opts.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestContext())
	app.Use(otelhttp.Middleware())
	app.Use(middleware.RequestLog(d.Log))
	app.Use(corsMiddleware(opts.CORSOrigin))

	if d.Health != nil {
		app.Get("/health", d.Health.Live)
		app.Get("/ready", d.Health.Ready)
	}

	api := app.Group("/api")
	mountPublic(api, opts, d)

	// Registered after the public routes: group middleware applies to every later /api route.
	authed := api.Group("", middleware.RequireAuth(d.Tokens, opts.CookieName), middleware.Audit(d.Audit, auditSkip))
	mountProtected(authed, d)

	app.Use(func(c *fiber.Ctx) error {
		return response.NotFound("route not found")
	})
	return app
}

func mountPublic(api fiber.Router, opts Options, d Deps) {
	if d.Auth != nil {
		api.Post("/auth/login", rateLimitLogin(opts.AuthRateLimitMax), d.Auth.Login)
		api.Post("/auth/logout", middleware.OptionalAuth(d.Tokens, opts.CookieName), d.Auth.Logout)
	}
	if d.Menu != nil {
		api.Get("/public/menu", d.Menu.PublicMenu)
	}
	if d.Telemetry != nil {
		d.Telemetry.PublicRoutes(api)
	}
}

func mountProtected(r fiber.Router, d Deps) {
	require := func(action engine.Action, resource engine.Resource) fiber.Handler {
		return rbac.Require(d.Evaluator, action, resource)
	}

	if d.Auth != nil {
		r.Get("/auth/me", d.Auth.Me)
		r.Post("/users/:id/change-password", d.Auth.ChangePassword)
	}

	if d.Users != nil {
		r.Get("/users", require(engine.ActionRead, engine.ResourceUsers), d.Users.List)
		r.Post("/users", require(engine.ActionCreate, engine.ResourceUsers), d.Users.Create)
		r.Get("/users/:id", d.Users.Get)
		r.Put("/users/:id", require(engine.ActionUpdate, engine.ResourceUsers), d.Users.Update)
		r.Delete("/users/:id", require(engine.ActionDelete, engine.ResourceUsers), d.Users.Delete)
	}

	if d.Tables != nil {
		r.Get("/tables", require(engine.ActionRead, engine.ResourceTables), d.Tables.List)
		r.Post("/tables", require(engine.ActionCreate, engine.ResourceTables), d.Tables.Create)
		r.Get("/tables/:id", require(engine.ActionRead, engine.ResourceTables), d.Tables.Get)
		r.Put("/tables/:id", require(engine.ActionUpdate, engine.ResourceTables), d.Tables.Update)
		r.Patch("/tables/:id/status", require(engine.ActionUpdateStatus, engine.ResourceTables), d.Tables.UpdateStatus)
		r.Delete("/tables/:id", require(engine.ActionDelete, engine.ResourceTables), d.Tables.Delete)
	}

	if d.Categories != nil {
		r.Get("/categories", require(engine.ActionRead, engine.ResourceCategories), d.Categories.List)
		r.Post("/categories", require(engine.ActionCreate, engine.ResourceCategories), d.Categories.Create)
		r.Put("/categories/:id", require(engine.ActionUpdate, engine.ResourceCategories), d.Categories.Update)
		r.Delete("/categories/:id", require(engine.ActionDelete, engine.ResourceCategories), d.Categories.Delete)
	}

	if d.Menu != nil {
		r.Get("/menu/items", require(engine.ActionRead, engine.ResourceMenu), d.Menu.List)
		r.Post("/menu/items", require(engine.ActionCreate, engine.ResourceMenu), d.Menu.Create)
		r.Get("/menu/items/:id", require(engine.ActionRead, engine.ResourceMenu), d.Menu.Get)
		r.Put("/menu/items/:id", require(engine.ActionUpdate, engine.ResourceMenu), d.Menu.Update)
		r.Patch("/menu/items/:id/availability", require(engine.ActionUpdate, engine.ResourceMenu), d.Menu.UpdateAvailability)
		r.Delete("/menu/items/:id", require(engine.ActionDelete, engine.ResourceMenu), d.Menu.Delete)
		r.Post("/menu/items/:id/image-upload-url", require(engine.ActionUpdate, engine.ResourceMenu), d.Menu.ImageUploadURL)
	}

	if d.Orders != nil {
		r.Get("/orders", require(engine.ActionRead, engine.ResourceOrders), d.Orders.List)
		r.Post("/orders", require(engine.ActionCreate, engine.ResourceOrders), d.Orders.Create)
		r.Get("/orders/:id", require(engine.ActionRead, engine.ResourceOrders), d.Orders.Get)
		r.Post("/orders/:id/items", require(engine.ActionUpdate, engine.ResourceOrders), d.Orders.AddItems)
		r.Delete("/orders/:id/items/:itemId", require(engine.ActionUpdate, engine.ResourceOrders), d.Orders.RemoveItem)
		// Status changes are checked per target status inside the handler.
		r.Patch("/orders/:id/status", d.Orders.UpdateStatus)
		r.Post("/orders/:id/pay", require(engine.ActionCreate, engine.ResourcePayments), d.Orders.Pay)
		r.Get("/kitchen/orders", require(engine.ActionRead, engine.ResourceKitchen), d.Orders.Kitchen)
	}

	if d.Dashboard != nil {
		r.Get("/dashboard/summary", require(engine.ActionRead, engine.ResourceDashboard), d.Dashboard.Summary)
	}

	if d.Settings != nil {
		r.Get("/settings", require(engine.ActionRead, engine.ResourceSettings), d.Settings.Get)
		r.Put("/settings", require(engine.ActionUpdate, engine.ResourceSettings), d.Settings.Update)
	}

	if d.AuditLogs != nil {
		r.Get("/audit-logs", require(engine.ActionRead, engine.ResourceAudit), d.AuditLogs.List)
	}

	if d.Telemetry != nil {
		d.Telemetry.AdminRoutes(r, require(engine.ActionRead, engine.ResourceTelemetry))
	}
}

func corsMiddleware(origin string) fiber.Handler {
	if origin == "" {
		origin = "*"
	}
	return cors.New(cors.Config{
		AllowOrigins: origin,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		// Browsers refuse credentialed requests to a wildcard origin.
		AllowCredentials: origin != "*",
	})
}
