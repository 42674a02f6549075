package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/governance-service/internal/api/http/handlers"
	"github.com/spec-kit/governance-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Decisions      *handlers.DecisionsHandler
	Registry       *handlers.RegistryHandler
	Meetings       *handlers.MeetingsHandler
	Obligations    *handlers.ObligationsHandler
	Directory      *handlers.DirectoryHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Post("/auth/accounts", auth.RequireAdmin(), cfg.Auth.CreateAccount)

	decisions := protected.Group("/decisions")
	decisions.Post("", cfg.Decisions.Create)
	decisions.Get("", cfg.Decisions.List)
	decisions.Get("/:id", cfg.Decisions.Get)
	decisions.Patch("/:id", cfg.Decisions.Update)
	decisions.Post("/:id/submit", cfg.Decisions.Submit)
	decisions.Post("/:id/actions", cfg.Decisions.Act)
	decisions.Post("/:id/withdraw", cfg.Decisions.Withdraw)
	decisions.Get("/:id/trail", cfg.Decisions.Trail)

	authority := protected.Group("/authority")
	authority.Get("/resolve", cfg.Decisions.Resolve)
	authority.Get("/validate", cfg.Decisions.Validate)

	registry := protected.Group("/registry")
	registry.Get("/categories", cfg.Registry.ListCategories)
	registry.Get("/scopes", cfg.Registry.ListScopes)
	registry.Get("/rules", cfg.Registry.ListRules)
	registry.Get("/rules/:id", cfg.Registry.GetRule)
	registryAdmin := registry.Group("", auth.RequireAdmin())
	registryAdmin.Post("/categories", cfg.Registry.CreateCategory)
	registryAdmin.Post("/scopes", cfg.Registry.CreateScope)
	registryAdmin.Post("/rules", cfg.Registry.CreateRule)
	registryAdmin.Put("/rules/:id", cfg.Registry.UpdateRule)
	registryAdmin.Post("/rules/:id/deactivate", cfg.Registry.DeactivateRule)

	meetings := protected.Group("/meetings")
	meetings.Post("", cfg.Meetings.Schedule)
	meetings.Get("", cfg.Meetings.List)
	meetings.Get("/:id", cfg.Meetings.Get)
	meetings.Put("/:id/attendance", cfg.Meetings.RecordAttendance)
	meetings.Post("/:id/agenda", cfg.Meetings.AddAgendaItem)
	meetings.Post("/agenda/:itemId/outcome", cfg.Meetings.RecordOutcome)
	meetings.Post("/:id/finalize", cfg.Meetings.Finalize)
	meetings.Post("/:id/cancel", cfg.Meetings.Cancel)

	obligations := protected.Group("/obligations")
	obligations.Post("", cfg.Obligations.Create)
	obligations.Get("/overdue", cfg.Obligations.ListOverdue)
	obligations.Get("/:id", cfg.Obligations.Get)
	obligations.Post("/:id/certify", cfg.Obligations.Certify)
	protected.Get("/offices/:id/obligations", cfg.Obligations.Ledger)

	dir := protected.Group("/directory")
	dir.Get("/designations", cfg.Directory.ListDesignations)
	dir.Get("/committees/:id", cfg.Directory.GetCommittee)
	dir.Get("/postings/:id", cfg.Directory.GetPosting)
	dir.Get("/occupants", cfg.Directory.Occupants)
	dirAdmin := dir.Group("", auth.RequireAdmin())
	dirAdmin.Post("/designations", cfg.Directory.CreateDesignation)
	dirAdmin.Post("/committees", cfg.Directory.CreateCommittee)
	dirAdmin.Post("/committees/:id/members", cfg.Directory.AddCommitteeMember)
	dirAdmin.Post("/offices", cfg.Directory.CreateOffice)
	dirAdmin.Post("/postings", cfg.Directory.CreatePosting)
	dirAdmin.Post("/tenures", cfg.Directory.CreateTenure)
}
