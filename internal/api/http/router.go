package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/service-desk/internal/api/http/handlers"
	"github.com/spec-kit/service-desk/internal/auth"
	"github.com/spec-kit/service-desk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Requests       *handlers.RequestsHandler
	Users          *handlers.UsersHandler
	Media          *handlers.MediaHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/tokens", cfg.Auth.Login)
	authGroup.Put("/tokens", cfg.Auth.Refresh)
	authGroup.Delete("/tokens", cfg.Auth.Logout)

	services := app.Group("/services", cfg.AuthMiddleware.Handle)
	services.Post("/create", auth.RequireRoles(domain.RoleCustomer), cfg.Requests.Create)
	services.Post("/create_by_admin", auth.RequireRoles(domain.RoleAdmin), cfg.Requests.CreateByAdmin)
	services.Post("/assign", auth.RequireRoles(domain.RoleAdmin), cfg.Requests.Assign)
	services.Post("/verify", auth.RequireRoles(domain.RoleAdmin, domain.RoleExecutor), cfg.Requests.Verify)
	services.Post("/close/:id", auth.RequireRoles(domain.RoleAdmin), cfg.Requests.Close)
	services.Patch("/edit/:id", auth.RequireRoles(domain.RoleAdmin, domain.RoleCustomer), cfg.Requests.Edit)
	services.Get("/get/:id", auth.RequireRoles(), cfg.Requests.Get)
	services.Delete("/delete/:id", auth.RequireRoles(domain.RoleAdmin), cfg.Requests.Delete)
	services.Get("/companies/all", auth.RequireRoles(domain.RoleAdmin, domain.RoleExecutor), cfg.Requests.ListCompanies)
	services.Get("/customer/status/:value", auth.RequireRoles(domain.RoleCustomer), cfg.Requests.ListForCustomer)
	services.Get("/status/:value/:company_id", auth.RequireRoles(domain.RoleAdmin, domain.RoleExecutor), cfg.Requests.ListByStatus)

	mediaGroup := app.Group("/media", cfg.AuthMiddleware.Handle, auth.RequireRoles())
	mediaGroup.Get("/video/:key", cfg.Media.GetVideo)
	mediaGroup.Get("/image/:key", cfg.Media.GetImage)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Post("/customers", auth.RequireRoles(domain.RoleAdmin), cfg.Users.CreateCustomer)
	users.Get("/customers", auth.RequireRoles(domain.RoleAdmin), cfg.Users.SearchCustomers)
	users.Put("/customers/:id", auth.RequireRoles(domain.RoleAdmin, domain.RoleCustomer), cfg.Users.UpdateCustomer)
	users.Post("/executors", auth.RequireRoles(domain.RoleAdmin), cfg.Users.CreateExecutor)
	users.Get("/executors", auth.RequireRoles(domain.RoleAdmin), cfg.Users.SearchExecutors)
	users.Put("/executors/:id", auth.RequireRoles(domain.RoleAdmin, domain.RoleExecutor), cfg.Users.UpdateExecutor)
	users.Delete("/block/:id", auth.RequireRoles(domain.RoleAdmin), cfg.Users.Block)
}
