package http

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/service-desk/internal/api/http/handlers"
	"github.com/spec-kit/service-desk/internal/auth"
)

func registeredRoutes(t *testing.T) map[string]bool {
	t.Helper()
	app := fiber.New()
	RegisterRoutes(app, RouteConfig{
		Health:         &handlers.HealthHandler{},
		Auth:           &handlers.AuthHandler{},
		Requests:       &handlers.RequestsHandler{},
		Users:          &handlers.UsersHandler{},
		Media:          &handlers.MediaHandler{},
		AuthMiddleware: &auth.AuthMiddleware{},
	})

	routes := map[string]bool{}
	for _, route := range app.GetRoutes() {
		routes[route.Method+" "+route.Path] = true
	}
	return routes
}

func TestEditRouteUsesPatch(t *testing.T) {
	routes := registeredRoutes(t)
	assert.True(t, routes["PATCH /services/edit/:id"])
	assert.False(t, routes["PUT /services/edit/:id"])
}

func TestCoreRoutesRegistered(t *testing.T) {
	routes := registeredRoutes(t)
	for _, want := range []string{
		"POST /services/create",
		"POST /services/create_by_admin",
		"POST /services/assign",
		"POST /services/verify",
		"POST /services/close/:id",
		"GET /services/get/:id",
		"DELETE /services/delete/:id",
		"GET /media/video/:key",
		"POST /auth/tokens",
	} {
		assert.True(t, routes[want], want)
	}
}
