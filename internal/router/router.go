// Package router registers the HTTP surface: public catalog and
// checkout endpoints, payment callbacks and the authenticated admin
// back office.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/fario/flyschool/internal/handler"
	"github.com/fario/flyschool/internal/middleware"
)

// RegisterRoutes registers routes that need no authentication or
// dependencies, currently just the health check used by load
// balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the back-office session endpoints.
// Unauthenticated operations live under /v1/auth; /v1/admin/me
// requires a valid admin access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	me := e.Group("/v1/admin")
	me.Use(middleware.JWTAuth(jwtSecret))
	me.Use(middleware.RequireRole("ADMIN"))
	me.GET("/me", a.Me)
}
