package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/quietsummit/travel-api/docs"
	"github.com/quietsummit/travel-api/internal/api/handler"
	"github.com/quietsummit/travel-api/internal/api/middleware"
	"github.com/quietsummit/travel-api/internal/core/domain"
	"github.com/quietsummit/travel-api/internal/core/ports"
)

// Deps carries everything NewRouter wires into handlers.
type Deps struct {
	Logger      zerolog.Logger
	Env         string
	JWTSecret   string
	AuthService ports.AuthService
	// Readiness lists the dependency pings behind /health/ready.
	Readiness map[string]handler.PingFunc
}

// NewEcho builds the Echo instance with the request pipeline every route
// shares: correlation id, lifecycle logging, panic recovery, and the JSON
// error envelope.
func NewEcho(log zerolog.Logger, env string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log, env)

	// --- Global middleware (order matters) ---
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Recover())

	return e
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := NewEcho(deps.Logger, deps.Env)

	authHandler := handler.NewAuthHandler(deps.AuthService)
	authMiddleware := middleware.Auth(deps.JWTSecret)

	// --- Auth routes ---
	auth := e.Group("/api/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, authMiddleware)

	// --- Admin routes ---
	users := e.Group("/api/users", authMiddleware, middleware.RBAC(domain.RoleAdmin))
	users.GET("/:email", authHandler.GetUser)

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	readiness := deps.Readiness
	if readiness == nil {
		readiness = map[string]handler.PingFunc{}
	}
	healthDepsHandler := handler.NewHealthDependenciesHandler(readiness)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Operations ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// Shutdown drains in-flight requests within timeout.
func Shutdown(e *echo.Echo, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Shutdown(ctx)
}
