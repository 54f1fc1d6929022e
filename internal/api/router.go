package api

import (
	"context"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/auth-system/docs"
	"github.com/99minutos/auth-system/internal/api/handler"
	"github.com/99minutos/auth-system/internal/api/middleware"
	"github.com/99minutos/auth-system/internal/core/domain"
	"github.com/99minutos/auth-system/internal/core/ports"
	"github.com/99minutos/auth-system/internal/pkg/config"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	Auth        ports.AuthService
	Users       ports.UserService
	UserStore   ports.UserRepository
	Tokens      ports.TokenVerifier
	Store       ports.Pinger
	// Redis is optional. Without it rate limiting is off and readiness skips it.
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	// IPExtractor resolves client addresses. Nil uses the socket peer only.
	IPExtractor echo.IPExtractor
	Log         zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)
	e.IPExtractor = d.IPExtractor
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("auth_http"))

	authHandler := handler.NewAuthHandler(d.Auth)
	userHandler := handler.NewUserHandler(d.Users)
	authenticated := middleware.VerifyToken(d.Tokens)
	limited := middleware.RateLimit(d.RateLimit, d.Redis, d.Log)

	// --- Auth routes ---
	auth := e.Group("/api/v1/auth")
	auth.POST("/sign-in", authHandler.SignIn, limited)
	auth.POST("/sign-up", authHandler.SignUp, limited)
	auth.POST("/refresh", authHandler.Refresh, limited)
	auth.POST("/sign-out", authHandler.SignOut)
	auth.POST("/sign-out-all", authHandler.SignOutAll, authenticated)
	auth.GET("/me", authHandler.Me, authenticated)

	// --- Account administration ---
	users := e.Group("/api/v1/users", authenticated)
	users.GET("/:id", userHandler.Get, middleware.RequireRole(d.UserStore, d.Auth, domain.RoleModerator))
	users.PATCH("/:id", userHandler.Update, middleware.RequireRole(d.UserStore, d.Auth, domain.RoleAdmin))
	users.DELETE("/:id", userHandler.Delete, middleware.RequireRole(d.UserStore, d.Auth, domain.RoleAdmin))

	// --- Health probes (no auth required) ---
	checks := map[string]handler.Check{"store": d.Store.Ping}
	if d.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return d.Redis.Ping(ctx).Err() }
	}
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(checks).Readiness)

	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	})
}
