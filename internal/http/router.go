package http

import (
	"fmt"
	"log/slog"

	"github.com/geocoder89/authhub/internal/config"
	"github.com/geocoder89/authhub/internal/http/handlers"
	"github.com/geocoder89/authhub/internal/http/middlewares"
	"github.com/geocoder89/authhub/internal/observability"
	"github.com/geocoder89/authhub/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Accounts handlers.AccountService
	Limiter  middlewares.Limiter
	Checks   []handlers.ReadinessCheck

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) (*gin.Engine, error) {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil, fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	if err := validation.Register(v); err != nil {
		return nil, fmt.Errorf("register validation rules: %w", err)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(cfg.IsProd()))
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	health := handlers.NewHealthHandler(deps.Checks...)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(deps.Accounts, log)
	authMiddleware := middlewares.NewAuthMiddleware(deps.Accounts, authHandler.Fail)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middlewares.NewMemoryLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	}
	throttle := middlewares.RateLimit(limiter, middlewares.KeyByIP, deps.Prom, log)

	authGroup := r.Group("/auth")
	{
		authGroup.POST("/signup", middlewares.RequireJSON(), throttle, authHandler.SignUp)
		authGroup.POST("/signin", middlewares.RequireJSON(), throttle, authHandler.SignIn)
		authGroup.GET("/me", authMiddleware.RequireAuth(), authHandler.Me)
	}

	return r, nil
}
