package http

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/wisdomhub/filekeep/internal/accounts"
	"github.com/wisdomhub/filekeep/internal/http/handlers"
	"github.com/wisdomhub/filekeep/internal/http/middlewares"
	"github.com/wisdomhub/filekeep/internal/observability"
	"github.com/wisdomhub/filekeep/internal/storage"
)

// JSON bodies for register/login are tiny.
const maxJSONBodyBytes = 64 << 10

type Deps struct {
	Log      *slog.Logger
	Accounts *accounts.Service
	Store    storage.Store

	// Limiter throttles register and login per client IP; nil disables it.
	Limiter middlewares.Limiter

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// Ping backs /readyz; nil means always ready.
	Ping func(ctx context.Context) error

	Env            string
	ServiceName    string
	MaxUploadBytes int64

	// Secure turns on HSTS.
	Secure bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	log := d.Log
	if log == nil {
		log = slog.Default()
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	if d.ServiceName != "" {
		r.Use(otelgin.Middleware(d.ServiceName))
	}
	r.Use(middlewares.RequestLogger(log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders(d.Secure))

	// health
	h := handlers.NewHealthHandler(d.Ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authHandler := handlers.NewAuthHandler(d.Accounts, log)
	filesHandler := handlers.NewFilesHandler(d.Accounts, d.Store, log, d.Prom)
	authMW := middlewares.NewAuthMiddleware(d.Accounts)

	throttle := func(scope string) gin.HandlerFunc {
		if d.Limiter == nil {
			return func(c *gin.Context) { c.Next() }
		}
		return middlewares.RateLimit(d.Limiter, scope, middlewares.KeyByIP, log)
	}

	// /api/auth is where the routes were first mounted; keep both
	for _, prefix := range []string{"/auth", "/api/auth"} {
		g := r.Group(prefix)

		g.POST("/register",
			throttle("register"),
			middlewares.RequireJSON(),
			middlewares.MaxBodyBytes(maxJSONBodyBytes),
			authHandler.Register,
		)
		g.POST("/login",
			throttle("login"),
			middlewares.RequireJSON(),
			middlewares.MaxBodyBytes(maxJSONBodyBytes),
			authHandler.Login,
		)

		g.POST("/upload",
			middlewares.RequireMultipart(),
			middlewares.MaxBodyBytes(d.MaxUploadBytes),
			filesHandler.Upload,
		)
		g.GET("/files", filesHandler.ListFiles)

		g.GET("/session", authMW.RequireAuth(), authHandler.Session)
	}

	return r
}
