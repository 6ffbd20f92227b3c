package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/gosuda/plaza/internal/api/v1"
	"github.com/gosuda/plaza/internal/api/sse"
	"github.com/gosuda/plaza/internal/api/ws"
	"github.com/gosuda/plaza/internal/auth"
	"github.com/gosuda/plaza/internal/config"
	"github.com/gosuda/plaza/internal/server/middleware"
)

func registerRoutes(ctx context.Context, router chi.Router, cfg *config.Config, deps Deps) {
	router.Get("/healthz", healthHandler(deps.Checks))

	if deps.Gatherer != nil {
		router.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT.Secret))
		r.Use(middleware.RateLimit(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))

		apiConfig := huma.DefaultConfig("Plaza API", "1.0.0")
		apiConfig.Servers = []*huma.Server{
			{URL: "/api/v1"},
		}
		api := humachi.New(r, apiConfig)
		registerAPIRoutes(api, deps.Audit)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.StreamAuth(cfg.JWT.Secret))
		r.Use(middleware.RequireRole(auth.RoleAdmin, auth.RoleEditor, auth.RoleViewer))
		registerStreamRoutes(r, sse.NewHandler(deps.Feed), ws.NewHub(deps.Feed, originHosts(cfg.Server.CORSOrigins)))
	})
}

func registerAPIRoutes(api huma.API, svc v1.AuditService) {
	v1.RegisterAuditLogRoutes(api, svc)
}

func registerStreamRoutes(r chi.Router, events http.Handler, hub *ws.Hub) {
	r.Method(http.MethodGet, "/api/stream", events)
	r.Get("/ws/audit-logs", hub.ServeAuditLogs)
}
