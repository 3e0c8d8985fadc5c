package main

import (
	"database/sql"
	"net/http"
	"time"

	"callcenter-platform/internal/agents"
	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/calls"
	"callcenter-platform/internal/config"
	"callcenter-platform/internal/crm"
	"callcenter-platform/internal/httpapi"
	"callcenter-platform/internal/ivr"
	"callcenter-platform/internal/ratelimit"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/internal/reporting"
	"callcenter-platform/internal/router"
	"callcenter-platform/internal/security"
	"callcenter-platform/internal/webhook"
	"callcenter-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers delegate to internal modules.
func registerRoutes(r *gin.Engine, cfg config.Config, db *sql.DB, rdb *redis.Client, authManager *auth.Manager) {
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), db, 2*time.Second); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	menuRepo := ivr.NewPostgresMenuRepo(db)
	callRepo := calls.NewPostgresRepo(db)
	agentStore := agents.NewPostgresStore(db)
	alertService := security.NewAlertService(security.NewPostgresAlertRepo(db))

	callRouter := router.New(
		ivr.NewResolver(menuRepo),
		agents.NewSelector(agentStore, agents.NewRoundRobin()),
		agentStore,
		callRepo,
		crm.NewPostgresRepo(db),
		router.DefaultPaths(),
	)

	// Provider webhooks (public; protected by signature validation inside the
	// handlers, never by JWT).
	wh := webhook.NewHandlers(
		callRouter,
		security.NewSignatureValidator(cfg.Provider.AuthToken, cfg.App.PublicBaseURL),
		alertService,
		ratelimit.NewRedisStore(rdb),
		webhook.NewPostgresNumberDirectory(db, cfg.Tenancy.DefaultTenantID),
		cfg.RateLimit.IncomingCallMax,
		cfg.RateLimit.IncomingCallWindow,
	)
	wh.Register(r.Group("/webhooks/voice"))

	// Protected ops API.
	v1 := r.Group("/v1")

	h := httpapi.Handlers{
		Auth:      authManager,
		Alerts:    alertService,
		Menus:     menuRepo,
		Reporting: reporting.NewService(callRepo),
	}

	v1.POST("/auth/login", h.Login)

	protected := v1.Group("")
	protected.Use(auth.RequireAccessToken(authManager))
	{
		protected.GET("/me", func(c *gin.Context) {
			uid, _ := auth.UserID(c.Request.Context())
			tid, _ := auth.TenantID(c.Request.Context())
			role, _ := auth.Role(c.Request.Context())
			c.JSON(http.StatusOK, gin.H{"user_id": uid, "tenant_id": tid, "role": role})
		})

		alerts := protected.Group("/alerts")
		alerts.Use(httpapi.RequireTenantAndAnyRole(rbac.RoleSupervisor, rbac.RoleSecurityAuditor)...)
		{
			alerts.GET("", h.ListAlerts)
		}

		menus := protected.Group("/menus")
		menus.Use(httpapi.RequireTenantAndAnyRole(rbac.RoleSupervisor)...)
		{
			menus.GET("", h.ListMenus)
			menus.POST("/:menu_id/activate", h.ActivateMenu)
		}

		reports := protected.Group("/reports")
		reports.Use(httpapi.RequireTenantAndAnyRole(rbac.RoleSupervisor, rbac.RoleAnalyst)...)
		{
			reports.GET("/call-volume", h.CallVolumeReport)
		}
	}
}
