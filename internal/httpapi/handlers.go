package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"callcenter-platform/internal/auth"
	"callcenter-platform/internal/ivr"
	"callcenter-platform/internal/rbac"
	"callcenter-platform/internal/reporting"
	"callcenter-platform/internal/security"

	"github.com/gin-gonic/gin"
)

// Handlers groups ops-API HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Alerts    *security.AlertService
	Menus     ivr.MenuRepository
	Reporting *reporting.Service
}

// --- Auth ---

type loginRequest struct {
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a bootstrap endpoint; credential validation belongs to the
// identity provider this service will eventually sit behind.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.TenantID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, tenant_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.TenantID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Security alerts ---

// ListAlerts returns the newest security alerts for the caller's tenant.
// RBAC: supervisor, security_auditor, or super_admin.
func (h Handlers) ListAlerts(c *gin.Context) {
	if h.Alerts == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "alerts not configured"})
		return
	}
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
	}

	alerts, err := h.Alerts.List(c.Request.Context(), tenantID, limit)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "alert lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// --- IVR menus ---

func (h Handlers) ListMenus(c *gin.Context) {
	if h.Menus == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "menus not configured"})
		return
	}
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}

	menus, err := h.Menus.ListMenus(c.Request.Context(), tenantID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "menu lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"menus": menus})
}

// ActivateMenu flips the tenant's active menu. The previously active menu is
// deactivated in the same operation, so at most one menu stays active.
// RBAC: supervisor or super_admin.
func (h Handlers) ActivateMenu(c *gin.Context) {
	if h.Menus == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "menus not configured"})
		return
	}
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}
	menuID := c.Param("menu_id")
	if menuID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "menu_id required"})
		return
	}

	if err := h.Menus.Activate(c.Request.Context(), tenantID, menuID); err != nil {
		if errors.Is(err, ivr.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "menu not found"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "menu activation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"activated": menuID})
}

// --- Reporting ---

// CallVolumeReport aggregates call records for the caller's tenant over a
// from/to range passed as RFC 3339 query parameters.
func (h Handlers) CallVolumeReport(c *gin.Context) {
	if h.Reporting == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "reporting not configured"})
		return
	}
	tenantID, err := auth.TenantID(c.Request.Context())
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "tenant_id required"})
		return
	}

	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC 3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC 3339"})
		return
	}

	report, err := h.Reporting.CallVolume(c.Request.Context(), reporting.CallVolumeRequest{
		TenantID: tenantID,
		Range:    reporting.TimeRange{From: from, To: to},
	})
	if err != nil {
		if errors.Is(err, reporting.ErrInvalidRequest) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid range"})
			return
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}
	c.JSON(http.StatusOK, report)
}

// RequireTenantAndAnyRole is the standard middleware chain for tenant-scoped
// ops endpoints.
func RequireTenantAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireTenant(), rbac.RequireAnyRole(roles...)}
}
