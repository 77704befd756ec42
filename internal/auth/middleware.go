package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/containerhub/containerhub/internal/config"
	"github.com/containerhub/containerhub/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUsername = "auth_username"
	ContextKeyRole     = "auth_role"
	ContextKeyOrgID    = "auth_org_id"
)

// DefaultUserID is used when authentication is disabled.
const DefaultUserID = uint(0)

// Middleware handles bearer-token authentication for HTTP requests.
type Middleware struct {
	service      *Service
	config       config.Auth
	defaultOrgID uint
	publicPaths  map[string]bool
}

// NewMiddleware creates a new authentication middleware.
// defaultOrgID is the organization assigned when auth is disabled.
func NewMiddleware(service *Service, cfg config.Auth, defaultOrgID uint) *Middleware {
	publicPaths := map[string]bool{
		"GET /health": true,
		"GET /ping":   true,
		// Credential exchange must work without an existing token.
		"POST /api/auth/token": true,
	}

	return &Middleware{
		service:      service,
		config:       cfg,
		defaultOrgID: defaultOrgID,
		publicPaths:  publicPaths,
	}
}

// Handler returns a Gin middleware handler that authenticates requests.
func (m *Middleware) Handler() gin.HandlerFunc {
	if m.config.Mode == config.AuthModeNone {
		return m.noAuthHandler()
	}
	return m.authHandler()
}

// noAuthHandler treats every request as an admin of the default
// organization when authentication is disabled.
func (m *Middleware) noAuthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyUserID, DefaultUserID)
		c.Set(ContextKeyRole, entities.UserRoleAdmin)
		c.Set(ContextKeyOrgID, m.defaultOrgID)
		c.Next()
	}
}

func (m *Middleware) authHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.Method+" "+c.Request.URL.Path] {
			c.Set(ContextKeyUserID, DefaultUserID)
			c.Set(ContextKeyRole, entities.UserRoleViewer)
			c.Next()
			return
		}

		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		user, err := m.service.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyUsername, user.Username)
		c.Set(ContextKeyRole, user.Role)
		c.Set(ContextKeyOrgID, user.OrganizationID)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the caller's role passes the check.
func RequireRole(check func(entities.UserRole) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := RoleFromContext(c)
		if !check(role) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// RequireWriter allows editors and admins.
func RequireWriter() gin.HandlerFunc {
	return RequireRole(entities.UserRole.CanWrite)
}

// RequireAdmin allows admins only.
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(func(r entities.UserRole) bool { return r == entities.UserRoleAdmin })
}

// RoleFromContext returns the authenticated role, defaulting to viewer.
func RoleFromContext(c *gin.Context) entities.UserRole {
	if v, ok := c.Get(ContextKeyRole); ok {
		if role, ok := v.(entities.UserRole); ok {
			return role
		}
	}
	return entities.UserRoleViewer
}

// OrgFromContext returns the caller's organization ID.
func OrgFromContext(c *gin.Context) uint {
	if v, ok := c.Get(ContextKeyOrgID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}

// UserIDFromContext returns the authenticated user ID.
func UserIDFromContext(c *gin.Context) uint {
	if v, ok := c.Get(ContextKeyUserID); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return DefaultUserID
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
