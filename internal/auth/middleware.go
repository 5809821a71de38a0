package auth

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/heartcheck/internal/entities"
)

// Context keys for user data
const (
	ContextKeyUser   = "auth_user"
	ContextKeyUserID = "auth_user_id"
)

// AuditLogger records authentication outcomes. audit.Service implements it.
type AuditLogger interface {
	LogAuth(userID uint, action, reason, ipAddr, userAgent string, success bool)
}

// Middleware authenticates requests carrying an Authorization: Bearer header.
type Middleware struct {
	service *Service
	audit   AuditLogger
}

// NewMiddleware creates a new authentication middleware. auditLogger may be nil.
func NewMiddleware(service *Service, auditLogger AuditLogger) *Middleware {
	return &Middleware{
		service: service,
		audit:   auditLogger,
	}
}

// RequireAuth rejects requests without a valid bearer token. Every token
// failure produces the same 401 body; the distinct reason only reaches the
// log and the audit trail.
func (m *Middleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			m.reject(c, "missing_token")
			return
		}

		user, err := m.service.ResolveCurrentUser(c.Request.Context(), token)
		if err != nil {
			if !IsUnauthenticated(err) {
				log.Printf("[AUTH] resolving current user failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "server error",
				})
				return
			}
			m.reject(c, FailureReason(err))
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Next()
	}
}

// OptionalAuth attaches the bearer's user to the context when the request
// carries a valid token and lets every request through. Public routes use it
// to attribute work to a user without requiring a login.
func (m *Middleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.Next()
			return
		}

		user, err := m.service.ResolveCurrentUser(c.Request.Context(), token)
		if err != nil {
			log.Printf("[AUTH] %s %s: continuing anonymously (%s)", c.Request.Method, c.Request.URL.Path, FailureReason(err))
			c.Next()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyUserID, user.ID)
		c.Next()
	}
}

func (m *Middleware) reject(c *gin.Context, reason string) {
	log.Printf("[AUTH] %s %s: unauthenticated (%s)", c.Request.Method, c.Request.URL.Path, reason)
	if m.audit != nil && reason != "missing_token" {
		m.audit.LogAuth(0, "token_rejected", reason, c.ClientIP(), c.Request.UserAgent(), false)
	}

	c.Header("WWW-Authenticate", `Bearer realm="heartcheck"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": "not authenticated",
	})
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}

// GetUser retrieves the authenticated user from the context.
func GetUser(c *gin.Context) *entities.User {
	if value, exists := c.Get(ContextKeyUser); exists {
		if user, ok := value.(*entities.User); ok {
			return user
		}
	}
	return nil
}

// GetUserID retrieves the authenticated user's ID, or 0 when unauthenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}
