package auth

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/heartcheck/internal/config"
	"github.com/mrlokans/heartcheck/internal/database/users"
	"github.com/mrlokans/heartcheck/internal/entities"
)

// SignupRequest is the body of POST /signup (and its alias /register).
// Older clients send the display name as "username".
type SignupRequest struct {
	FullName string `json:"full_name"`
	Username string `json:"username"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       uint   `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// TokenResponse is returned by signup and login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
}

// NewUserResponse converts a user record to its public view.
func NewUserResponse(user *entities.User) UserResponse {
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
	}
}

// AuthController handles signup, login and the current-user endpoint.
type AuthController struct {
	service     *Service
	middleware  *Middleware
	audit       AuditLogger
	rateLimiter *RateLimiter
}

// NewAuthController creates a new authentication controller. auditLogger may be nil.
func NewAuthController(service *Service, middleware *Middleware, auditLogger AuditLogger, cfg config.Auth) *AuthController {
	rateLimiter := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     cfg.MaxLoginAttempts,
		WindowDuration:  cfg.RateLimitWindow,
		LockoutDuration: cfg.LockoutDuration,
	})

	return &AuthController{
		service:     service,
		middleware:  middleware,
		audit:       auditLogger,
		rateLimiter: rateLimiter,
	}
}

// RegisterRoutes registers authentication routes on the router.
func (ac *AuthController) RegisterRoutes(router gin.IRoutes) {
	router.POST("/signup", NoStoreMiddleware(), ac.Signup)
	router.POST("/register", NoStoreMiddleware(), ac.Signup)
	router.POST("/login", NoStoreMiddleware(), ac.Login)
	router.GET("/users/me", NoStoreMiddleware(), ac.middleware.RequireAuth(), ac.Me)
}

// Stop cleans up resources (rate limiter background goroutine).
func (ac *AuthController) Stop() {
	ac.rateLimiter.Stop()
}

// Signup registers a user and returns a token, like Login.
func (ac *AuthController) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	fullName := req.FullName
	if strings.TrimSpace(fullName) == "" {
		fullName = req.Username
	}

	user, err := ac.service.Register(c.Request.Context(), fullName, req.Email, req.Password)
	if err != nil {
		ac.logAuth(c, 0, "signup", err)
		WriteError(c, err)
		return
	}

	session, err := ac.service.IssueSession(user)
	if err != nil {
		WriteError(c, err)
		return
	}

	ac.logAuth(c, user.ID, "signup", nil)
	c.JSON(http.StatusOK, newTokenResponse(session))
}

// Login exchanges email and password for a token.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	ip := c.ClientIP()
	email := users.NormalizeEmail(req.Email)

	if allowed, retryAfter := ac.rateLimiter.Allow(ip, email); !allowed {
		seconds := int(retryAfter.Round(time.Second).Seconds())
		c.Header("Retry-After", fmt.Sprintf("%d", seconds))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "too many login attempts",
			"retry_after": seconds,
		})
		return
	}

	session, err := ac.service.Login(c.Request.Context(), email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			if locked, _ := ac.rateLimiter.RecordFailure(ip, email); locked {
				log.Printf("[AUTH] login locked out for ip=%s", ip)
			}
		}
		ac.logAuth(c, 0, "login", err)
		WriteError(c, err)
		return
	}

	ac.rateLimiter.RecordSuccess(ip, email)
	ac.logAuth(c, session.User.ID, "login", nil)
	c.JSON(http.StatusOK, newTokenResponse(session))
}

// Me returns the user the bearer token belongs to.
func (ac *AuthController) Me(c *gin.Context) {
	user := GetUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	c.JSON(http.StatusOK, NewUserResponse(user))
}

func (ac *AuthController) logAuth(c *gin.Context, userID uint, action string, err error) {
	if ac.audit == nil {
		return
	}
	ac.audit.LogAuth(userID, action, FailureReason(err), c.ClientIP(), c.Request.UserAgent(), err == nil)
}

func newTokenResponse(session *Session) TokenResponse {
	return TokenResponse{
		AccessToken: session.Token,
		TokenType:   session.TokenType,
		ExpiresAt:   session.ExpiresAt,
		User:        NewUserResponse(session.User),
	}
}

// WriteError translates a service error into a JSON response. Token
// failures share one body so clients cannot tell them apart.
func WriteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrFullNameRequired),
		errors.Is(err, ErrEmailInvalid),
		errors.Is(err, ErrPasswordRequired),
		errors.Is(err, ErrPasswordTooShort),
		errors.Is(err, ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	case errors.Is(err, ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case IsUnauthenticated(err):
		c.Header("WWW-Authenticate", `Bearer realm="heartcheck"`)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	default:
		log.Printf("[AUTH] request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
	}
}
