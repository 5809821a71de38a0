// Package http wires the gin router: authentication routes, the profile
// and activity endpoints, the prediction endpoint and health checks.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/heartcheck/internal/auth"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	router.Use(auth.StrictTransportSecurityMiddleware())

	// Interfaces must stay nil when the service is absent.
	var (
		profileAuditor    ProfileAuditor
		predictionAuditor PredictionAuditor
	)
	if cfg.AuditService != nil {
		profileAuditor = cfg.AuditService
		predictionAuditor = cfg.AuditService
	}

	health := NewHealthController(cfg.Database, cfg.Model, cfg.Version)
	predictController := NewPredictController(cfg.Model, predictionAuditor)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "API is working!"})
	})

	// Prediction is public; a valid token only attributes the audit event.
	if cfg.AuthMiddleware != nil {
		router.POST("/predict", cfg.AuthMiddleware.OptionalAuth(), predictController.Predict)
	} else {
		router.POST("/predict", predictController.Predict)
	}

	if cfg.AuthController != nil {
		cfg.AuthController.RegisterRoutes(router)
	}

	if cfg.AuthService != nil && cfg.AuthMiddleware != nil {
		profileController := NewProfileController(cfg.AuthService, profileAuditor)

		authed := router.Group("/", cfg.AuthMiddleware.RequireAuth(), auth.NoStoreMiddleware())
		authed.PUT("/profile", profileController.UpdateProfile)
		authed.POST("/profile/password", profileController.ChangePassword)

		if cfg.AuditService != nil {
			activity := NewActivityController(cfg.AuditService)
			authed.GET("/users/me/activity", activity.List)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "not found")
	})

	return router
}
