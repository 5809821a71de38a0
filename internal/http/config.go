package http

import (
	"github.com/mrlokans/heartcheck/internal/audit"
	"github.com/mrlokans/heartcheck/internal/auth"
	"github.com/mrlokans/heartcheck/internal/database"
	"github.com/mrlokans/heartcheck/internal/predict"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database     *database.Database
	AuditService *audit.Service

	// Authentication
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	AuthController *auth.AuthController

	// Prediction model; nil disables POST /predict with 503.
	Model *predict.Model

	// Application info
	Version string
}
