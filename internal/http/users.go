package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/heartcheck/internal/auth"
)

// ProfileAuditor records profile changes. audit.Service implements it.
type ProfileAuditor interface {
	LogProfile(userID uint, action, description string, err error)
}

// UpdateProfileRequest is accepted as JSON or as a form post.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" form:"full_name"`
}

// ChangePasswordRequest is the body of POST /profile/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" form:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" form:"new_password" binding:"required"`
	ConfirmPassword string `json:"confirm_password" form:"confirm_password"`
}

// ProfileController handles user profile operations.
type ProfileController struct {
	authService *auth.Service
	audit       ProfileAuditor
}

// NewProfileController creates a new ProfileController. auditor may be nil.
func NewProfileController(authService *auth.Service, auditor ProfileAuditor) *ProfileController {
	return &ProfileController{
		authService: authService,
		audit:       auditor,
	}
}

// UpdateProfile changes the display name of the current user.
// PUT /profile
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	userID := auth.GetUserID(c)

	var req UpdateProfileRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid request")
		return
	}

	user, err := pc.authService.UpdateProfile(c.Request.Context(), userID, req.FullName)
	pc.logProfile(userID, "profile_update", "Full name changed", err)
	if err != nil {
		auth.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": auth.NewUserResponse(user)})
}

// ChangePassword handles password change requests.
// POST /profile/password
func (pc *ProfileController) ChangePassword(c *gin.Context) {
	userID := auth.GetUserID(c)

	var req ChangePasswordRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "current_password and new_password are required")
		return
	}

	if req.ConfirmPassword != "" && req.NewPassword != req.ConfirmPassword {
		respondBadRequest(c, "New passwords do not match")
		return
	}

	err := pc.authService.ChangePassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword)
	pc.logProfile(userID, "password_change", "Password changed", err)
	if err != nil {
		// A wrong current password is a form error, not a failed login:
		// the caller already holds a valid token.
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respondBadRequest(c, "Current password is incorrect")
			return
		}
		auth.WriteError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (pc *ProfileController) logProfile(userID uint, action, description string, err error) {
	if pc.audit == nil {
		return
	}
	pc.audit.LogProfile(userID, action, description, err)
}
