package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/heartcheck/internal/auth"
	"github.com/mrlokans/heartcheck/internal/entities"
)

// ActivityReader lists audit events. audit.Service implements it.
type ActivityReader interface {
	GetEvents(ctx context.Context, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
	GetEventsByAction(ctx context.Context, action string, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error)
}

// ActivityController exposes a user's own audit trail.
type ActivityController struct {
	events ActivityReader
}

func NewActivityController(events ActivityReader) *ActivityController {
	return &ActivityController{events: events}
}

// List returns the current user's audit events, newest first.
// GET /users/me/activity?action=login&limit=25&offset=0
func (ac *ActivityController) List(c *gin.Context) {
	userID := auth.GetUserID(c)
	if userID == 0 {
		respondError(c, http.StatusUnauthorized, "not authenticated")
		return
	}

	limit, offset := parsePagination(c)

	var (
		events []entities.AuditEvent
		total  int64
		err    error
	)
	if action := c.Query("action"); action != "" {
		events, total, err = ac.events.GetEventsByAction(c.Request.Context(), action, userID, limit, offset)
	} else {
		events, total, err = ac.events.GetEvents(c.Request.Context(), userID, limit, offset)
	}
	if err != nil {
		respondInternalError(c, err, "list activity")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    events,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+len(events)) < total,
	})
}
