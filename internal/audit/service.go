// Package audit records security-relevant events (signups, logins, rejected
// tokens, profile changes, predictions) in the audit_events table.
package audit

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mrlokans/heartcheck/internal/database/audit"
	"github.com/mrlokans/heartcheck/internal/entities"
)

var authDescriptions = map[string]string{
	"signup":         "User signed up",
	"login":          "User logged in",
	"token_rejected": "Request with an invalid token rejected",
}

// Service provides high-level audit logging functionality.
type Service struct {
	repo *audit.Repository
	wg   sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records an audit event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.Insert(ctx, event)
}

// LogAsync records an audit event in the background. The write is detached
// from any request so it survives the response being sent.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.repo.Insert(context.Background(), event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// Wait blocks until every pending LogAsync write has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

// LogAuth records an authentication event. reason is empty on success.
func (s *Service) LogAuth(userID uint, action, reason, ipAddr, userAgent string, success bool) {
	description, ok := authDescriptions[action]
	if !ok {
		description = action
	}

	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: description,
		Reason:      truncate(reason, 100),
		IPAddress:   ipAddr,
		UserAgent:   truncate(userAgent, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogProfile records a profile change.
func (s *Service) LogProfile(userID uint, action, description string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventProfile,
		Action:      action,
		Description: truncate(description, 500),
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.Reason = truncate(err.Error(), 100)
	}

	s.LogAsync(event)
}

// LogPrediction records that a prediction was served. Feature values are
// never stored.
func (s *Service) LogPrediction(userID uint, ipAddr string, err error) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventPredict,
		Action:      "predict",
		Description: "Heart disease prediction",
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}

	if err != nil {
		event.Status = entities.AuditStatusFailed
		event.Reason = truncate(err.Error(), 100)
	}

	s.LogAsync(event)
}

// GetEvents returns a page of events, newest first. A zero userID means
// every user.
func (s *Service) GetEvents(ctx context.Context, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.List(ctx, audit.Filter{UserID: userID, Limit: limit, Offset: offset})
}

// GetEventsByAction is GetEvents restricted to one action, e.g. "login".
func (s *Service) GetEventsByAction(ctx context.Context, action string, userID uint, limit, offset int) ([]entities.AuditEvent, int64, error) {
	return s.repo.List(ctx, audit.Filter{UserID: userID, Action: action, Limit: limit, Offset: offset})
}

// DeleteOldEvents removes events older than retention.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteBefore(ctx, time.Now().Add(-retention))
}

// truncate shortens a string to max length.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
