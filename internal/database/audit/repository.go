// Package audit persists audit events in the audit_events table.
package audit

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/heartcheck/internal/entities"
)

const defaultListLimit = 50

// Filter narrows List. Zero fields match everything.
type Filter struct {
	UserID uint
	Action string
	Limit  int
	Offset int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores event, stamping CreatedAt when the caller left it zero.
func (r *Repository) Insert(ctx context.Context, event *entities.AuditEvent) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(event).Error
}

// List returns one page of matching events, newest first, and the number of
// matches across all pages.
func (r *Repository) List(ctx context.Context, f Filter) ([]entities.AuditEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&entities.AuditEvent{})
	if f.UserID > 0 {
		query = query.Where("user_id = ?", f.UserID)
	}
	if f.Action != "" {
		query = query.Where("action = ?", f.Action)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := f.Limit, f.Offset
	if limit <= 0 {
		limit = defaultListLimit
	}
	if offset < 0 {
		offset = 0
	}

	var events []entities.AuditEvent
	err := query.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&events).Error
	return events, total, err
}

// DeleteBefore removes events created before cutoff and reports how many went.
func (r *Repository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&entities.AuditEvent{})
	return result.RowsAffected, result.Error
}
