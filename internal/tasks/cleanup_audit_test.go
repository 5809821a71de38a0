package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCleaner struct {
	retention chan time.Duration
	deleted   int64
	err       error
}

func (f *fakeCleaner) DeleteOldEvents(_ context.Context, retention time.Duration) (int64, error) {
	f.retention <- retention
	return f.deleted, f.err
}

func newFakeCleaner() *fakeCleaner {
	return &fakeCleaner{retention: make(chan time.Duration, 4)}
}

func TestCleanupAuditEventsTaskConfig(t *testing.T) {
	cfg := CleanupAuditEventsTask{}.Config()

	assert.Equal(t, "cleanup_audit_events", cfg.Name)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	require.NotNil(t, cfg.Retention)
}

func TestCleanupAuditEventsTask_Retention(t *testing.T) {
	assert.Equal(t, 30*24*time.Hour, CleanupAuditEventsTask{}.Retention())
	assert.Equal(t, 30*24*time.Hour, CleanupAuditEventsTask{RetentionDays: -1}.Retention())
	assert.Equal(t, 7*24*time.Hour, CleanupAuditEventsTask{RetentionDays: 7}.Retention())
}

func TestCleanupAuditEventsProcessor(t *testing.T) {
	t.Run("deletes with task retention", func(t *testing.T) {
		cleaner := newFakeCleaner()
		cleaner.deleted = 12

		err := CleanupAuditEventsProcessor(cleaner)(context.Background(), CleanupAuditEventsTask{RetentionDays: 2})
		require.NoError(t, err)
		assert.Equal(t, 48*time.Hour, <-cleaner.retention)
	})

	t.Run("propagates errors for retry", func(t *testing.T) {
		cleaner := newFakeCleaner()
		cleaner.err = errors.New("database is locked")

		err := CleanupAuditEventsProcessor(cleaner)(context.Background(), CleanupAuditEventsTask{})
		assert.ErrorIs(t, err, cleaner.err)
	})

	t.Run("nil cleaner", func(t *testing.T) {
		err := CleanupAuditEventsProcessor(nil)(context.Background(), CleanupAuditEventsTask{})
		assert.Error(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cleaner := newFakeCleaner()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := CleanupAuditEventsProcessor(cleaner)(ctx, CleanupAuditEventsTask{})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Len(t, cleaner.retention, 0)
	})
}

func TestEnqueueAuditCleanup(t *testing.T) {
	client, err := NewClient(filepath.Join(t.TempDir(), "app.db"), DefaultConfig())
	require.NoError(t, err)
	defer client.Close()

	cleaner := newFakeCleaner()
	client.Register(NewCleanupAuditEventsQueue(cleaner))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	id, err := client.EnqueueAuditCleanup(ctx, 10)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	select {
	case retention := <-cleaner.retention:
		assert.Equal(t, 10*24*time.Hour, retention)
	case <-time.After(5 * time.Second):
		t.Fatal("cleanup task was not executed within timeout")
	}
}
