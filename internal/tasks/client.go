// Package tasks runs background jobs (currently audit log retention) on a
// backlite queue stored in its own SQLite file next to the main database.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// tasksDSNOptions keeps the queue's writers from failing on SQLITE_BUSY while
// the API writes audit rows to the main database.
const tasksDSNOptions = "?_journal=WAL&_timeout=5000&_busy_timeout=5000"

// Client owns the queue database and the backlite dispatcher.
type Client struct {
	queue   *backlite.Client
	db      *sql.DB
	workers int

	mu      sync.Mutex
	running bool
}

// TasksDBPath returns the task queue database path for a main database
// path: "data/heartcheck.db" becomes "data/heartcheck-tasks.db".
func TasksDBPath(mainDBPath string) string {
	mainDBPath = strings.TrimPrefix(mainDBPath, "file:")
	if i := strings.IndexByte(mainDBPath, '?'); i >= 0 {
		mainDBPath = mainDBPath[:i]
	}

	ext := filepath.Ext(mainDBPath)
	return strings.TrimSuffix(filepath.Clean(mainDBPath), ext) + "-tasks" + ext
}

func openQueueDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+tasksDSNOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	// One connection per worker plus headroom for enqueues from the scheduler.
	db.SetMaxOpenConns(workers + 2)
	db.SetMaxIdleConns(workers + 1)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// NewClient opens (and if needed creates) the queue database that sits next
// to mainDBPath and installs the backlite schema.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}

	db, err := openQueueDB(TasksDBPath(mainDBPath), cfg.Workers)
	if err != nil {
		return nil, err
	}

	queue, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          taskLogger{},
	})
	if err == nil {
		err = queue.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up task queue: %w", err)
	}

	return &Client{queue: queue, db: db, workers: cfg.Workers}, nil
}

// Register adds queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.queue.Register(q)
	}
}

// Start launches the workers. A second call is a no-op.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true

	log.Printf("[TASK] queue started with %d workers", c.workers)
	c.queue.Start(ctx)
}

// Stop waits for running tasks until ctx expires and reports whether they
// all finished.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.Lock()
	running := c.running
	c.running = false
	c.mu.Unlock()
	if !running {
		return true
	}

	drained := c.queue.Stop(ctx)
	log.Printf("[TASK] queue stopped (drained=%t)", drained)
	return drained
}

// Close closes the queue database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.queue.Add(tasks...)
}

// taskLogger routes backlite's logging through the standard logger.
type taskLogger struct{}

func (taskLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (taskLogger) Error(message string, params ...any) {
	log.Printf("[TASK] error: "+message, params...)
}
