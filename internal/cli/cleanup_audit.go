package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrlokans/heartcheck/internal/audit"
	"github.com/mrlokans/heartcheck/internal/config"
	"github.com/mrlokans/heartcheck/internal/database"
	auditRepo "github.com/mrlokans/heartcheck/internal/database/audit"
)

// CleanupAuditCommand deletes audit events older than the retention period
// immediately, without waiting for the scheduled task.
type CleanupAuditCommand struct {
	DatabasePath  string
	RetentionDays int

	Out io.Writer
}

func NewCleanupAuditCommand() *CleanupAuditCommand {
	return &CleanupAuditCommand{Out: os.Stdout}
}

func (cmd *CleanupAuditCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("cleanup-audit", flag.ExitOnError)

	// Defaults follow the server's settings so both prune the same events.
	cfg := config.NewConfig()
	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the database file (DATABASE_PATH)")
	fs.IntVar(&cmd.RetentionDays, "days", cfg.Audit.RetentionDays, "Keep events newer than this many days (AUDIT_RETENTION_DAYS)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s cleanup-audit [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete audit events older than the retention period.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.RetentionDays <= 0 {
		fs.Usage()
		return fmt.Errorf("days must be positive, got %d", cmd.RetentionDays)
	}

	return nil
}

func (cmd *CleanupAuditCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	service := audit.NewService(auditRepo.NewRepository(db.DB))
	deleted, err := service.DeleteOldEvents(context.Background(), time.Duration(cmd.RetentionDays)*24*time.Hour)
	if err != nil {
		return fmt.Errorf("failed to delete audit events: %w", err)
	}

	fmt.Fprintf(cmd.Out, "Deleted %d audit events older than %d days\n", deleted, cmd.RetentionDays)
	return nil
}
