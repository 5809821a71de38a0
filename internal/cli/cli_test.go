package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mrlokans/heartcheck/internal/auth"
	"github.com/mrlokans/heartcheck/internal/database"
	"github.com/mrlokans/heartcheck/internal/database/users"
	"github.com/mrlokans/heartcheck/internal/entities"
)

func TestCreateUserCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	var out bytes.Buffer
	cmd := NewCreateUserCommand()
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{
		"-name", "Alice", "-email", "Alice@Example.com", "-password", "Secr3t!", "-db", dbPath, "-cost", "4",
	}))
	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "email=alice@example.com")

	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	user, err := users.NewRepository(db.DB).FindByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.FullName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Secr3t!")))

	t.Run("duplicate email fails", func(t *testing.T) {
		dup := NewCreateUserCommand()
		dup.Out = &bytes.Buffer{}
		require.NoError(t, dup.ParseFlags([]string{
			"-name", "Other", "-email", "alice@example.com", "-password", "Secr3t!", "-db", dbPath, "-cost", "4",
		}))
		err := dup.Run()
		assert.ErrorIs(t, err, auth.ErrDuplicateEmail)
	})

	t.Run("short password fails", func(t *testing.T) {
		weak := NewCreateUserCommand()
		require.NoError(t, weak.ParseFlags([]string{
			"-name", "Bob", "-email", "bob@example.com", "-password", "abc", "-db", dbPath, "-cost", "4",
		}))
		assert.ErrorIs(t, weak.Run(), auth.ErrPasswordTooShort)
	})
}

func TestCreateUserCommand_RequiresFlags(t *testing.T) {
	cmd := NewCreateUserCommand()
	err := cmd.ParseFlags([]string{"-email", "alice@example.com"})
	assert.Error(t, err)
}

func TestHashPasswordCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := NewHashPasswordCommand()
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-password", "Secr3t!", "-cost", "4"}))
	require.NoError(t, cmd.Run())

	hash := strings.TrimSpace(out.String())
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"), hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Secr3t!")))

	assert.Error(t, NewHashPasswordCommand().ParseFlags(nil))
}

func TestCleanupAuditCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cli.db")

	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)
	old := &entities.AuditEvent{EventType: entities.AuditEventAuth, Action: "login", Status: entities.AuditStatusSuccess}
	fresh := &entities.AuditEvent{EventType: entities.AuditEventAuth, Action: "login", Status: entities.AuditStatusSuccess}
	require.NoError(t, db.DB.Create(old).Error)
	require.NoError(t, db.DB.Create(fresh).Error)
	require.NoError(t, db.DB.Model(old).Update("created_at", time.Now().AddDate(0, 0, -60)).Error)
	require.NoError(t, db.Close())

	var out bytes.Buffer
	cmd := NewCleanupAuditCommand()
	cmd.Out = &out
	require.NoError(t, cmd.ParseFlags([]string{"-db", dbPath, "-days", "30"}))
	require.NoError(t, cmd.Run())
	assert.Contains(t, out.String(), "Deleted 1 audit events")

	assert.Error(t, NewCleanupAuditCommand().ParseFlags([]string{"-days", "0"}))
}

func TestCleanupAuditCommand_DefaultsFromEnvironment(t *testing.T) {
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("AUDIT_RETENTION_DAYS", "7")
	t.Setenv("DATABASE_PATH", filepath.Join(t.TempDir(), "env.db"))

	cmd := NewCleanupAuditCommand()
	require.NoError(t, cmd.ParseFlags(nil))

	assert.Equal(t, 7, cmd.RetentionDays)
	assert.Equal(t, os.Getenv("DATABASE_PATH"), cmd.DatabasePath)

	require.NoError(t, cmd.ParseFlags([]string{"-days", "90"}))
	assert.Equal(t, 90, cmd.RetentionDays)
}
