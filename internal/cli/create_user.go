package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/heartcheck/internal/auth"
	"github.com/mrlokans/heartcheck/internal/config"
	"github.com/mrlokans/heartcheck/internal/database"
	"github.com/mrlokans/heartcheck/internal/database/users"
)

// CreateUserCommand registers an account directly in the database, applying
// the same validation as POST /signup.
type CreateUserCommand struct {
	FullName     string
	Email        string
	Password     string
	DatabasePath string
	BcryptCost   int

	Out io.Writer
}

func NewCreateUserCommand() *CreateUserCommand {
	return &CreateUserCommand{Out: os.Stdout}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)

	fs.StringVar(&cmd.FullName, "name", "", "Full name of the user (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email address used to log in (required)")
	fs.StringVar(&cmd.Password, "password", "", "Initial password (required)")
	cfg := config.NewConfig()
	fs.StringVar(&cmd.DatabasePath, "db", cfg.Database.Path, "Path to the database file (DATABASE_PATH)")
	fs.IntVar(&cmd.BcryptCost, "cost", cfg.Auth.BcryptCost, "bcrypt work factor (AUTH_BCRYPT_COST)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a user account without going through the HTTP API.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -name \"Alice\" -email alice@example.com -password 'Secr3t!'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s create-user -name \"Bob\" -email bob@example.com -password 'hunter22' -db ./prod.db\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.FullName == "" || cmd.Email == "" || cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("name, email and password are required")
	}

	return nil
}

func (cmd *CreateUserCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	// Registration never issues a token, so no signing key is needed here.
	service := auth.NewService(users.NewRepository(db.DB), auth.NewHasher(cmd.BcryptCost, 1), nil)

	user, err := service.Register(context.Background(), cmd.FullName, cmd.Email, cmd.Password)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(cmd.Out, "Created user id=%d email=%s\n", user.ID, user.Email)
	return nil
}
