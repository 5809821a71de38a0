package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/mrlokans/heartcheck/internal/auth"
)

// HashPasswordCommand prints a bcrypt hash, e.g. for seeding fixtures.
type HashPasswordCommand struct {
	Password   string
	BcryptCost int

	Out io.Writer
}

func NewHashPasswordCommand() *HashPasswordCommand {
	return &HashPasswordCommand{Out: os.Stdout}
}

func (cmd *HashPasswordCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("hash-password", flag.ExitOnError)

	fs.StringVar(&cmd.Password, "password", "", "Password to hash (required)")
	fs.IntVar(&cmd.BcryptCost, "cost", 12, "bcrypt work factor")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s hash-password [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Print a bcrypt hash of the given password.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Password == "" {
		fs.Usage()
		return fmt.Errorf("password is required")
	}

	return nil
}

func (cmd *HashPasswordCommand) Run() error {
	hash, err := auth.NewHasher(cmd.BcryptCost, 1).Hash(context.Background(), cmd.Password)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Out, hash)
	return nil
}
