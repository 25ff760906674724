// Command fintrack-admin manages accounts directly against the database.
//
// Usage:
//
//	fintrack-admin adduser -username alice -email alice@example.com
//	fintrack-admin reset-password -email alice@example.com
//
// The password is prompted for when -password is omitted.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"

	"fintrack/internal/backend"
	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
	"fintrack/internal/services"
)

func main() {
	cli.LoadEnvFile()
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: fintrack-admin <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  adduser         create an account")
	fmt.Fprintln(w, "  reset-password  set a new password and sign out every session")
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	var err error
	switch args[0] {
	case "adduser":
		err = addUser(args[1:], stdin, stdout, stderr)
	case "reset-password":
		err = resetPassword(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n", args[0])
		usage(stderr)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	default:
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
}

type accountTools struct {
	users    *services.UserService
	sessions *services.SessionService
	cleanup  backend.CleanupFunc
}

// openAccounts opens the SQLite database at dbPath with the configured
// bcrypt cost.
func openAccounts(ctx context.Context, dbPath string, stderr io.Writer) (*accountTools, error) {
	if dir := filepath.Dir(dbPath); dbPath != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	logger := log.New(log.Config{
		Level:     slog.LevelWarn,
		Component: log.ComponentAdmin,
		Output:    stderr,
	})
	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backend.Config{
		Type:         backend.SQLiteBackend,
		SQLiteDBPath: dbPath,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := result.Store
	cfg := config.Load()
	return &accountTools{
		users: services.NewUserService(services.UserStores{
			Users:        store,
			Transactions: store,
			Categories:   store,
			Budgets:      store,
			Savings:      store,
		}, services.NewPasswordHasher(cfg.BcryptCost)),
		sessions: services.NewSessionService(store, store, cfg.SessionTTL),
		cleanup:  result.Cleanup,
	}, nil
}

func addUser(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)

	username := fs.String("username", "", "Username")
	email := fs.String("email", "", "Email address used to log in")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	dbPath := fs.String("db", config.Load().SQLiteDBPath, "Path to the SQLite database")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *username == "" || *email == "" {
		fmt.Fprintln(stderr, "Usage: fintrack-admin adduser -username <name> -email <email> [-password <password>] [-db <path>]")
		fs.PrintDefaults()
		return errors.New("missing required flags: username, email")
	}

	password, err := passwordFrom(*passwordFlag, stdin, stdout)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tools, err := openAccounts(ctx, *dbPath, stderr)
	if err != nil {
		return err
	}
	defer tools.cleanup()

	u, err := tools.users.Register(ctx, *username, *email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "User %s <%s> created with ID %d\n", u.Username, u.Email, u.ID)
	return nil
}

func resetPassword(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("reset-password", flag.ContinueOnError)
	fs.SetOutput(stderr)

	email := fs.String("email", "", "Email address of the account")
	passwordFlag := fs.String("password", "", "New password (optional, will prompt if omitted)")
	dbPath := fs.String("db", config.Load().SQLiteDBPath, "Path to the SQLite database")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fmt.Fprintln(stderr, "Usage: fintrack-admin reset-password -email <email> [-password <password>] [-db <path>]")
		fs.PrintDefaults()
		return errors.New("missing required flags: email")
	}

	password, err := passwordFrom(*passwordFlag, stdin, stdout)
	if err != nil {
		return err
	}

	ctx := context.Background()
	tools, err := openAccounts(ctx, *dbPath, stderr)
	if err != nil {
		return err
	}
	defer tools.cleanup()

	u, err := tools.users.SetPassword(ctx, *email, password)
	if err != nil {
		return err
	}
	if err := tools.sessions.RevokeAll(ctx, u.ID); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	fmt.Fprintf(stdout, "Password updated for %s, all sessions signed out\n", u.Email)
	return nil
}

func passwordFrom(flagValue string, stdin io.Reader, stdout io.Writer) (string, error) {
	password := flagValue
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password cannot be empty")
	}
	return password, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests.
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
