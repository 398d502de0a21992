// Command vetrina-admin performs maintenance tasks against the vetrina
// database: creating accounts, listing them, and sweeping expired
// sessions. It talks to the database directly and can run while the
// server is up.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/platinummonkey/vetrina/pkg/auth"
	"github.com/platinummonkey/vetrina/pkg/config"
	"github.com/platinummonkey/vetrina/pkg/session"
	"github.com/platinummonkey/vetrina/pkg/storage"
)

func main() {
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fatal("loading configuration: %v", err)
	}

	store, err := storage.Open(cfg.StorageConfig())
	if err != nil {
		fatal("opening storage: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	switch cmd := flag.Arg(0); cmd {
	case "create-user":
		err = createUser(ctx, store, flag.Args()[1:])
	case "list-users":
		err = listUsers(ctx, store)
	case "cleanup-sessions":
		err = cleanupSessions(ctx, store)
	default:
		fatal("unknown command: %s", cmd)
	}
	if err != nil {
		fatal("%v", err)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: vetrina-admin <command> [args]

Commands:
  create-user -username <name> -email <email> [-admin]
        create an account, prompting for the password
  list-users
        print all accounts
  cleanup-sessions
        delete expired session rows

Configuration comes from VETRINA_* environment variables, the same as
the server.
`)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func createUser(ctx context.Context, store *storage.Store, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	username := fs.String("username", "", "username for the new account")
	email := fs.String("email", "", "email for the new account")
	admin := fs.Bool("admin", false, "grant the admin role")
	fs.Parse(args)

	if *username == "" || *email == "" {
		return fmt.Errorf("create-user requires -username and -email")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	role := auth.RoleUser
	if *admin {
		role = auth.RoleAdmin
	}

	user, err := store.Users().Create(ctx, *username, hash, *email, role)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	fmt.Printf("created user %q (id %d, role %s)\n", user.Username, user.ID, user.Role)
	return nil
}

// promptPassword reads the password twice without echo
func promptPassword() (string, error) {
	if !term.IsTerminal(int(syscall.Stdin)) {
		return "", fmt.Errorf("create-user needs an interactive terminal for the password prompt")
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}

	fmt.Fprint(os.Stderr, "Confirm password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password confirmation: %w", err)
	}

	password := strings.TrimSpace(string(first))
	if password == "" {
		return "", fmt.Errorf("password must not be empty")
	}
	if password != strings.TrimSpace(string(second)) {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}

func listUsers(ctx context.Context, store *storage.Store) error {
	users, err := store.Users().List(ctx)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tROLE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			u.ID, u.Username, u.Email, u.Role, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func cleanupSessions(ctx context.Context, store *storage.Store) error {
	registry := session.NewRegistry(store.DB())
	deleted, err := registry.CleanupExpired(ctx)
	if err != nil {
		return fmt.Errorf("cleaning up sessions: %w", err)
	}
	fmt.Printf("deleted %d expired sessions\n", deleted)
	return nil
}
