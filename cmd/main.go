package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"eventplanner/internal/api"
	"eventplanner/internal/models"
	"eventplanner/internal/planner"
	"eventplanner/internal/session"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "eventplanner",
		Usage: "Organize events, invites, attendance, and tasks from the command line.",
		Commands: []*cli.Command{
			signupCommand(),
			loginCommand(),
			logoutCommand(),
			whoamiCommand(),
			eventsCommand(),
			createCommand(),
			deleteCommand(),
			showCommand(),
			inviteCommand(),
			attendCommand(),
			taskCommand(),
			searchCommand(),
			exportCommand(),
			publishCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// app wires the session store, API client, and planner together. Every
// command builds one from the environment.
type app struct {
	logger  *slog.Logger
	store   *session.Store
	planner *planner.Planner
}

func newApp() (*app, error) {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger := setupLogger(logLevel)

	backendURL := os.Getenv("BACKEND_URL")
	if backendURL == "" {
		return nil, fmt.Errorf("BACKEND_URL environment variable not set")
	}

	sessionFile := os.Getenv("SESSION_FILE")
	if sessionFile == "" {
		sessionFile = "session.json"
	}

	store, err := session.NewStore(logger, sessionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	client := api.NewClient(logger, backendURL, store)
	return &app{
		logger:  logger,
		store:   store,
		planner: planner.New(logger, client, store),
	}, nil
}

func (a *app) requireLogin() (models.User, error) {
	user, logged := a.store.Current()
	if !logged {
		return models.User{}, fmt.Errorf("not logged in. Run the 'login' command first")
	}
	return user, nil
}

func signupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Create an account and log in.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "name", Usage: "Your display name.", Required: true},
			&cli.StringFlag{Name: "email", Usage: "Your email address.", Required: true},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			password := prompt("Enter password: ")
			confirm := prompt("Confirm password: ")

			user, err := a.planner.SignUp(c.Context, models.SignupParams{
				Name:            c.String("name"),
				Email:           c.String("email"),
				Password:        password,
				ConfirmPassword: confirm,
			})
			if errors.Is(err, planner.ErrLoginAfterSignup) {
				// The account exists even though the session could not be
				// established; signing up again would only hit a duplicate.
				fmt.Println("Account created, but logging in failed. Run the 'login' command to start a session.")
				return nil
			}
			if err != nil {
				return err
			}

			fmt.Printf("Welcome, %s! You are now logged in.\n", user.Name)
			return nil
		},
	}
}

func loginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in to an existing account.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Usage: "Your email address.", Required: true},
		},
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}

			password := prompt("Enter password: ")

			user, err := a.planner.LogIn(c.Context, c.String("email"), password)
			if err != nil {
				return err
			}
			fmt.Printf("Welcome back, %s!\n", user.Name)
			return nil
		},
	}
}

func logoutCommand() *cli.Command {
	return &cli.Command{
		Name:  "logout",
		Usage: "Clear the local session. No network call is made.",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			if err := a.planner.LogOut(); err != nil {
				return err
			}
			fmt.Println("Logged out.")
			return nil
		},
	}
}

func whoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the currently logged-in user.",
		Action: func(c *cli.Context) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			user, logged := a.store.Current()
			if !logged {
				fmt.Println("Not logged in.")
				return nil
			}
			fmt.Printf("%s <%s> (id %d)\n", user.Name, user.Email, user.ID)
			return nil
		},
	}
}

// prompt reads one trimmed line from stdin.
func prompt(label string) string {
	fmt.Print(label)
	reader := bufio.NewReader(os.Stdin)
	value, _ := reader.ReadString('\n')
	return strings.TrimSpace(value)
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
