package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/seplag/discoteca/internal/album"
	"github.com/seplag/discoteca/internal/api"
	"github.com/seplag/discoteca/internal/artist"
	"github.com/seplag/discoteca/internal/auth"
	"github.com/seplag/discoteca/internal/config"
	"github.com/seplag/discoteca/internal/domain"
	"github.com/seplag/discoteca/internal/log"
	"github.com/seplag/discoteca/internal/notify"
	"github.com/seplag/discoteca/internal/realtime"
	"github.com/seplag/discoteca/internal/regional"
	"github.com/seplag/discoteca/internal/store"
	"github.com/seplag/discoteca/internal/tui"
)

// Version is set at build time via -ldflags
var Version = "dev"

const maxLoginAttempts = 3

func main() {
	var showVersion, register bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&register, "register", false, "create an account before signing in")
	flag.Parse()

	if showVersion {
		fmt.Printf("discoteca %s\n", Version)
		return
	}

	if err := run(register); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(register bool) error {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Setup logger
	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting discoteca", "version", Version, "api", cfg.API.BaseURL)

	kv, err := store.NewBoltStore(cfg.Session.File)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer kv.Close()
	creds := store.NewCredentials(kv)

	center := notify.NewCenter(logger)
	maxRetries := cfg.RateLimit.MaxRetries
	if maxRetries == 0 {
		maxRetries = -1 // zero in the config means no retries
	}
	client := api.NewClient(api.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		MaxRetries: maxRetries,
		BaseDelay:  cfg.RateLimit.BaseDelay,
		CacheTTL:   cfg.Cache.TTL,
		Notifier:   center,
	}, creds, logger)

	authSvc := auth.NewService(client, creds, logger)
	client.SetSessionExpiredHandler(authSvc.HandleSessionExpired)

	if register || !authSvc.IsAuthenticated() {
		if err := runLoginFlow(authSvc, center, register); err != nil {
			return err
		}
	}

	// Create services
	artistSvc := artist.NewService(client, cfg.Cache.TTL, logger)
	albumSvc := album.NewService(client, cfg.Cache.TTL, logger)
	regionalSvc := regional.NewService(client, cfg.Cache.TTL, logger)

	channel := realtime.NewChannel(&realtime.StompDialer{
		URL:       cfg.WebSocketURL(),
		Token:     creds.AccessToken,
		Heartbeat: cfg.Realtime.Heartbeat,
	}, realtime.Options{
		Topics:         cfg.Realtime.Topics,
		ReconnectDelay: cfg.Realtime.ReconnectDelay,
	}, logger)

	router := notify.NewRouter(channel.Notifications(), center, artistSvc, albumSvc, logger)
	router.Start()
	defer router.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	channel.Connect(ctx)
	defer channel.Disconnect()

	model := tui.NewModel(tui.Services{
		Artists:   artistSvc,
		Albums:    albumSvc,
		Regionals: regionalSvc,
		Auth:      authSvc,
		Realtime:  channel,
		Toasts:    center,
	}, cfg.UI.PageSize)

	p := tea.NewProgram(model, tea.WithAltScreen())

	logger.Info("starting TUI")

	final, err := p.Run()
	if err != nil {
		logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}

	if m, ok := final.(tui.Model); ok {
		switch {
		case m.Expired:
			fmt.Println("Session expired. Run discoteca again to sign in.")
		case m.LoggedOut:
			fmt.Println("Signed out.")
		}
	}

	logger.Info("shutting down")
	return nil
}

// runLoginFlow prompts for credentials until sign-in succeeds or the
// attempts run out. Toasts raised meanwhile are printed.
func runLoginFlow(authSvc *auth.Service, center *notify.Center, register bool) error {
	unsubscribe := center.Toasts().Subscribe(func(t notify.Toast) {
		fmt.Println(t.Message)
	})
	defer unsubscribe()

	reader := bufio.NewReader(os.Stdin)

	fmt.Println()
	if register {
		fmt.Println("Create your discoteca account")
	} else {
		fmt.Println("Sign in to discoteca")
	}
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━")

	for attempt := 1; attempt <= maxLoginAttempts; attempt++ {
		creds, err := promptCredentials(reader, register)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Println("Authenticating...")

		ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
		var user *domain.User
		if register {
			user, err = authSvc.Register(ctx, creds)
		} else {
			user, err = authSvc.Login(ctx, creds)
		}
		cancel()

		if err == nil {
			fmt.Printf("Signed in as %s\n", user.Username)
			return nil
		}
		if !api.IsSurfaced(err) {
			fmt.Printf("✗ %s\n", loginErrorMessage(err))
		}
		if errors.Is(err, domain.ErrServerOffline) {
			return fmt.Errorf("authentication failed: %w", err)
		}
		fmt.Println()
	}
	return errors.New("authentication failed: too many attempts")
}

func promptCredentials(reader *bufio.Reader, register bool) (domain.Credentials, error) {
	var creds domain.Credentials

	fmt.Print("Username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return creds, fmt.Errorf("failed to read username: %w", err)
	}
	creds.Username = strings.TrimSpace(username)

	if register {
		fmt.Print("Email: ")
		email, err := reader.ReadString('\n')
		if err != nil {
			return creds, fmt.Errorf("failed to read email: %w", err)
		}
		creds.Email = strings.TrimSpace(email)
	}

	fmt.Print("Password: ")
	password, err := readPassword(reader)
	if err != nil {
		return creds, fmt.Errorf("failed to read password: %w", err)
	}
	creds.Password = password
	return creds, nil
}

// readPassword hides the input on a terminal and reads a plain line otherwise
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		return strings.TrimRight(line, "\r\n"), err
	}
	b, err := term.ReadPassword(fd)
	fmt.Println() // Add newline after hidden input
	return string(b), err
}

func loginErrorMessage(err error) string {
	if errors.Is(err, domain.ErrUnauthorized) {
		return "Invalid username or password"
	}
	return api.ErrorMessage(err, "")
}
