// Package app wires configuration, storage and services together and
// implements the CLI use cases on top of them.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"ai-shopping-list/internal/api"
	"ai-shopping-list/internal/auth"
	"ai-shopping-list/internal/config"
	"ai-shopping-list/internal/database"
	"ai-shopping-list/internal/llm"
	"ai-shopping-list/internal/metrics"
	"ai-shopping-list/internal/session"
	"ai-shopping-list/internal/shopping"
	"ai-shopping-list/internal/suggest"

	"go.uber.org/zap"
)

// ErrSuggestionsDisabled is returned when no assistant is configured.
var ErrSuggestionsDisabled = errors.New("product suggestions are disabled: set SHOPPING_ASSISTANT to gemini or groq")

// App holds the application's dependencies.
type App struct {
	cfg          *config.Config
	logger       *zap.Logger
	out          io.Writer
	db           *database.DB
	metricsStore *metrics.Store
	client       *api.Client
	auth         *auth.Service
	lists        *shopping.Service
	textGen      llm.TextGenerator
	suggester    *suggest.Suggester
}

type Option func(*App)

// WithOutput redirects command output, stdout by default.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// New opens the database, restores the CLI session and builds the services.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{cfg: cfg, logger: logger, out: os.Stdout}
	for _, opt := range opts {
		opt(a)
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	a.db = db
	a.metricsStore = metrics.NewStore(db.SQL, logger)
	a.client = a.NewClient()

	store, err := a.sessionStore()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.auth, err = auth.NewService(ctx, a.client, store, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	a.lists = shopping.NewService(a.client, logger)

	if cfg.Assistant != "" && cfg.Assistant != config.AssistantNone {
		textGen, err := llm.NewFromConfig(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to initialize assistant: %w", err)
		}
		a.textGen = textGen
		a.suggester = suggest.New(textGen, logger, a.metricsStore)
	}
	return a, nil
}

func (a *App) sessionStore() (session.Store, error) {
	switch a.cfg.SessionStore {
	case config.SessionStoreSQLite:
		return session.NewSQLiteStore(a.db.SQL, "cli"), nil
	default:
		store, err := session.NewFileStore(a.cfg.SessionFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open session file: %w", err)
		}
		return store, nil
	}
}

// NewClient builds an API client whose requests are recorded as metrics.
// The bot calls it once per chat.
func (a *App) NewClient() *api.Client {
	return api.NewClient(a.cfg.APIBaseURL,
		api.WithTimeout(a.cfg.HTTPTimeout),
		api.WithTransport(metrics.NewTransport(http.DefaultTransport, a.metricsStore)),
		api.WithLogger(a.logger),
	)
}

// Close releases the assistant and the database.
func (a *App) Close() error {
	var errs []error
	if c, ok := a.textGen.(llm.Closer); ok {
		errs = append(errs, c.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

func (a *App) Config() *config.Config { return a.cfg }
func (a *App) DB() *database.DB { return a.db }
func (a *App) Metrics() *metrics.Store { return a.metricsStore }
func (a *App) Auth() *auth.Service { return a.auth }
func (a *App) Lists() *shopping.Service { return a.lists }
func (a *App) Suggester() *suggest.Suggester { return a.suggester }

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) requireLogin() error {
	if !a.auth.IsAuthenticated() {
		return fmt.Errorf("%w: run `ai-shopping-list login` first", auth.ErrNotAuthenticated)
	}
	return nil
}

// apiError logs the CLI out on a rejected token and returns err unchanged.
func (a *App) apiError(ctx context.Context, err error) error {
	if a.auth.HandleUnauthorized(ctx, err) {
		return fmt.Errorf("session expired, please log in again: %w", err)
	}
	return err
}
