// Package app owns the server lifecycle: database pool, migrations and the HTTP listener.
package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/and161185/card-market/internal/config"
	"github.com/and161185/card-market/internal/limiter"
	"github.com/and161185/card-market/internal/migrate"
	"github.com/and161185/card-market/internal/repository/postgres"
	"github.com/and161185/card-market/internal/server/httpapi"
	"github.com/and161185/card-market/internal/service"
	"github.com/and161185/card-market/internal/token"
)

// App runs the card market server. Start and Stop are idempotent and safe
// for concurrent use.
type App struct {
	cfg *config.Config
	log *zap.Logger

	// replaced in tests
	migrateUp func(ctx context.Context, dsn string) (int64, error)
	openDB    func(ctx context.Context, dsn string) (*postgres.DB, error)

	mu      sync.Mutex
	running bool
	db      *postgres.DB
	web     *fiber.App
	ln      net.Listener
	done    chan struct{}
	errCh   chan error
}

// New constructs an App. Nothing is opened until Start.
func New(cfg *config.Config, log *zap.Logger) *App {
	if log == nil {
		log = zap.NewNop()
	}
	return &App{
		cfg:       cfg,
		log:       log,
		migrateUp: migrate.Up,
		openDB:    postgres.New,
		errCh:     make(chan error, 1),
	}
}

// Running reports whether the app has been started and not stopped.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Addr returns the bound listen address, or "" when stopped.
func (a *App) Addr() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ln == nil {
		return ""
	}
	return a.ln.Addr().String()
}

// Err delivers a serve error if the listener fails after Start.
func (a *App) Err() <-chan error { return a.errCh }

// Start applies migrations, opens the pool and starts serving.
// Calling Start on a running app is a no-op.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return nil
	}

	ver, err := a.migrateUp(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	a.log.Info("schema ready", zap.Int64("version", ver))
	db, err := a.openDB(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	ln, err := a.listen()
	if err != nil {
		db.Close()
		return err
	}

	web := a.build(db)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := web.Listener(ln); err != nil && !errors.Is(err, net.ErrClosed) {
			select {
			case a.errCh <- err:
			default:
			}
		}
	}()

	a.db, a.web, a.ln, a.done = db, web, ln, done
	a.running = true
	a.log.Info("listening", zap.String("addr", ln.Addr().String()), zap.Bool("tls", a.cfg.TLSCert != ""))
	return nil
}

// Stop shuts the HTTP server down gracefully and closes the pool.
// Calling Stop on a stopped app is a no-op.
func (a *App) Stop(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.running {
		return nil
	}

	err := a.web.ShutdownWithContext(ctx)
	// the serve goroutine may not have registered the listener yet
	_ = a.ln.Close()
	select {
	case <-a.done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}
	a.db.Close()

	a.db, a.web, a.ln, a.done = nil, nil, nil, nil
	a.running = false
	a.log.Info("stopped")
	return err
}

func (a *App) listen() (net.Listener, error) {
	ln, err := net.Listen("tcp", a.cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", a.cfg.Addr, err)
	}
	if a.cfg.TLSCert == "" {
		return ln, nil
	}
	cert, err := tls.LoadX509KeyPair(a.cfg.TLSCert, a.cfg.TLSKey)
	if err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("load tls cert/key: %w", err)
	}
	return tls.NewListener(ln, &tls.Config{Certificates: []tls.Certificate{cert}, MinVersion: tls.VersionTLS12}), nil
}

// build wires repositories, services and handlers over db.
func (a *App) build(db *postgres.DB) *fiber.App {
	users := postgres.NewUserRepo(db)
	cards := postgres.NewCardRepo(db)

	lim := limiter.NewPG(db.Pool, limiter.Settings{
		Window:   a.cfg.LoginWindow,
		MaxFails: a.cfg.LoginMaxFails,
		BlockFor: a.cfg.LoginBlockFor,
	})
	var authLim limiter.Limiter = lim
	if a.cfg.LoginMaxFails == 0 {
		authLim = limiter.Nop{}
	}

	tokens := token.NewService([]byte(a.cfg.JWTSecret), a.cfg.TokenTTL)
	authSvc := service.NewAuthService(users, tokens, authLim)
	cardSvc := service.NewCardService(cards)

	return httpapi.New(authSvc, cardSvc, a.log, httpapi.Options{
		CORSOrigin: a.cfg.CORSOrigin,
		AuthBurst:  a.cfg.AuthBurst,
	}).App()
}
