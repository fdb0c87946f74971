// Package app wires the client core together: credential store,
// gateway, auth state machine, order manager, catalog cache and the
// notification center. Screens receive this context instead of
// reaching into ambient globals.
package app

import (
	"context"
	"fmt"

	"github.com/queueless/queueless-go/internal/config"
	"github.com/queueless/queueless-go/internal/gateway"
	"github.com/queueless/queueless-go/internal/notify"
	"github.com/queueless/queueless-go/internal/services/auth"
	"github.com/queueless/queueless-go/internal/services/catalog"
	"github.com/queueless/queueless-go/internal/services/order"
	"github.com/queueless/queueless-go/internal/storage"
)

// App is the application context handed to every screen.
type App struct {
	Config  *config.Config
	Store   *storage.CredentialStore
	Gateway *gateway.Client
	Auth    *auth.Service
	Orders  *order.Manager
	Catalog *catalog.Service
	Notify  *notify.Center

	db       *storage.DB
	navReset func()
}

// New builds the full component graph and registers the session-expiry
// chain (gateway 401 -> auth teardown -> notification interrupt).
func New(cfg *config.Config) (*App, error) {
	db, err := storage.New(cfg.CredentialDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential store: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate credential store: %w", err)
	}

	store := storage.NewCredentialStore(db, cfg.CredentialSecret)
	gw := gateway.New(cfg.APIBaseURL, cfg.APITimeout, store)

	a := &App{
		Config:  cfg,
		Store:   store,
		Gateway: gw,
		Auth:    auth.NewService(gw, store),
		Orders:  order.NewManager(gw),
		Catalog: catalog.NewService(gw, 0),
		Notify:  notify.NewCenter(),
		db:      db,
	}

	gw.OnSessionExpired(a.onSessionExpired)
	return a, nil
}

// SetNavigationReset registers what "back to the login entry point"
// means for the front-end in use.
func (a *App) SetNavigationReset(fn func()) {
	a.navReset = fn
}

// SessionGeneration snapshots the auth generation before an
// authenticated fetch starts.
func (a *App) SessionGeneration() uint64 {
	return a.Auth.Generation()
}

// Apply runs apply only when the session generation still matches gen,
// and reports whether it ran. A fetch completing after a logout must
// not resurrect authenticated state.
func (a *App) Apply(gen uint64, apply func()) bool {
	if a.Auth.Generation() != gen {
		return false
	}
	apply()
	return true
}

// Logout tears down the session and every piece of session-scoped
// state. The in-memory transition never waits on the network.
func (a *App) Logout(ctx context.Context) {
	a.Auth.Logout(ctx)
	a.Orders.Reset()
	a.Catalog.Invalidate()
}

// onSessionExpired consumes the gateway's 401 signal. The interrupt is
// shown only when the signal actually tore down a live session; a 401
// racing an explicit logout stays silent.
func (a *App) onSessionExpired() {
	if !a.Auth.HandleSessionExpired() {
		return
	}

	a.Notify.SessionExpiredInterrupt(func() {
		a.Orders.Reset()
		a.Catalog.Invalidate()
		if a.navReset != nil {
			a.navReset()
		}
	})
}

// Close releases the credential store.
func (a *App) Close() error {
	return a.db.Close()
}
