// Package session owns the lifecycle of the authenticated session:
// Anonymous -> (login success) -> Authenticated -> (expiry | backend 401 |
// explicit logout) -> Anonymous. There are no other states; refresh, when
// the backend performs it, is invisible here.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/carthage-creances/gardien/api"
	"github.com/carthage-creances/gardien/credstore"
	"github.com/carthage-creances/gardien/identity"
	"github.com/carthage-creances/gardien/logger"
	"github.com/carthage-creances/gardien/role"
)

// DefaultLogoutTimeout bounds the best-effort backend logout notification.
const DefaultLogoutTimeout = 3 * time.Second

// Manager ties the credential store, the resolver, and the backend client
// together. It is the only writer of the credential store besides the
// resolver's denormalization, and the only caller of the resolver's
// cache-invalidation hook.
type Manager struct {
	client   *api.Client
	store    credstore.Store
	resolver *Resolver
	log      logger.Logger

	// Pending is the route to deliver the user to after the next login.
	Pending PendingDestination

	logoutTimeout time.Duration

	// tearingDown breaks the loop where the teardown's own backend call
	// comes back 401 and re-triggers the session-expired handler.
	tearingDown atomic.Bool
}

// NewManager wires a Manager over the client and store. If the store holds
// a surviving session, its token is installed on the client so the first
// outbound request is already authenticated.
func NewManager(client *api.Client, store credstore.Store, log logger.Logger) (*Manager, error) {
	resolver, err := NewResolver(client, store, log)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		client:        client,
		store:         store,
		resolver:      resolver,
		log:           log.WithSubsystem("session"),
		logoutTimeout: DefaultLogoutTimeout,
	}

	if rec, err := store.Get(); err == nil && rec.Token != "" {
		client.SetToken(rec.Token)
	}

	client.SetSessionExpiredHandler(m.onSessionExpired)

	return m, nil
}

// Resolver exposes the identity resolver for components that only read.
func (m *Manager) Resolver() *Resolver {
	return m.resolver
}

// Login authenticates against the backend and, on success, atomically
// installs the new session: store record, client token, resolver fast
// path. It returns the resolved identity and the landing route (the
// pending destination when one was recorded, the role's default
// otherwise).
func (m *Manager) Login(ctx context.Context, email, password string) (*identity.Identity, string, error) {
	login, err := m.client.Authenticate(ctx, email, password)
	if err != nil {
		return nil, "", err
	}

	if missing := login.Missing(); len(missing) > 0 {
		// The user sees only a generic credential error; which fields the
		// backend dropped is an internal matter.
		m.log.Error("login response incomplete",
			logger.Any("missing_fields", missing),
		)
		return nil, "", api.ErrInvalidCredentials
	}

	id := IdentityFromLogin(login, m.log)

	// Whole-record write: token and identity land together or not at all.
	if err := m.store.Put(&credstore.Record{
		Token:    login.Token,
		Identity: id,
		SavedAt:  time.Now(),
	}); err != nil {
		return nil, "", err
	}

	m.client.SetToken(login.Token)
	m.resolver.Invalidate()
	m.resolver.NoteLogin(id)

	dest := role.DestinationFor(id.Role)
	if pending, ok := m.Pending.Consume(); ok {
		dest = pending
	}

	m.log.Info("login succeeded",
		logger.String("user_id", id.ID),
		logger.String("role", id.Role.String()),
		logger.String("destination", dest),
	)

	return id, dest, nil
}

// Current resolves the current identity. A client-side-expired token is
// cleaned up here (storage cleared, no backend call) so stale credentials
// do not linger.
func (m *Manager) Current(ctx context.Context) Resolution {
	res := m.resolver.Resolve(ctx)
	if res.Status == StatusExpired {
		m.log.Info("stored token expired, clearing session")
		m.teardown(false)
	}
	return res
}

// Logout is the explicit teardown: best-effort backend notification, then
// unconditional local cleanup. Idempotent, and safe to call when no
// session exists at all. It returns the route the shell should navigate
// to, which is always the login page.
func (m *Manager) Logout(ctx context.Context) string {
	m.teardown(true)
	_ = ctx // the notification uses its own bounded context
	return role.LoginRoute
}

// onSessionExpired is installed as the client's 401 hook. It must leave
// storage cleared before returning, because the rejected request's caller
// resumes immediately after.
func (m *Manager) onSessionExpired(requestPath string) {
	if m.tearingDown.Load() {
		// The rejection came from teardown's own logout call.
		return
	}
	m.log.Info("backend rejected credential, tearing session down",
		logger.String("request_path", requestPath),
	)
	m.Pending.Set(requestPath)
	// No backend notification: the credential was just rejected.
	m.teardown(false)
}

// teardown clears every storage location holding session state. The
// backend call, when requested, is fire-and-forget: its failure is logged
// at debug and otherwise swallowed.
func (m *Manager) teardown(notifyBackend bool) {
	if !m.tearingDown.CompareAndSwap(false, true) {
		return
	}
	defer m.tearingDown.Store(false)

	if notifyBackend && m.client.Token() != "" {
		ctx, cancel := context.WithTimeout(context.Background(), m.logoutTimeout)
		defer cancel()
		if err := m.client.Logout(ctx); err != nil {
			m.log.Debug("best-effort logout notification failed", logger.Err(err))
		}
	}

	if err := m.store.Clear(); err != nil {
		m.log.Error("failed to clear credential store", logger.Err(err))
	}
	m.client.ClearToken()
	m.resolver.Invalidate()
}
