package guard

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carthage-creances/gardien/api"
	"github.com/carthage-creances/gardien/credstore"
	"github.com/carthage-creances/gardien/identity"
	"github.com/carthage-creances/gardien/logger"
	"github.com/carthage-creances/gardien/role"
	"github.com/carthage-creances/gardien/session"
)

func forgeToken(t *testing.T, exp time.Time) string {
	t.Helper()

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS512"}`))
	payload, err := json.Marshal(map[string]any{
		"sub": "amira@carthage-creances.tn",
		"iat": exp.Add(-time.Hour).Unix(),
		"exp": exp.Unix(),
	})
	require.NoError(t, err)

	return header + "." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

// newGuard builds a guard whose session state is seeded directly into the
// store. The backend is never reachable; every test path resolves locally.
func newGuard(t *testing.T, seed *credstore.Record) (*Guard, *session.Manager) {
	t.Helper()

	old, had := os.LookupEnv(api.EnvGardienAddress)
	os.Unsetenv(api.EnvGardienAddress)
	if had {
		t.Cleanup(func() { os.Setenv(api.EnvGardienAddress, old) })
	}

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	config := api.DefaultConfig()
	require.NoError(t, config.Error)
	config.Address = srv.URL
	config.MaxRetries = 0

	client, err := api.NewClient(config)
	require.NoError(t, err)

	store := credstore.NewMemoryStore()
	if seed != nil {
		require.NoError(t, store.Put(seed))
	}

	m, err := session.NewManager(client, store, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(m.Resolver().Close)

	return New(m, logger.Discard()), m
}

func authenticatedSeed(t *testing.T, r role.Role) *credstore.Record {
	return &credstore.Record{
		Token: forgeToken(t, time.Now().Add(time.Hour)),
		Identity: &identity.Identity{
			ID:        "42",
			FirstName: "Amira",
			LastName:  "Ben Salah",
			Email:     "amira@carthage-creances.tn",
			Role:      r,
			Active:    true,
		},
		SavedAt: time.Now(),
	}
}

func TestGuard_PublicRoute(t *testing.T) {
	g, _ := newGuard(t, nil)

	d := g.Evaluate(context.Background(), Route{Path: "/apropos"})
	assert.Equal(t, Allow, d.Action)
	assert.Empty(t, d.Target)
}

func TestGuard_ProtectedRoute(t *testing.T) {
	t.Run("anonymous user is sent to login with the route preserved", func(t *testing.T) {
		g, m := newGuard(t, nil)

		d := g.Evaluate(context.Background(), Route{Path: "/dossiers/42", Protected: true})
		assert.Equal(t, RedirectLogin, d.Action)
		assert.Equal(t, "/login?redirect=%2Fdossiers%2F42", d.Target)

		pending, ok := m.Pending.Peek()
		require.True(t, ok)
		assert.Equal(t, "/dossiers/42", pending)
	})

	t.Run("authenticated user passes", func(t *testing.T) {
		g, _ := newGuard(t, authenticatedSeed(t, role.AgentDossier))

		d := g.Evaluate(context.Background(), Route{Path: "/dossiers/42", Protected: true})
		assert.Equal(t, Allow, d.Action)
	})

	t.Run("expired session is sent to login", func(t *testing.T) {
		seed := authenticatedSeed(t, role.AgentDossier)
		seed.Token = forgeToken(t, time.Now().Add(-time.Minute))
		g, _ := newGuard(t, seed)

		d := g.Evaluate(context.Background(), Route{Path: "/dossiers/42", Protected: true})
		assert.Equal(t, RedirectLogin, d.Action)
	})
}

func TestGuard_RoleRestrictedRoute(t *testing.T) {
	adminOnly := Route{
		Path:      "/superadmin/utilisateurs",
		Protected: true,
		Roles:     role.NewSet(role.SuperAdmin),
	}

	t.Run("matching role passes", func(t *testing.T) {
		g, _ := newGuard(t, authenticatedSeed(t, role.SuperAdmin))

		d := g.Evaluate(context.Background(), adminOnly)
		assert.Equal(t, Allow, d.Action)
	})

	t.Run("under-privileged role is denied, not logged out", func(t *testing.T) {
		g, m := newGuard(t, authenticatedSeed(t, role.AgentFinance))

		d := g.Evaluate(context.Background(), adminOnly)
		assert.Equal(t, Deny, d.Action)
		assert.Equal(t, role.UnauthorizedRoute, d.Target)

		// The session survives a role denial.
		res := m.Current(context.Background())
		assert.True(t, res.Usable())
	})

	t.Run("empty role set admits any authenticated user", func(t *testing.T) {
		g, _ := newGuard(t, authenticatedSeed(t, role.AgentAmiable))

		d := g.Evaluate(context.Background(), Route{Path: "/profil", Protected: true})
		assert.Equal(t, Allow, d.Action)
	})
}

func TestGuard_LoginRoute(t *testing.T) {
	t.Run("anonymous user may visit the login form", func(t *testing.T) {
		g, _ := newGuard(t, nil)

		d := g.Evaluate(context.Background(), Route{Path: role.LoginRoute})
		assert.Equal(t, Allow, d.Action)
	})

	t.Run("authenticated user bounces to their landing route", func(t *testing.T) {
		g, _ := newGuard(t, authenticatedSeed(t, role.ChefFinance))

		d := g.Evaluate(context.Background(), Route{Path: role.LoginRoute})
		assert.Equal(t, RedirectHome, d.Action)
		assert.Equal(t, "/chef-finance/dashboard", d.Target)
	})
}

func TestLoginRedirect(t *testing.T) {
	assert.Equal(t, "/login", LoginRedirect(""))
	assert.Equal(t, "/login?redirect=%2Fdossiers%2F42%3Fonglet%3Dpaiements",
		LoginRedirect("/dossiers/42?onglet=paiements"))
}
