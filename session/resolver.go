package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	ristretto "github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/singleflight"

	"github.com/carthage-creances/gardien/api"
	"github.com/carthage-creances/gardien/credstore"
	"github.com/carthage-creances/gardien/identity"
	"github.com/carthage-creances/gardien/logger"
	"github.com/carthage-creances/gardien/role"
	"github.com/carthage-creances/gardien/token"
)

// DefaultLookupTimeout bounds the backend "who am I" call so a hung network
// cannot wedge a guarded navigation. A timed-out lookup resolves to "no
// identity", never to an indefinite pending state.
const DefaultLookupTimeout = 10 * time.Second

// Resolver reconciles the current identity from its sources, in priority
// order: the in-memory result of a just-completed login, the identity
// cached in the credential store, and finally a backend lookup keyed by a
// valid token's subject. Concurrent callers share a single in-flight
// lookup.
type Resolver struct {
	client *api.Client
	store  credstore.Store
	log    logger.Logger

	group singleflight.Group

	// cache holds resolved identities keyed by the exact token string,
	// with TTL equal to the token's remaining lifetime, so an expired
	// token can never serve a stale identity.
	cache *ristretto.Cache[string, *identity.Identity]

	lookupTimeout time.Duration

	mu          sync.RWMutex
	loginResult *identity.Identity
}

// NewResolver creates a Resolver over the given backend client and store.
func NewResolver(client *api.Client, store credstore.Store, log logger.Logger) (*Resolver, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, *identity.Identity]{
		NumCounters: 1e4,
		MaxCost:     1 << 20, // 1 MB, a handful of identities
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize identity cache: %w", err)
	}

	return &Resolver{
		client:        client,
		store:         store,
		log:           log.WithSubsystem("resolver"),
		cache:         cache,
		lookupTimeout: DefaultLookupTimeout,
	}, nil
}

// SetLookupTimeout overrides the backend lookup timeout.
func (r *Resolver) SetLookupTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d > 0 {
		r.lookupTimeout = d
	}
}

// NoteLogin installs the identity built from a fresh login response as the
// resolver's fast path. Called only by the manager's login flow.
func (r *Resolver) NoteLogin(id *identity.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loginResult = id
}

// Invalidate drops every cached source: the login fast path and the
// token-keyed cache. Called only by login and teardown.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	r.loginResult = nil
	r.mu.Unlock()
	r.cache.Clear()
}

// Close releases the cache resources.
func (r *Resolver) Close() {
	r.cache.Close()
}

// Resolve determines the current identity. It never returns a raw error:
// every failure mode is folded into the Resolution status.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	// 1. Fast path: a login just completed in this process.
	r.mu.RLock()
	fresh := r.loginResult
	r.mu.RUnlock()
	if fresh != nil {
		return Resolution{Identity: fresh, Status: StatusAuthenticated}
	}

	rec, err := r.store.Get()
	if err != nil {
		if !errors.Is(err, credstore.ErrNotFound) {
			r.log.Error("failed to read credential store", logger.Err(err))
		}
		return Resolution{Status: StatusAnonymous}
	}
	if rec.Token == "" {
		return Resolution{Status: StatusAnonymous}
	}

	// The token gates everything below: a cached identity paired with an
	// expired or garbled token must not be served.
	claims := token.Decode(rec.Token)
	if claims == nil {
		r.log.Warn("stored token is malformed, treating as absent")
		return Resolution{Status: StatusAnonymous}
	}
	if !token.Valid(claims, time.Now()) {
		return Resolution{Status: StatusExpired}
	}

	// 2. The store already holds a denormalized identity.
	if rec.Identity != nil {
		return Resolution{Identity: rec.Identity, Status: StatusAuthenticated}
	}

	// 3. Valid token without an identity (e.g. first navigation after a
	// restart): look the user up by their token, deduplicated so
	// concurrent callers observe one backend call.
	return r.lookup(rec.Token, claims)
}

func (r *Resolver) lookup(tok string, claims *token.Claims) Resolution {
	if id, found := r.cache.Get(tok); found {
		return Resolution{Identity: id, Status: StatusAuthenticated}
	}

	v, err, _ := r.group.Do(tok, func() (interface{}, error) {
		if id, found := r.cache.Get(tok); found {
			return id, nil
		}

		// The lookup is detached from any single caller's context: a
		// caller navigating away must not cancel a result that remains
		// useful to the next caller. The timeout still bounds it.
		r.mu.RLock()
		timeout := r.lookupTimeout
		r.mu.RUnlock()
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		user, err := r.client.Me(ctx)
		if err != nil {
			return nil, err
		}

		id := IdentityFromUser(user, r.log)
		ttl := token.TTL(claims, time.Now())
		if ttl > 0 {
			r.cache.SetWithTTL(tok, id, 1, ttl)
			r.cache.Wait()
		}

		// Denormalize into the store so the next process start takes the
		// cheap path. The whole record is rewritten, token included.
		if err := r.store.Put(&credstore.Record{
			Token:    tok,
			Identity: id,
			SavedAt:  time.Now(),
		}); err != nil {
			r.log.Error("failed to cache identity in store", logger.Err(err))
		}

		return id, nil
	})
	if err != nil {
		if errors.Is(err, api.ErrSessionExpired) {
			// The client's session-expired handler already tore the
			// session down.
			return Resolution{Status: StatusUnauthorized}
		}
		r.log.Warn("identity lookup failed", logger.Err(err))
		return Resolution{Status: StatusNetworkError}
	}

	return Resolution{Identity: v.(*identity.Identity), Status: StatusAuthenticated}
}

// IdentityFromLogin builds an Identity from the literal fields of a
// complete login response.
func IdentityFromLogin(login *api.LoginResponse, log logger.Logger) *identity.Identity {
	return buildIdentity(login.UserID.String(), login.Email, login.Nom, login.Prenom, login.Role, login.Actif, log)
}

// IdentityFromUser builds an Identity from a current-identity lookup.
func IdentityFromUser(user *api.UserResponse, log logger.Logger) *identity.Identity {
	return buildIdentity(user.UserID.String(), user.Email, user.Nom, user.Prenom, user.Role, user.Actif, log)
}

func buildIdentity(id, email, nom, prenom, rawRole string, actif *bool, log logger.Logger) *identity.Identity {
	canonical, fellBack := role.Normalize(rawRole)
	if fellBack {
		// Deliberate availability fallback: an unknown role string maps to
		// the least-privileged agent role instead of locking the user out.
		log.Warn("unrecognized role string, falling back to least privilege",
			logger.String("raw_role", rawRole),
			logger.String("assumed_role", canonical.String()),
		)
	}

	active := true
	if actif != nil {
		active = *actif
	}

	return &identity.Identity{
		ID:        id,
		FirstName: prenom,
		LastName:  nom,
		Email:     email,
		Role:      canonical,
		Active:    active,
	}
}
