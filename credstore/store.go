// Package credstore owns the persisted session credentials. Historically
// the front end scattered the token and the cached user record across two
// storage mechanisms and several ad hoc keys; everything now goes through
// the Store interface, and a Record is always written and cleared as a
// whole, so a reader can never observe a token from one session paired with
// an identity from a previous one.
package credstore

import (
	"errors"
	"time"

	"github.com/carthage-creances/gardien/identity"
)

// ErrNotFound is returned by Get when no record is stored.
var ErrNotFound = errors.New("credstore: no session record")

// Record is the single logical credential: the bearer token and the
// denormalized identity it belongs to, co-lifecycled. Identity may be nil
// when only the token survived (e.g. a restart before the cached profile
// was written); the resolver handles that state.
type Record struct {
	Token    string             `json:"token"`
	Identity *identity.Identity `json:"identity,omitempty"`
	SavedAt  time.Time          `json:"saved_at"`
}

// Store is the single owned home of the session Record. Writers replace the
// whole record; partial patches are not expressible.
type Store interface {
	// Put atomically replaces the stored record.
	Put(rec *Record) error

	// Get returns the stored record, or ErrNotFound.
	Get() (*Record, error)

	// Clear removes any stored record. Clearing an empty store is a no-op.
	Clear() error
}
