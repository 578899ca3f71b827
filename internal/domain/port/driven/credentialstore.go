// Package driven defines secondary port interfaces for external adapters.
package driven

import (
	"context"
	"errors"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// ErrCredentialNotFound indicates the requested credential does not exist.
var ErrCredentialNotFound = errors.New("credential not found")

// CredentialStore defines the driven port for encrypted credential persistence.
// The adapter seals secrets before write and reveals them after read; this
// interface operates on plaintext values at the domain boundary. A reveal
// failure on any secret of a record fails the whole read with an error that
// wraps secret.ErrDecryption.
type CredentialStore interface {
	// Create inserts the credential and its additional fields atomically.
	Create(ctx context.Context, in model.NewCredential) (model.Credential, error)

	// GetByID returns the credential, active or not, with client, platform and
	// additional fields loaded. Returns ErrCredentialNotFound if absent.
	GetByID(ctx context.Context, id int64) (model.Credential, error)

	// List returns credentials matching filter ordered by client name,
	// platform name and account name ascending.
	List(ctx context.Context, filter model.CredentialFilter) ([]model.Credential, error)

	// Update applies a partial update. A non-empty upd.Fields replaces every
	// additional field of the credential. Returns ErrCredentialNotFound if absent.
	Update(ctx context.Context, id int64, upd model.CredentialUpdate) (model.Credential, error)

	// Deactivate marks the credential inactive without touching its secrets.
	// Returns ErrCredentialNotFound if absent.
	Deactivate(ctx context.Context, id int64) error

	// TouchLastUsed records that the credential's secrets were revealed at t.
	TouchLastUsed(ctx context.Context, id int64, t time.Time) error
}
