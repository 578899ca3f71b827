package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// CredentialService is the use-case layer for credential CRUD. Every mutation
// and every single-record read leaves an audit entry.
type CredentialService struct {
	store     driven.CredentialStore
	directory driven.DirectoryStore
	auditor   *Auditor
	logger    *slog.Logger
	now       func() time.Time
}

// NewCredentialService creates a new CredentialService with the required dependencies.
func NewCredentialService(
	store driven.CredentialStore,
	directory driven.DirectoryStore,
	auditor *Auditor,
	logger *slog.Logger,
) *CredentialService {
	return &CredentialService{
		store:     store,
		directory: directory,
		auditor:   auditor,
		logger:    logger,
		now:       time.Now,
	}
}

// Create validates in, checks that its client and platform exist and stores
// it. References are checked before anything is encrypted.
func (s *CredentialService) Create(ctx context.Context, origin model.Origin, in model.NewCredential) (model.Credential, error) {
	if in.CreatedBy == 0 {
		in.CreatedBy = origin.Actor.ID
	}
	if err := model.Validate(in); err != nil {
		return model.Credential{}, err
	}
	if err := s.checkReferences(ctx, &in.ClientID, &in.PlatformID); err != nil {
		return model.Credential{}, err
	}

	cred, err := s.store.Create(ctx, in)
	if err != nil {
		return model.Credential{}, fmt.Errorf("create credential: %w", err)
	}

	s.auditor.record(ctx, origin, model.ActionCreate, model.EntityCredential, cred.ID,
		fmt.Sprintf("Created credential %q for %s on %s", cred.AccountName, cred.ClientName(), cred.PlatformName()))

	return cred, nil
}

// Get returns one credential with its secrets revealed and marks it used.
func (s *CredentialService) Get(ctx context.Context, origin model.Origin, id int64) (model.Credential, error) {
	cred, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Credential{}, err
	}

	now := s.now()
	if err := s.store.TouchLastUsed(ctx, id, now); err != nil {
		s.logger.Warn("failed to update last_used", "credential_id", id, "error", err)
	} else {
		cred.LastUsed = &now
	}

	s.auditor.record(ctx, origin, model.ActionRead, model.EntityCredential, cred.ID,
		fmt.Sprintf("Viewed credential %q", cred.AccountName))

	return cred, nil
}

// List returns credentials matching filter, ordered by client, platform and account.
func (s *CredentialService) List(ctx context.Context, filter model.CredentialFilter) ([]model.Credential, error) {
	return s.store.List(ctx, filter)
}

// Update applies a partial update. See model.CredentialUpdate for the
// replace-all policy on additional fields.
func (s *CredentialService) Update(ctx context.Context, origin model.Origin, id int64, upd model.CredentialUpdate) (model.Credential, error) {
	if err := model.Validate(upd); err != nil {
		return model.Credential{}, err
	}
	if err := s.checkReferences(ctx, upd.ClientID, upd.PlatformID); err != nil {
		return model.Credential{}, err
	}

	cred, err := s.store.Update(ctx, id, upd)
	if err != nil {
		return model.Credential{}, err
	}

	description := fmt.Sprintf("Updated credential %q", cred.AccountName)
	if len(upd.Fields) > 0 {
		description += fmt.Sprintf(", replaced additional fields (%d)", len(upd.Fields))
	}
	s.auditor.record(ctx, origin, model.ActionUpdate, model.EntityCredential, cred.ID, description)

	return cred, nil
}

// Deactivate soft-deletes a credential. Its ciphertext stays in place.
func (s *CredentialService) Deactivate(ctx context.Context, origin model.Origin, id int64) error {
	if err := s.store.Deactivate(ctx, id); err != nil {
		return err
	}

	s.auditor.record(ctx, origin, model.ActionDelete, model.EntityCredential, id,
		fmt.Sprintf("Deactivated credential %d", id))

	return nil
}

// checkReferences verifies that the referenced client and platform exist.
// Nil ids are skipped.
func (s *CredentialService) checkReferences(ctx context.Context, clientID, platformID *int64) error {
	if clientID != nil {
		if _, err := s.directory.GetClient(ctx, *clientID); err != nil {
			if errors.Is(err, driven.ErrClientNotFound) {
				return fmt.Errorf("%w: client %d does not exist", driven.ErrReference, *clientID)
			}
			return fmt.Errorf("check client %d: %w", *clientID, err)
		}
	}
	if platformID != nil {
		if _, err := s.directory.GetPlatform(ctx, *platformID); err != nil {
			if errors.Is(err, driven.ErrPlatformNotFound) {
				return fmt.Errorf("%w: platform %d does not exist", driven.ErrReference, *platformID)
			}
			return fmt.Errorf("check platform %d: %w", *platformID, err)
		}
	}
	return nil
}
