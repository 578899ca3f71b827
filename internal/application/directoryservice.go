package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// DirectoryService manages the clients and platforms credentials belong to.
type DirectoryService struct {
	store   driven.DirectoryStore
	auditor *Auditor
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(store driven.DirectoryStore, auditor *Auditor) *DirectoryService {
	return &DirectoryService{store: store, auditor: auditor}
}

// AddClient validates and stores a client.
func (s *DirectoryService) AddClient(ctx context.Context, origin model.Origin, client model.Client) (model.Client, error) {
	if err := model.Validate(client); err != nil {
		return model.Client{}, err
	}

	added, err := s.store.AddClient(ctx, client)
	if err != nil {
		return model.Client{}, fmt.Errorf("add client: %w", err)
	}

	s.auditor.record(ctx, origin, model.ActionCreate, model.EntityClient, added.ID,
		fmt.Sprintf("Created client %q", added.Name))
	return added, nil
}

// GetClient returns one client, active or not.
func (s *DirectoryService) GetClient(ctx context.Context, id int64) (model.Client, error) {
	return s.store.GetClient(ctx, id)
}

// ListClients returns every client ordered by name.
func (s *DirectoryService) ListClients(ctx context.Context) ([]model.Client, error) {
	return s.store.ListClients(ctx)
}

// UpdateClient validates and applies a partial client update.
func (s *DirectoryService) UpdateClient(ctx context.Context, origin model.Origin, id int64, upd model.ClientUpdate) (model.Client, error) {
	if err := model.Validate(upd); err != nil {
		return model.Client{}, err
	}

	client, err := s.store.UpdateClient(ctx, id, upd)
	if err != nil {
		return model.Client{}, err
	}

	s.auditor.record(ctx, origin, model.ActionUpdate, model.EntityClient, client.ID,
		fmt.Sprintf("Updated client %q", client.Name))
	return client, nil
}

// DeactivateClient soft-deletes a client. Its credentials are left as they are.
func (s *DirectoryService) DeactivateClient(ctx context.Context, origin model.Origin, id int64) error {
	inactive := false
	client, err := s.store.UpdateClient(ctx, id, model.ClientUpdate{IsActive: &inactive})
	if err != nil {
		return err
	}

	s.auditor.record(ctx, origin, model.ActionDelete, model.EntityClient, client.ID,
		fmt.Sprintf("Deactivated client %q", client.Name))
	return nil
}

// AddCategory validates and stores a platform category. Names are unique.
func (s *DirectoryService) AddCategory(ctx context.Context, origin model.Origin, category model.PlatformCategory) (model.PlatformCategory, error) {
	if err := model.Validate(category); err != nil {
		return model.PlatformCategory{}, err
	}

	added, err := s.store.AddCategory(ctx, category)
	if err != nil {
		return model.PlatformCategory{}, fmt.Errorf("add category %q: %w", category.Name, err)
	}

	s.auditor.record(ctx, origin, model.ActionCreate, model.EntityCategory, added.ID,
		fmt.Sprintf("Created platform category %q", added.Name))
	return added, nil
}

// GetCategory returns one platform category.
func (s *DirectoryService) GetCategory(ctx context.Context, id int64) (model.PlatformCategory, error) {
	return s.store.GetCategory(ctx, id)
}

// ListCategories returns every platform category ordered by name.
func (s *DirectoryService) ListCategories(ctx context.Context) ([]model.PlatformCategory, error) {
	return s.store.ListCategories(ctx)
}

// AddPlatform validates and stores a platform. A zero CategoryID leaves it
// uncategorised.
func (s *DirectoryService) AddPlatform(ctx context.Context, origin model.Origin, platform model.Platform) (model.Platform, error) {
	if err := model.Validate(platform); err != nil {
		return model.Platform{}, err
	}
	if platform.CategoryID != 0 {
		if err := s.checkCategory(ctx, platform.CategoryID); err != nil {
			return model.Platform{}, err
		}
	}

	added, err := s.store.AddPlatform(ctx, platform)
	if err != nil {
		return model.Platform{}, fmt.Errorf("add platform: %w", err)
	}

	s.auditor.record(ctx, origin, model.ActionCreate, model.EntityPlatform, added.ID,
		fmt.Sprintf("Created platform %q", added.Name))
	return added, nil
}

// ListPlatforms returns every platform ordered by name.
func (s *DirectoryService) ListPlatforms(ctx context.Context) ([]model.Platform, error) {
	return s.store.ListPlatforms(ctx)
}

// GetPlatform returns one platform.
func (s *DirectoryService) GetPlatform(ctx context.Context, id int64) (model.Platform, error) {
	return s.store.GetPlatform(ctx, id)
}

// UpdatePlatform validates and applies a partial platform update.
func (s *DirectoryService) UpdatePlatform(ctx context.Context, origin model.Origin, id int64, upd model.PlatformUpdate) (model.Platform, error) {
	if err := model.Validate(upd); err != nil {
		return model.Platform{}, err
	}
	if upd.CategoryID != nil {
		if err := s.checkCategory(ctx, *upd.CategoryID); err != nil {
			return model.Platform{}, err
		}
	}

	platform, err := s.store.UpdatePlatform(ctx, id, upd)
	if err != nil {
		return model.Platform{}, err
	}

	s.auditor.record(ctx, origin, model.ActionUpdate, model.EntityPlatform, platform.ID,
		fmt.Sprintf("Updated platform %q", platform.Name))
	return platform, nil
}

// DeletePlatform removes a platform no credential references.
func (s *DirectoryService) DeletePlatform(ctx context.Context, origin model.Origin, id int64) error {
	platform, err := s.store.GetPlatform(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePlatform(ctx, id); err != nil {
		return err
	}

	s.auditor.record(ctx, origin, model.ActionDelete, model.EntityPlatform, id,
		fmt.Sprintf("Deleted platform %q", platform.Name))
	return nil
}

func (s *DirectoryService) checkCategory(ctx context.Context, id int64) error {
	if _, err := s.store.GetCategory(ctx, id); err != nil {
		if errors.Is(err, driven.ErrCategoryNotFound) {
			return fmt.Errorf("%w: platform category %d does not exist", driven.ErrReference, id)
		}
		return fmt.Errorf("check platform category %d: %w", id, err)
	}
	return nil
}
