package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// Sentinel errors returned by DirectoryStore implementations.
var (
	// ErrClientNotFound indicates the requested client does not exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrPlatformNotFound indicates the requested platform does not exist.
	ErrPlatformNotFound = errors.New("platform not found")

	// ErrCategoryNotFound indicates the requested platform category does not exist.
	ErrCategoryNotFound = errors.New("platform category not found")

	// ErrPlatformInUse indicates a platform cannot be deleted because
	// credentials still reference it.
	ErrPlatformInUse = errors.New("platform is referenced by credentials")

	// ErrReference indicates a credential or platform names a client,
	// platform or category that does not exist.
	ErrReference = errors.New("referenced entity does not exist")
)

// DirectoryStore defines the driven port for the clients and platforms that
// credentials reference.
type DirectoryStore interface {
	AddClient(ctx context.Context, client model.Client) (model.Client, error)
	// GetClient returns ErrClientNotFound if the client does not exist.
	GetClient(ctx context.Context, id int64) (model.Client, error)
	ListClients(ctx context.Context) ([]model.Client, error)
	// UpdateClient applies the non-nil attributes of upd and returns the
	// stored client. Returns ErrClientNotFound if the client does not exist.
	UpdateClient(ctx context.Context, id int64, upd model.ClientUpdate) (model.Client, error)

	AddCategory(ctx context.Context, category model.PlatformCategory) (model.PlatformCategory, error)
	// GetCategory returns ErrCategoryNotFound if the category does not exist.
	GetCategory(ctx context.Context, id int64) (model.PlatformCategory, error)
	ListCategories(ctx context.Context) ([]model.PlatformCategory, error)

	AddPlatform(ctx context.Context, platform model.Platform) (model.Platform, error)
	// GetPlatform returns ErrPlatformNotFound if the platform does not exist.
	GetPlatform(ctx context.Context, id int64) (model.Platform, error)
	ListPlatforms(ctx context.Context) ([]model.Platform, error)
	UpdatePlatform(ctx context.Context, id int64, upd model.PlatformUpdate) (model.Platform, error)
	// DeletePlatform removes a platform no credential references, active or
	// not. Returns ErrPlatformInUse otherwise and ErrPlatformNotFound if the
	// platform does not exist.
	DeletePlatform(ctx context.Context, id int64) error
}
