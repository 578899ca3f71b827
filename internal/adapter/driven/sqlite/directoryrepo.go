package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.DirectoryStore = (*DirectoryRepo)(nil)

// DirectoryRepo is the SQLite implementation of the DirectoryStore port interface.
type DirectoryRepo struct {
	db  *DB
	now func() time.Time
}

// NewDirectoryRepo creates a new DirectoryRepo backed by the given DB.
func NewDirectoryRepo(db *DB) *DirectoryRepo {
	return &DirectoryRepo{db: db, now: time.Now}
}

// AddClient inserts a new active client and returns it with its assigned ID.
func (r *DirectoryRepo) AddClient(ctx context.Context, client model.Client) (model.Client, error) {
	const query = `
		INSERT INTO clients (name, contact_person, email, phone, is_active, created_at)
		VALUES (?, ?, ?, ?, 1, ?)`

	createdAt := r.now().UTC()
	res, err := r.db.Writer.ExecContext(ctx, query,
		client.Name, client.ContactPerson, client.Email, client.Phone, formatTime(createdAt),
	)
	if err != nil {
		return model.Client{}, fmt.Errorf("add client %q: %w", client.Name, err)
	}

	client.ID, err = res.LastInsertId()
	if err != nil {
		return model.Client{}, fmt.Errorf("client last insert id: %w", err)
	}
	client.IsActive = true
	client.CreatedAt = createdAt

	return client, nil
}

// GetClient returns the client with the given id.
func (r *DirectoryRepo) GetClient(ctx context.Context, id int64) (model.Client, error) {
	const query = `
		SELECT id, name, contact_person, email, phone, is_active, created_at
		FROM clients WHERE id = ?`

	client, err := scanClient(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Client{}, fmt.Errorf("client %d: %w", id, driven.ErrClientNotFound)
	}
	if err != nil {
		return model.Client{}, fmt.Errorf("get client %d: %w", id, err)
	}
	return client, nil
}

// ListClients returns all clients ordered by name.
func (r *DirectoryRepo) ListClients(ctx context.Context) ([]model.Client, error) {
	const query = `
		SELECT id, name, contact_person, email, phone, is_active, created_at
		FROM clients ORDER BY name COLLATE NOCASE, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []model.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, client)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate clients: %w", err)
	}

	return clients, nil
}

// UpdateClient applies the non-nil attributes of upd. An update with nothing
// set returns the stored client unchanged.
func (r *DirectoryRepo) UpdateClient(ctx context.Context, id int64, upd model.ClientUpdate) (model.Client, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.ContactPerson != nil {
		set("contact_person", *upd.ContactPerson)
	}
	if upd.Email != nil {
		set("email", *upd.Email)
	}
	if upd.Phone != nil {
		set("phone", *upd.Phone)
	}
	if upd.IsActive != nil {
		set("is_active", *upd.IsActive)
	}
	if len(sets) == 0 {
		return r.GetClient(ctx, id)
	}

	query := `UPDATE clients SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if err := execOne(ctx, r.db, query, append(args, id)...); err != nil {
		if errors.Is(err, errNoRow) {
			return model.Client{}, fmt.Errorf("client %d: %w", id, driven.ErrClientNotFound)
		}
		return model.Client{}, fmt.Errorf("update client %d: %w", id, err)
	}

	return r.GetClient(ctx, id)
}

// AddCategory inserts a platform category. Names are unique.
func (r *DirectoryRepo) AddCategory(ctx context.Context, category model.PlatformCategory) (model.PlatformCategory, error) {
	const query = `INSERT INTO platform_categories (name) VALUES (?)`

	res, err := r.db.Writer.ExecContext(ctx, query, category.Name)
	if err != nil {
		return model.PlatformCategory{}, fmt.Errorf("add platform category %q: %w", category.Name, err)
	}

	category.ID, err = res.LastInsertId()
	if err != nil {
		return model.PlatformCategory{}, fmt.Errorf("category last insert id: %w", err)
	}
	return category, nil
}

// GetCategory returns the platform category with the given id.
func (r *DirectoryRepo) GetCategory(ctx context.Context, id int64) (model.PlatformCategory, error) {
	const query = `SELECT id, name FROM platform_categories WHERE id = ?`

	var category model.PlatformCategory
	err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(&category.ID, &category.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PlatformCategory{}, fmt.Errorf("platform category %d: %w", id, driven.ErrCategoryNotFound)
	}
	if err != nil {
		return model.PlatformCategory{}, fmt.Errorf("get platform category %d: %w", id, err)
	}
	return category, nil
}

// ListCategories returns all platform categories ordered by name.
func (r *DirectoryRepo) ListCategories(ctx context.Context) ([]model.PlatformCategory, error) {
	const query = `SELECT id, name FROM platform_categories ORDER BY name COLLATE NOCASE, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list platform categories: %w", err)
	}
	defer rows.Close()

	var categories []model.PlatformCategory
	for rows.Next() {
		var category model.PlatformCategory
		if err := rows.Scan(&category.ID, &category.Name); err != nil {
			return nil, fmt.Errorf("scan platform category: %w", err)
		}
		categories = append(categories, category)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platform categories: %w", err)
	}

	return categories, nil
}

// AddPlatform inserts a platform. A zero CategoryID stores no category.
func (r *DirectoryRepo) AddPlatform(ctx context.Context, platform model.Platform) (model.Platform, error) {
	const query = `INSERT INTO platforms (name, category_id, url, created_at) VALUES (?, ?, ?, ?)`

	var categoryID any
	if platform.CategoryID != 0 {
		categoryID = platform.CategoryID
	}

	createdAt := r.now().UTC()
	res, err := r.db.Writer.ExecContext(ctx, query, platform.Name, categoryID, platform.URL, formatTime(createdAt))
	if err != nil {
		return model.Platform{}, fmt.Errorf("add platform %q: %w", platform.Name, err)
	}

	platform.ID, err = res.LastInsertId()
	if err != nil {
		return model.Platform{}, fmt.Errorf("platform last insert id: %w", err)
	}
	platform.CreatedAt = createdAt

	return platform, nil
}

// GetPlatform returns the platform with the given id.
func (r *DirectoryRepo) GetPlatform(ctx context.Context, id int64) (model.Platform, error) {
	const query = `SELECT id, name, COALESCE(category_id, 0), url, created_at FROM platforms WHERE id = ?`

	platform, err := scanPlatform(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Platform{}, fmt.Errorf("platform %d: %w", id, driven.ErrPlatformNotFound)
	}
	if err != nil {
		return model.Platform{}, fmt.Errorf("get platform %d: %w", id, err)
	}
	return platform, nil
}

// ListPlatforms returns all platforms ordered by name.
func (r *DirectoryRepo) ListPlatforms(ctx context.Context) ([]model.Platform, error) {
	const query = `
		SELECT id, name, COALESCE(category_id, 0), url, created_at
		FROM platforms ORDER BY name COLLATE NOCASE, id`

	rows, err := r.db.Reader.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list platforms: %w", err)
	}
	defer rows.Close()

	var platforms []model.Platform
	for rows.Next() {
		platform, err := scanPlatform(rows)
		if err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		platforms = append(platforms, platform)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platforms: %w", err)
	}

	return platforms, nil
}

// UpdatePlatform applies the non-nil attributes of upd. ClearCategory stores
// no category.
func (r *DirectoryRepo) UpdatePlatform(ctx context.Context, id int64, upd model.PlatformUpdate) (model.Platform, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Name != nil {
		set("name", *upd.Name)
	}
	if upd.CategoryID != nil {
		set("category_id", *upd.CategoryID)
	} else if upd.ClearCategory {
		set("category_id", nil)
	}
	if upd.URL != nil {
		set("url", *upd.URL)
	}
	if len(sets) == 0 {
		return r.GetPlatform(ctx, id)
	}

	query := `UPDATE platforms SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	if err := execOne(ctx, r.db, query, append(args, id)...); err != nil {
		if errors.Is(err, errNoRow) {
			return model.Platform{}, fmt.Errorf("platform %d: %w", id, driven.ErrPlatformNotFound)
		}
		return model.Platform{}, fmt.Errorf("update platform %d: %w", id, err)
	}

	return r.GetPlatform(ctx, id)
}

// DeletePlatform removes a platform that no credential references. The
// reference check and the delete share one transaction.
func (r *DirectoryRepo) DeletePlatform(ctx context.Context, id int64) error {
	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	var refs int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials WHERE platform_id = ?`, id).Scan(&refs)
	if err != nil {
		return fmt.Errorf("count credentials of platform %d: %w", id, err)
	}
	if refs > 0 {
		return fmt.Errorf("platform %d has %d credentials: %w", id, refs, driven.ErrPlatformInUse)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM platforms WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete platform %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("platform %d: %w", id, driven.ErrPlatformNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete of platform %d: %w", id, err)
	}
	return nil
}

func scanClient(s rowScanner) (model.Client, error) {
	var (
		client    model.Client
		createdAt string
	)
	err := s.Scan(&client.ID, &client.Name, &client.ContactPerson, &client.Email, &client.Phone, &client.IsActive, &createdAt)
	if err != nil {
		return model.Client{}, err
	}

	client.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Client{}, fmt.Errorf("parse created_at: %w", err)
	}
	return client, nil
}

func scanPlatform(s rowScanner) (model.Platform, error) {
	var (
		platform  model.Platform
		createdAt string
	)
	err := s.Scan(&platform.ID, &platform.Name, &platform.CategoryID, &platform.URL, &createdAt)
	if err != nil {
		return model.Platform{}, err
	}

	platform.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.Platform{}, fmt.Errorf("parse created_at: %w", err)
	}
	return platform, nil
}

var errNoRow = errors.New("no row affected")

// execOne runs a single-row write and reports errNoRow when nothing matched.
func execOne(ctx context.Context, db *DB, query string, args ...any) error {
	res, err := db.Writer.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return errNoRow
	}
	return nil
}
