package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
	"github.com/ericfisherdev/credvault/internal/secret"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// fieldQueryChunk bounds the number of ids bound into one IN (...) clause.
const fieldQueryChunk = 500

const credentialSelect = `
SELECT c.id, c.client_id, c.platform_id, c.account_name, c.username, c.password,
       c.url, c.notes, c.expiry_date, c.created_by, c.last_used, c.is_active,
       c.created_at, c.updated_at,
       cl.name, cl.contact_person, cl.email, cl.phone, cl.is_active, cl.created_at,
       p.name, COALESCE(p.category_id, 0), p.url, p.created_at
FROM credentials c
JOIN clients cl ON cl.id = c.client_id
JOIN platforms p ON p.id = c.platform_id`

const credentialOrder = `
ORDER BY cl.name COLLATE NOCASE, p.name COLLATE NOCASE, c.account_name COLLATE NOCASE, c.id`

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
// Username, password and additional field values are sealed with the Box before
// write and revealed after read; the tables only ever hold cipher tokens.
type CredentialRepo struct {
	db  *DB
	box *secret.Box
	now func() time.Time
}

// NewCredentialRepo creates a new CredentialRepo that seals secrets with box.
func NewCredentialRepo(db *DB, box *secret.Box) *CredentialRepo {
	return &CredentialRepo{db: db, box: box, now: time.Now}
}

type sealedField struct {
	name  string
	value secret.Value
}

// Create inserts the credential and its additional fields in one transaction.
func (r *CredentialRepo) Create(ctx context.Context, in model.NewCredential) (model.Credential, error) {
	username, err := r.box.Seal(in.Username)
	if err != nil {
		return model.Credential{}, fmt.Errorf("seal username: %w", err)
	}
	password, err := r.box.Seal(in.Password)
	if err != nil {
		return model.Credential{}, fmt.Errorf("seal password: %w", err)
	}
	fields, err := r.sealFields(in.Fields)
	if err != nil {
		return model.Credential{}, err
	}

	now := formatTime(r.now())

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Credential{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	const query = `
		INSERT INTO credentials (
			client_id, platform_id, account_name, username, password, url, notes,
			expiry_date, created_by, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`

	res, err := tx.ExecContext(ctx, query,
		in.ClientID, in.PlatformID, in.AccountName, username, password, in.URL, in.Notes,
		nullableDate(in.ExpiryDate), in.CreatedBy, now, now,
	)
	if err != nil {
		return model.Credential{}, fmt.Errorf("insert credential %q: %w", in.AccountName, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return model.Credential{}, fmt.Errorf("credential last insert id: %w", err)
	}

	if err := insertFields(ctx, tx, id, fields, now); err != nil {
		return model.Credential{}, err
	}

	if err := tx.Commit(); err != nil {
		return model.Credential{}, fmt.Errorf("commit credential: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID returns the credential with the given id regardless of is_active.
func (r *CredentialRepo) GetByID(ctx context.Context, id int64) (model.Credential, error) {
	creds, err := r.query(ctx, credentialSelect+` WHERE c.id = ?`, id)
	if err != nil {
		return model.Credential{}, err
	}
	if len(creds) == 0 {
		return model.Credential{}, fmt.Errorf("credential %d: %w", id, driven.ErrCredentialNotFound)
	}
	return creds[0], nil
}

// List returns credentials matching filter ordered by client, platform and account name.
func (r *CredentialRepo) List(ctx context.Context, filter model.CredentialFilter) ([]model.Credential, error) {
	var (
		conds []string
		args  []any
	)

	if filter.ClientID != 0 {
		conds = append(conds, "c.client_id = ?")
		args = append(args, filter.ClientID)
	}
	if filter.PlatformID != 0 {
		conds = append(conds, "c.platform_id = ?")
		args = append(args, filter.PlatformID)
	}
	if filter.CategoryID != 0 {
		conds = append(conds, "p.category_id = ?")
		args = append(args, filter.CategoryID)
	}
	if !filter.IncludeInactive {
		conds = append(conds, "c.is_active = 1")
	}
	if filter.Search != "" {
		conds = append(conds, `c.account_name LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(filter.Search)+"%")
	}

	query := credentialSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += credentialOrder

	return r.query(ctx, query, args...)
}

// Update applies upd to the credential. A non-empty upd.Fields destroys every
// existing additional field and recreates exactly the supplied set.
func (r *CredentialRepo) Update(ctx context.Context, id int64, upd model.CredentialUpdate) (model.Credential, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.ClientID != nil {
		set("client_id", *upd.ClientID)
	}
	if upd.PlatformID != nil {
		set("platform_id", *upd.PlatformID)
	}
	if upd.AccountName != nil {
		set("account_name", *upd.AccountName)
	}
	if upd.Username != nil {
		v, err := r.box.Seal(*upd.Username)
		if err != nil {
			return model.Credential{}, fmt.Errorf("seal username: %w", err)
		}
		set("username", v)
	}
	if upd.Password != nil {
		v, err := r.box.Seal(*upd.Password)
		if err != nil {
			return model.Credential{}, fmt.Errorf("seal password: %w", err)
		}
		set("password", v)
	}
	if upd.URL != nil {
		set("url", *upd.URL)
	}
	if upd.Notes != nil {
		set("notes", *upd.Notes)
	}
	if upd.ExpiryDate != nil {
		set("expiry_date", nullableDate(upd.ExpiryDate))
	} else if upd.ClearExpiryDate {
		set("expiry_date", nil)
	}
	if upd.IsActive != nil {
		set("is_active", *upd.IsActive)
	}

	now := formatTime(r.now())
	set("updated_at", now)

	fields, err := r.sealFields(upd.Fields)
	if err != nil {
		return model.Credential{}, err
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.Credential{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback after commit is a no-op.

	query := `UPDATE credentials SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`
	res, err := tx.ExecContext(ctx, query, append(args, id)...)
	if err != nil {
		return model.Credential{}, fmt.Errorf("update credential %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Credential{}, fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return model.Credential{}, fmt.Errorf("credential %d: %w", id, driven.ErrCredentialNotFound)
	}

	if len(fields) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM credential_fields WHERE credential_id = ?`, id); err != nil {
			return model.Credential{}, fmt.Errorf("delete fields of credential %d: %w", id, err)
		}
		if err := insertFields(ctx, tx, id, fields, now); err != nil {
			return model.Credential{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return model.Credential{}, fmt.Errorf("commit credential %d: %w", id, err)
	}

	return r.GetByID(ctx, id)
}

// Deactivate flips is_active to false. Sealed columns are not touched.
func (r *CredentialRepo) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE credentials SET is_active = 0, updated_at = ? WHERE id = ?`

	res, err := r.db.Writer.ExecContext(ctx, query, formatTime(r.now()), id)
	if err != nil {
		return fmt.Errorf("deactivate credential %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("credential %d: %w", id, driven.ErrCredentialNotFound)
	}

	return nil
}

// TouchLastUsed sets last_used without bumping updated_at.
func (r *CredentialRepo) TouchLastUsed(ctx context.Context, id int64, t time.Time) error {
	const query = `UPDATE credentials SET last_used = ? WHERE id = ?`

	if _, err := r.db.Writer.ExecContext(ctx, query, formatTime(t), id); err != nil {
		return fmt.Errorf("touch last_used of credential %d: %w", id, err)
	}
	return nil
}

func (r *CredentialRepo) sealFields(fields []model.CredentialField) ([]sealedField, error) {
	sealed := make([]sealedField, 0, len(fields))
	for _, f := range fields {
		v, err := r.box.Seal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("seal field %q: %w", f.Name, err)
		}
		sealed = append(sealed, sealedField{name: f.Name, value: v})
	}
	return sealed, nil
}

func insertFields(ctx context.Context, tx *sql.Tx, credentialID int64, fields []sealedField, now string) error {
	const query = `
		INSERT INTO credential_fields (credential_id, field_name, field_value, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`

	for _, f := range fields {
		if _, err := tx.ExecContext(ctx, query, credentialID, f.name, f.value, now, now); err != nil {
			return fmt.Errorf("insert field %q of credential %d: %w", f.name, credentialID, err)
		}
	}
	return nil
}

// query runs a credentialSelect-based query, reveals every secret and attaches
// additional fields.
func (r *CredentialRepo) query(ctx context.Context, query string, args ...any) ([]model.Credential, error) {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var creds []model.Credential
	for rows.Next() {
		cred, err := r.scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, cred)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}

	if err := r.loadFields(ctx, creds); err != nil {
		return nil, err
	}

	return creds, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *CredentialRepo) scanCredential(s rowScanner) (model.Credential, error) {
	var (
		cred               model.Credential
		client             model.Client
		platform           model.Platform
		username, password secret.Value
		expiry, lastUsed   sql.NullString
		createdAt          string
		updatedAt          string
		clientCreatedAt    string
		platformCreatedAt  string
	)

	err := s.Scan(
		&cred.ID, &cred.ClientID, &cred.PlatformID, &cred.AccountName, &username, &password,
		&cred.URL, &cred.Notes, &expiry, &cred.CreatedBy, &lastUsed, &cred.IsActive,
		&createdAt, &updatedAt,
		&client.Name, &client.ContactPerson, &client.Email, &client.Phone, &client.IsActive, &clientCreatedAt,
		&platform.Name, &platform.CategoryID, &platform.URL, &platformCreatedAt,
	)
	if err != nil {
		return model.Credential{}, fmt.Errorf("scan credential: %w", err)
	}

	if cred.Username, err = r.box.Reveal(username); err != nil {
		return model.Credential{}, fmt.Errorf("reveal username of credential %d: %w", cred.ID, err)
	}
	if cred.Password, err = r.box.Reveal(password); err != nil {
		return model.Credential{}, fmt.Errorf("reveal password of credential %d: %w", cred.ID, err)
	}

	if cred.ExpiryDate, err = parseNullTime(expiry); err != nil {
		return model.Credential{}, fmt.Errorf("parse expiry_date of credential %d: %w", cred.ID, err)
	}
	if cred.LastUsed, err = parseNullTime(lastUsed); err != nil {
		return model.Credential{}, fmt.Errorf("parse last_used of credential %d: %w", cred.ID, err)
	}
	if cred.CreatedAt, err = parseTime(createdAt); err != nil {
		return model.Credential{}, fmt.Errorf("parse created_at of credential %d: %w", cred.ID, err)
	}
	if cred.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.Credential{}, fmt.Errorf("parse updated_at of credential %d: %w", cred.ID, err)
	}

	client.ID = cred.ClientID
	if client.CreatedAt, err = parseTime(clientCreatedAt); err != nil {
		return model.Credential{}, fmt.Errorf("parse created_at of client %d: %w", client.ID, err)
	}
	platform.ID = cred.PlatformID
	if platform.CreatedAt, err = parseTime(platformCreatedAt); err != nil {
		return model.Credential{}, fmt.Errorf("parse created_at of platform %d: %w", platform.ID, err)
	}

	cred.Client = &client
	cred.Platform = &platform

	return cred, nil
}

// loadFields attaches revealed additional fields to creds in insertion order.
func (r *CredentialRepo) loadFields(ctx context.Context, creds []model.Credential) error {
	if len(creds) == 0 {
		return nil
	}

	index := make(map[int64]int, len(creds))
	for i, c := range creds {
		index[c.ID] = i
	}

	ids := lo.Map(creds, func(c model.Credential, _ int) any { return c.ID })
	for _, chunk := range lo.Chunk(ids, fieldQueryChunk) {
		query := `
			SELECT id, credential_id, field_name, field_value
			FROM credential_fields
			WHERE credential_id IN (` + placeholders(len(chunk)) + `)
			ORDER BY credential_id, id`

		if err := r.scanFields(ctx, query, chunk, creds, index); err != nil {
			return err
		}
	}

	return nil
}

func (r *CredentialRepo) scanFields(ctx context.Context, query string, args []any, creds []model.Credential, index map[int64]int) error {
	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query credential fields: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			field model.CredentialField
			value secret.Value
		)
		if err := rows.Scan(&field.ID, &field.CredentialID, &field.Name, &value); err != nil {
			return fmt.Errorf("scan credential field: %w", err)
		}

		field.Value, err = r.box.Reveal(value)
		if err != nil {
			return fmt.Errorf("reveal field %q of credential %d: %w", field.Name, field.CredentialID, err)
		}

		i := index[field.CredentialID]
		creds[i].Fields = append(creds[i].Fields, field)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate credential fields: %w", err)
	}

	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// escapeLike escapes LIKE wildcards so search terms match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
