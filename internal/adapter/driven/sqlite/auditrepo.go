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
var _ driven.AuditStore = (*AuditRepo)(nil)

const defaultAuditLimit = 100

const exportLogSelect = `
	SELECT id, user_id, export_type, file_name, record_count, filters, ip_address, created_at
	FROM export_logs`

// AuditRepo is the SQLite implementation of the AuditStore port interface.
// It only ever inserts and reads; there is no update or delete path.
type AuditRepo struct {
	db  *DB
	now func() time.Time
}

// NewAuditRepo creates a new AuditRepo backed by the given DB.
func NewAuditRepo(db *DB) *AuditRepo {
	return &AuditRepo{db: db, now: time.Now}
}

// AppendEntry inserts an activity log row. A zero CreatedAt is stamped with the current time.
func (r *AuditRepo) AppendEntry(ctx context.Context, entry model.AuditEntry) (model.AuditEntry, error) {
	const query = `
		INSERT INTO activity_logs (user_id, action_type, entity_type, entity_id, description, ip_address, user_agent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}

	var entityID any
	if entry.EntityID != nil {
		entityID = *entry.EntityID
	}

	res, err := r.db.Writer.ExecContext(ctx, query,
		entry.ActorID, string(entry.Action), string(entry.EntityType), entityID,
		entry.Description, entry.IPAddress, entry.UserAgent, formatTime(entry.CreatedAt),
	)
	if err != nil {
		return model.AuditEntry{}, fmt.Errorf("append audit entry %s/%s: %w", entry.Action, entry.EntityType, err)
	}

	entry.ID, err = res.LastInsertId()
	if err != nil {
		return model.AuditEntry{}, fmt.Errorf("audit entry last insert id: %w", err)
	}
	return entry, nil
}

// AppendExportLog inserts an export provenance row.
func (r *AuditRepo) AppendExportLog(ctx context.Context, log model.ExportLog) (model.ExportLog, error) {
	const query = `
		INSERT INTO export_logs (user_id, export_type, file_name, record_count, filters, ip_address, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	if log.CreatedAt.IsZero() {
		log.CreatedAt = r.now().UTC()
	}

	res, err := r.db.Writer.ExecContext(ctx, query,
		log.ActorID, string(log.ExportType), log.FileName, log.RecordCount, log.Filters, log.IPAddress,
		formatTime(log.CreatedAt),
	)
	if err != nil {
		return model.ExportLog{}, fmt.Errorf("append export log %q: %w", log.FileName, err)
	}

	log.ID, err = res.LastInsertId()
	if err != nil {
		return model.ExportLog{}, fmt.Errorf("export log last insert id: %w", err)
	}
	return log, nil
}

// ListEntries returns activity log rows matching filter, newest first.
func (r *AuditRepo) ListEntries(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ActorID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, filter.ActorID)
	}
	if filter.Action != "" {
		conds = append(conds, "action_type = ?")
		args = append(args, string(filter.Action))
	}
	if filter.EntityType != "" {
		conds = append(conds, "entity_type = ?")
		args = append(args, string(filter.EntityType))
	}
	if filter.EntityID != 0 {
		conds = append(conds, "entity_id = ?")
		args = append(args, filter.EntityID)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	query := `
		SELECT id, user_id, action_type, entity_type, entity_id, description, ip_address, user_agent, created_at
		FROM activity_logs`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Reader.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var (
			entry     model.AuditEntry
			action    string
			entity    string
			entityID  sql.NullInt64
			createdAt string
		)
		if err := rows.Scan(&entry.ID, &entry.ActorID, &action, &entity, &entityID,
			&entry.Description, &entry.IPAddress, &entry.UserAgent, &createdAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		entry.Action = model.ActionKind(action)
		entry.EntityType = model.EntityType(entity)
		if entityID.Valid {
			id := entityID.Int64
			entry.EntityID = &id
		}
		entry.CreatedAt, err = parseTime(createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at of audit entry %d: %w", entry.ID, err)
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}

	return entries, nil
}

// ListExportLogs returns one page of export logs, newest first, and the total count.
func (r *AuditRepo) ListExportLogs(ctx context.Context, limit, offset int) ([]model.ExportLog, int, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if offset < 0 {
		offset = 0
	}

	var total int
	if err := r.db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM export_logs`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count export logs: %w", err)
	}

	const query = exportLogSelect + ` ORDER BY id DESC LIMIT ? OFFSET ?`

	rows, err := r.db.Reader.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list export logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ExportLog
	for rows.Next() {
		log, err := scanExportLog(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan export log: %w", err)
		}
		logs = append(logs, log)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate export logs: %w", err)
	}

	return logs, total, nil
}

// GetExportLog returns the most recent export log naming fileName.
func (r *AuditRepo) GetExportLog(ctx context.Context, fileName string) (model.ExportLog, error) {
	const query = exportLogSelect + ` WHERE file_name = ? ORDER BY id DESC LIMIT 1`

	log, err := scanExportLog(r.db.Reader.QueryRowContext(ctx, query, fileName))
	if errors.Is(err, sql.ErrNoRows) {
		return model.ExportLog{}, fmt.Errorf("export log %q: %w", fileName, driven.ErrExportLogNotFound)
	}
	if err != nil {
		return model.ExportLog{}, fmt.Errorf("get export log %q: %w", fileName, err)
	}
	return log, nil
}

func scanExportLog(s rowScanner) (model.ExportLog, error) {
	var (
		log        model.ExportLog
		exportType string
		createdAt  string
	)
	err := s.Scan(&log.ID, &log.ActorID, &exportType, &log.FileName, &log.RecordCount,
		&log.Filters, &log.IPAddress, &createdAt)
	if err != nil {
		return model.ExportLog{}, err
	}

	log.ExportType = model.ExportMode(exportType)
	log.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return model.ExportLog{}, fmt.Errorf("parse created_at: %w", err)
	}
	return log, nil
}
