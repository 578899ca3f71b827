package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Auditor writes the audit trail on behalf of the services. Appends are
// fire-and-forget: a failing sink is logged and never fails the operation
// being audited.
type Auditor struct {
	store  driven.AuditStore
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditor creates an Auditor backed by store.
func NewAuditor(store driven.AuditStore, logger *slog.Logger) *Auditor {
	return &Auditor{store: store, logger: logger, now: time.Now}
}

// AppendAuditEntry stores entry and returns it with its id and timestamp. When
// the store fails, the entry is returned unsaved with a zero id.
func (a *Auditor) AppendAuditEntry(ctx context.Context, entry model.AuditEntry) model.AuditEntry {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = a.now()
	}

	// The operation already happened; a cancelled request must not lose its trail.
	saved, err := a.store.AppendEntry(context.WithoutCancel(ctx), entry)
	if err != nil {
		a.logger.Error("failed to append audit entry",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"actor_id", entry.ActorID,
			"error", err,
		)
		return entry
	}
	return saved
}

// AppendExportLog stores one export-provenance row. Failures are logged.
func (a *Auditor) AppendExportLog(ctx context.Context, log model.ExportLog) {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = a.now()
	}

	if _, err := a.store.AppendExportLog(context.WithoutCancel(ctx), log); err != nil {
		a.logger.Error("failed to append export log",
			"file", log.FileName,
			"actor_id", log.ActorID,
			"error", err,
		)
	}
}

// record builds and appends an entry for origin.
func (a *Auditor) record(ctx context.Context, origin model.Origin, action model.ActionKind, entity model.EntityType, entityID int64, description string) model.AuditEntry {
	entry := model.AuditEntry{
		ActorID:     origin.Actor.ID,
		Action:      action,
		EntityType:  entity,
		Description: description,
		IPAddress:   origin.IPAddress,
		UserAgent:   origin.UserAgent,
	}
	if entityID != 0 {
		entry.EntityID = &entityID
	}
	return a.AppendAuditEntry(ctx, entry)
}

// ListAuditEntries returns audit entries matching filter, newest first. The
// limit defaults to defaultHistoryLimit and is capped at maxHistoryLimit.
func (a *Auditor) ListAuditEntries(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error) {
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, fmt.Errorf("%w: unknown action %q", model.ErrValidation, filter.Action)
	}
	if filter.EntityType != "" && !filter.EntityType.Valid() {
		return nil, fmt.Errorf("%w: unknown entity type %q", model.ErrValidation, filter.EntityType)
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultHistoryLimit
	}
	filter.Limit = min(filter.Limit, maxHistoryLimit)

	return a.store.ListEntries(ctx, filter)
}

// ExportLog returns the provenance row of a staged export.
func (a *Auditor) ExportLog(ctx context.Context, fileName string) (model.ExportLog, error) {
	return a.store.GetExportLog(ctx, fileName)
}

// ListExportLogs returns one page of export history and the total count.
func (a *Auditor) ListExportLogs(ctx context.Context, limit, offset int) ([]model.ExportLog, int, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return a.store.ListExportLogs(ctx, limit, offset)
}
