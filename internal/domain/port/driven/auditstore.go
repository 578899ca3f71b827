package driven

import (
	"context"
	"errors"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// ErrExportLogNotFound indicates no export log row names the requested file.
var ErrExportLogNotFound = errors.New("export log not found")

// AuditStore defines the driven port for the append-only audit trail.
// Entries are never updated or deleted through this interface.
type AuditStore interface {
	AppendEntry(ctx context.Context, entry model.AuditEntry) (model.AuditEntry, error)
	AppendExportLog(ctx context.Context, log model.ExportLog) (model.ExportLog, error)

	// ListEntries returns entries matching filter, newest first.
	ListEntries(ctx context.Context, filter model.AuditFilter) ([]model.AuditEntry, error)

	// ListExportLogs returns one page of export logs, newest first, and the
	// total number of export logs.
	ListExportLogs(ctx context.Context, limit, offset int) ([]model.ExportLog, int, error)

	// GetExportLog returns the export log recorded for fileName, or
	// ErrExportLogNotFound.
	GetExportLog(ctx context.Context, fileName string) (model.ExportLog, error)
}
