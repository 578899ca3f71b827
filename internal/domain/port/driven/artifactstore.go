package driven

import (
	"context"
	"errors"
	"io"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

// ErrArtifactNotFound indicates the staged export file does not exist,
// typically because it was already purged.
var ErrArtifactNotFound = errors.New("export artifact not found")

// WorkbookRenderer turns a workbook layout into spreadsheet bytes with every
// sheet protected by password. Sheet titles may be rewritten to satisfy the
// file format; the names actually written are returned in order.
type WorkbookRenderer interface {
	Render(wb model.Workbook, password string) (model.RenderedWorkbook, error)
}

// ArtifactStore stages export files in a directory shared by concurrent
// exports. File names are chosen by the caller and must be unique.
type ArtifactStore interface {
	// Stage writes content atomically under filename and returns its path.
	Stage(ctx context.Context, filename string, content []byte) (string, error)

	// Open returns a reader for the staged file and its size.
	// Returns ErrArtifactNotFound if the file does not exist.
	Open(filename string) (io.ReadSeekCloser, int64, error)

	// Remove deletes the staged file. Removing a missing file is not an error.
	Remove(filename string) error
}

// PurgeScheduler removes staged artifacts after delivery.
type PurgeScheduler interface {
	// SchedulePurge arranges for filename to be removed after the configured
	// delay. Failures are logged by the implementation, never returned.
	SchedulePurge(filename string)
}
