package model

import "time"

// ExportMode selects the workbook layout of an export.
type ExportMode string

const (
	// ExportModeSingle renders every credential into one sheet.
	ExportModeSingle ExportMode = "credentials"
	// ExportModeGrouped renders one sheet per client plus a summary sheet.
	ExportModeGrouped ExportMode = "client_credentials"
)

// Valid reports whether m is a known export mode.
func (m ExportMode) Valid() bool {
	return m == ExportModeSingle || m == ExportModeGrouped
}

// ExportArtifact describes a staged export file. Password is the one-time
// access password applied to every sheet; it is handed to the requester
// separately from the file and never written into it.
type ExportArtifact struct {
	FileName    string
	Path        string
	Password    string
	Mode        ExportMode
	Sheets      []string
	RecordCount int
	GroupCount  int
	Audit       AuditEntry
	CreatedAt   time.Time
}

// Column is a workbook column header and its display width.
type Column struct {
	Header string
	Width  float64
}

// Sheet is the format-agnostic layout of one worksheet. Preamble rows are
// written above the column header, the first of them styled as a banner.
// Total, when set, is appended after Rows and emphasised.
type Sheet struct {
	Title    string
	Preamble [][]string
	Columns  []Column
	Rows     [][]string
	Total    []string
	Summary  bool
}

// Workbook is an ordered list of sheets; the first sheet opens first.
type Workbook struct {
	Sheets []Sheet
}

// RenderedWorkbook is an encoded workbook and the sheet names it contains.
type RenderedWorkbook struct {
	Content []byte
	Sheets  []string
}
