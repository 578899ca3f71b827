// Package xlsx renders export workbooks as password-protected Office Open XML
// spreadsheets.
package xlsx

import (
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.WorkbookRenderer = (*Renderer)(nil)

// ErrNoPassword is returned when Render is asked to leave sheets unprotected.
var ErrNoPassword = errors.New("sheet protection password is required")

// ErrNoSheets is returned for a workbook without sheets.
var ErrNoSheets = errors.New("workbook has no sheets")

const (
	protectionAlgorithm = "SHA-512"
	summaryTabColor     = "1F4E78"
	headerFillColor     = "1F4E78"
	bannerFillColor     = "D9E1F2"
	defaultColumnWidth  = 15
)

// Renderer writes model.Workbook layouts with excelize.
type Renderer struct {
	creator string
}

// NewRenderer creates a Renderer that stamps creator into document properties.
func NewRenderer(creator string) *Renderer {
	return &Renderer{creator: creator}
}

type styles struct {
	banner int
	header int
	body   int
	total  int
}

// Render lays out every sheet in order and protects each one with password.
// Protection allows selecting cells, sorting and auto-filter; all other edits
// are denied.
func (r *Renderer) Render(wb model.Workbook, password string) (model.RenderedWorkbook, error) {
	if password == "" {
		return model.RenderedWorkbook{}, ErrNoPassword
	}
	if len(wb.Sheets) == 0 {
		return model.RenderedWorkbook{}, ErrNoSheets
	}

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck // in-memory file, nothing to flush

	st, err := newStyles(f)
	if err != nil {
		return model.RenderedWorkbook{}, err
	}

	namer := newSheetNamer()
	names := make([]string, 0, len(wb.Sheets))

	for i, sheet := range wb.Sheets {
		name, err := namer.name(sheet.Title)
		if err != nil {
			return model.RenderedWorkbook{}, err
		}

		if i == 0 {
			// A new file starts with one default sheet; reuse it so the first
			// sheet keeps index 0.
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return model.RenderedWorkbook{}, fmt.Errorf("rename first sheet to %q: %w", name, err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return model.RenderedWorkbook{}, fmt.Errorf("create sheet %q: %w", name, err)
		}

		if err := writeSheet(f, name, sheet, st); err != nil {
			return model.RenderedWorkbook{}, fmt.Errorf("write sheet %q: %w", name, err)
		}
		if err := protect(f, name, password); err != nil {
			return model.RenderedWorkbook{}, err
		}

		names = append(names, name)
	}

	f.SetActiveSheet(0)

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:       "Credential export",
		Subject:     "Credential export",
		Creator:     r.creator,
		Description: "Worksheets are protected. The access password is delivered separately.",
	}); err != nil {
		return model.RenderedWorkbook{}, fmt.Errorf("set document properties: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return model.RenderedWorkbook{}, fmt.Errorf("encode workbook: %w", err)
	}

	return model.RenderedWorkbook{Content: buf.Bytes(), Sheets: names}, nil
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		st  styles
		err error
	)

	st.banner, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 12},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{bannerFillColor}},
	})
	if err != nil {
		return styles{}, fmt.Errorf("create banner style: %w", err)
	}

	st.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFillColor}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return styles{}, fmt.Errorf("create header style: %w", err)
	}

	st.body, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Vertical: "top", WrapText: true},
	})
	if err != nil {
		return styles{}, fmt.Errorf("create body style: %w", err)
	}

	st.total, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Border: []excelize.Border{
			{Type: "top", Color: "000000", Style: 2},
		},
	})
	if err != nil {
		return styles{}, fmt.Errorf("create total style: %w", err)
	}

	return st, nil
}

func writeSheet(f *excelize.File, name string, sheet model.Sheet, st styles) error {
	row := 1

	for i, values := range sheet.Preamble {
		if err := writeRow(f, name, row, values); err != nil {
			return err
		}
		if i == 0 && len(values) > 0 {
			if err := styleRow(f, name, row, max(len(values), len(sheet.Columns)), st.banner); err != nil {
				return err
			}
		}
		row++
	}

	headerRow := row
	headers := make([]string, len(sheet.Columns))
	for i, col := range sheet.Columns {
		headers[i] = col.Header
	}
	if err := writeRow(f, name, headerRow, headers); err != nil {
		return err
	}
	if err := styleRow(f, name, headerRow, len(headers), st.header); err != nil {
		return err
	}
	row++

	firstDataRow := row
	for _, values := range sheet.Rows {
		if err := writeRow(f, name, row, values); err != nil {
			return err
		}
		row++
	}
	lastDataRow := row - 1

	if len(sheet.Rows) > 0 && len(headers) > 0 {
		if err := styleRange(f, name, firstDataRow, lastDataRow, len(headers), st.body); err != nil {
			return err
		}
		ref, err := rangeRef(headerRow, lastDataRow, len(headers))
		if err != nil {
			return err
		}
		if err := f.AutoFilter(name, ref, nil); err != nil {
			return fmt.Errorf("set auto filter %s: %w", ref, err)
		}
	}

	if len(sheet.Total) > 0 {
		if err := writeRow(f, name, row, sheet.Total); err != nil {
			return err
		}
		if err := styleRow(f, name, row, max(len(sheet.Total), len(headers)), st.total); err != nil {
			return err
		}
	}

	if err := setColumnWidths(f, name, sheet.Columns); err != nil {
		return err
	}

	topLeft, err := excelize.CoordinatesToCellName(1, headerRow+1)
	if err != nil {
		return err
	}
	if err := f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      headerRow,
		TopLeftCell: topLeft,
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	if sheet.Summary {
		color := summaryTabColor
		if err := f.SetSheetProps(name, &excelize.SheetPropsOptions{TabColorRGB: &color}); err != nil {
			return fmt.Errorf("set tab color: %w", err)
		}
	}

	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []string) error {
	if len(values) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}

func styleRow(f *excelize.File, sheet string, row, cols, style int) error {
	return styleRange(f, sheet, row, row, cols, style)
}

func styleRange(f *excelize.File, sheet string, fromRow, toRow, cols, style int) error {
	if cols == 0 {
		return nil
	}
	from, err := excelize.CoordinatesToCellName(1, fromRow)
	if err != nil {
		return err
	}
	to, err := excelize.CoordinatesToCellName(cols, toRow)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, from, to, style); err != nil {
		return fmt.Errorf("style %s:%s: %w", from, to, err)
	}
	return nil
}

func rangeRef(fromRow, toRow, cols int) (string, error) {
	from, err := excelize.CoordinatesToCellName(1, fromRow)
	if err != nil {
		return "", err
	}
	to, err := excelize.CoordinatesToCellName(cols, toRow)
	if err != nil {
		return "", err
	}
	return from + ":" + to, nil
}

func setColumnWidths(f *excelize.File, sheet string, cols []model.Column) error {
	for i, col := range cols {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		width := col.Width
		if width <= 0 {
			width = defaultColumnWidth
		}
		if err := f.SetColWidth(sheet, name, name, width); err != nil {
			return fmt.Errorf("set width of column %s: %w", name, err)
		}
	}
	return nil
}

func protect(f *excelize.File, sheet, password string) error {
	err := f.ProtectSheet(sheet, &excelize.SheetProtectionOptions{
		AlgorithmName:       protectionAlgorithm,
		Password:            password,
		SelectLockedCells:   true,
		SelectUnlockedCells: true,
		Sort:                true,
		AutoFilter:          true,
	})
	if err != nil {
		return fmt.Errorf("protect sheet %q: %w", sheet, err)
	}
	return nil
}
