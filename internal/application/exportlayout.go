package application

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ericfisherdev/credvault/internal/domain/model"
)

const (
	singleSheetTitle  = "Credentials"
	summarySheetTitle = "Summary"
	expiryLayout      = "2006-01-02"
	timestampLayout   = "2006-01-02 15:04:05"
)

var clientColumn = model.Column{Header: "Client", Width: 24}

// credentialColumns are the per-credential columns after Client, in order.
var credentialColumns = []model.Column{
	{Header: "Platform", Width: 20},
	{Header: "Account Name", Width: 24},
	{Header: "URL", Width: 32},
	{Header: "Username", Width: 24},
	{Header: "Password", Width: 24},
	{Header: "Notes", Width: 40},
	{Header: "Expiry Date", Width: 14},
	{Header: "Created At", Width: 20},
	{Header: "Last Updated", Width: 20},
}

var summaryColumns = []model.Column{
	{Header: "Client Name", Width: 30},
	{Header: "Number of Credentials", Width: 22},
	{Header: "Contact Person", Width: 24},
	{Header: "Email", Width: 30},
}

// sortForExport returns a copy of records ordered by client, platform and
// account name, case-insensitively, with the id as final tiebreak.
func sortForExport(records []model.Credential) []model.Credential {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b model.Credential) int {
		return cmp.Or(
			strings.Compare(strings.ToLower(a.ClientName()), strings.ToLower(b.ClientName())),
			strings.Compare(strings.ToLower(a.PlatformName()), strings.ToLower(b.PlatformName())),
			strings.Compare(strings.ToLower(a.AccountName), strings.ToLower(b.AccountName)),
			cmp.Compare(a.ID, b.ID),
		)
	})
	return sorted
}

// clientGroup is the records of one client, in export order.
type clientGroup struct {
	client  model.Client
	records []model.Credential
}

// groupByClient splits sorted records per client, keeping first-seen order.
func groupByClient(sorted []model.Credential) []clientGroup {
	byClient := lo.GroupBy(sorted, func(c model.Credential) int64 { return c.ClientID })
	order := lo.Uniq(lo.Map(sorted, func(c model.Credential, _ int) int64 { return c.ClientID }))

	return lo.Map(order, func(id int64, _ int) clientGroup {
		records := byClient[id]
		client := model.Client{ID: id, Name: fmt.Sprintf("Client %d", id)}
		if records[0].Client != nil {
			client = *records[0].Client
		}
		return clientGroup{client: client, records: records}
	})
}

// buildSingleWorkbook lays every record out on one sheet.
func buildSingleWorkbook(sorted []model.Credential) model.Workbook {
	rows := lo.Map(sorted, func(c model.Credential, _ int) []string {
		return append([]string{c.ClientName()}, credentialCells(c)...)
	})

	return model.Workbook{Sheets: []model.Sheet{{
		Title:   singleSheetTitle,
		Columns: append([]model.Column{clientColumn}, credentialColumns...),
		Rows:    rows,
	}}}
}

// buildGroupedWorkbook lays out a summary sheet followed by one sheet per client.
func buildGroupedWorkbook(groups []clientGroup) model.Workbook {
	summary := model.Sheet{
		Title:   summarySheetTitle,
		Columns: summaryColumns,
		Summary: true,
	}

	sheets := make([]model.Sheet, 0, len(groups)+1)
	sheets = append(sheets, summary)

	total := 0
	for _, g := range groups {
		total += len(g.records)
		sheets[0].Rows = append(sheets[0].Rows, []string{
			g.client.Name,
			strconv.Itoa(len(g.records)),
			g.client.ContactPerson,
			g.client.Email,
		})

		sheets = append(sheets, model.Sheet{
			Title: g.client.Name,
			Preamble: [][]string{
				{"CLIENT INFORMATION"},
				{"Client", g.client.Name},
				{"Contact Person", g.client.ContactPerson},
				{"Email", g.client.Email},
				{"Phone", g.client.Phone},
				{},
			},
			Columns: credentialColumns,
			Rows:    lo.Map(g.records, func(c model.Credential, _ int) []string { return credentialCells(c) }),
		})
	}
	sheets[0].Total = []string{"TOTAL", strconv.Itoa(total)}

	return model.Workbook{Sheets: sheets}
}

// credentialCells renders the columns of credentialColumns for c.
func credentialCells(c model.Credential) []string {
	return []string{
		c.PlatformName(),
		c.AccountName,
		c.URL,
		c.Username,
		c.Password,
		notesWithFields(c),
		formatOptional(c.ExpiryDate, expiryLayout),
		formatTimestamp(c.CreatedAt),
		formatTimestamp(c.UpdatedAt),
	}
}

// notesWithFields appends additional fields to the notes as labelled lines.
func notesWithFields(c model.Credential) string {
	if len(c.Fields) == 0 {
		return c.Notes
	}

	var b strings.Builder
	b.WriteString(c.Notes)
	if c.Notes != "" {
		b.WriteString("\n\n")
	}
	b.WriteString("Additional Fields:")
	for _, f := range c.Fields {
		b.WriteString("\n")
		b.WriteString(f.Name)
		b.WriteString(": ")
		b.WriteString(f.Value)
	}
	return b.String()
}

func formatOptional(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(layout)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}
