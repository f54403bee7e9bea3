package output

import (
	"io"

	"github.com/olekukonko/tablewriter"
)

// TableRenderer is implemented by types that can render themselves as a table.
type TableRenderer interface {
	Headers() []string
	Rows() [][]string
}

// PrintTable writes data as a formatted table to the writer.
func PrintTable(w io.Writer, data TableRenderer) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader(data.Headers())
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("  ")
	table.SetNoWhiteSpace(true)

	for _, row := range data.Rows() {
		table.Append(row)
	}
	table.Render()
	return nil
}

// TableData is a simple TableRenderer for ad-hoc tables.
type TableData struct {
	headers []string
	rows    [][]string
}

// NewTableData creates a new TableData with the given headers.
func NewTableData(headers ...string) *TableData {
	return &TableData{headers: headers, rows: make([][]string, 0)}
}

// AddRow adds a row to the table.
func (t *TableData) AddRow(row ...string) {
	t.rows = append(t.rows, row)
}

// Headers implements TableRenderer.
func (t *TableData) Headers() []string { return t.headers }

// Rows implements TableRenderer.
func (t *TableData) Rows() [][]string { return t.rows }
