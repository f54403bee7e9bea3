package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Format
		wantErr bool
	}{
		{name: "table", input: "table", want: FormatTable},
		{name: "empty defaults to table", input: "", want: FormatTable},
		{name: "json", input: "json", want: FormatJSON},
		{name: "JSON uppercase", input: "JSON", want: FormatJSON},
		{name: "yaml", input: "yaml", want: FormatYAML},
		{name: "yml alias", input: "yml", want: FormatYAML},
		{name: "whitespace trimmed", input: "  table  ", want: FormatTable},
		{name: "invalid format", input: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinterSuccess(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatTable, false)

	printer.Success("success message")
	assert.Contains(t, buf.String(), "success message")
}

func TestPrinterPrintFallsBackToJSONWithoutTableRenderer(t *testing.T) {
	var buf bytes.Buffer
	printer := NewPrinter(&buf, FormatTable, false)

	require.NoError(t, printer.Print(map[string]int{"count": 3}))
	assert.Contains(t, buf.String(), `"count": 3`)
}

func TestDefaultPrinter(t *testing.T) {
	printer := DefaultPrinter()
	assert.NotNil(t, printer)
	assert.Equal(t, FormatTable, printer.format)
}
