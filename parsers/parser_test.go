package parsers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/schema"
	"github.com/jitsucom/sheetloader/typing"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeWorkbook(t *testing.T, path string, sheets map[string][][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	for sheet, rows := range sheets {
		if sheet != "Sheet1" {
			_, err := f.NewSheet(sheet)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			r := row
			require.NoError(t, f.SetSheetRow(sheet, cell, &r))
		}
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
}

func TestParseXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guestlist.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"Sheet1": {
			{"Guest Name", "VIP-Status", " Email ", "Party Size"},
			{"Jane", "yes", "jane@example.com", 2},
			{},
			{"John", "no", "john@example.com"},
			{"Ann", "yes", "", 1},
		},
	})

	dataset, err := Parse(path, Options{})
	require.NoError(t, err)

	require.Equal(t, "guestlist", dataset.Name)
	require.Equal(t, []string{"Guest Name", "VIP-Status", " Email ", "Party Size"}, dataset.ColumnNames())
	require.Equal(t, 3, dataset.RowsCount(), "empty rows are skipped")
	require.Equal(t, []interface{}{schema.Text("Jane"), schema.Text("yes"), schema.Text("jane@example.com"), int64(2)}, dataset.Row(0))
	require.Equal(t, []interface{}{schema.Text("John"), schema.Text("no"), schema.Text("john@example.com"), nil}, dataset.Row(1))
	require.Equal(t, []interface{}{schema.Text("Ann"), schema.Text("yes"), nil, int64(1)}, dataset.Row(2))
}

func TestParseXLSXIgnoresDisplayFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"Amount", "Signed Up", "Ratio", "Phone", "Confirmed", "Seats"}))
	require.NoError(t, f.SetCellFloat("Sheet1", "A2", 1234.567, -1, 64))
	require.NoError(t, f.SetCellFloat("Sheet1", "B2", 45995.5, -1, 64))
	require.NoError(t, f.SetCellFloat("Sheet1", "C2", 0.125, -1, 64))
	require.NoError(t, f.SetCellStr("Sheet1", "D2", "+15551234567"))
	require.NoError(t, f.SetCellBool("Sheet1", "E2", true))
	require.NoError(t, f.SetCellInt("Sheet1", "F2", 1200))

	thousands, err := f.NewStyle(&excelize.Style{NumFmt: 3})
	require.NoError(t, err)
	dateFormat := "m/d/yy"
	date, err := f.NewStyle(&excelize.Style{CustomNumFmt: &dateFormat})
	require.NoError(t, err)
	percent, err := f.NewStyle(&excelize.Style{NumFmt: 9})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle("Sheet1", "A2", "A2", thousands))
	require.NoError(t, f.SetCellStyle("Sheet1", "B2", "B2", date))
	require.NoError(t, f.SetCellStyle("Sheet1", "C2", "C2", percent))
	require.NoError(t, f.SetCellStyle("Sheet1", "F2", "F2", thousands))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	dataset, err := Parse(path, Options{})
	require.NoError(t, err)
	require.Equal(t, []interface{}{
		1234.567,
		time.Date(2025, 12, 4, 12, 0, 0, 0, time.UTC),
		0.125,
		schema.Text("+15551234567"),
		true,
		int64(1200),
	}, dataset.Row(0))

	require.NoError(t, schema.ResolveTypes(dataset, true))
	expectedTypes := []typing.DataType{typing.FLOAT64, typing.TIMESTAMP, typing.FLOAT64, typing.STRING, typing.BOOL, typing.INT64}
	for i, column := range dataset.Columns {
		require.Equal(t, expectedTypes[i], column.Type, column.Name)
	}
	require.Equal(t, "+15551234567", dataset.Row(0)[3], "text cell must not become a number")
}

func TestIsDateNumFmt(t *testing.T) {
	tests := []struct {
		format   string
		expected bool
	}{
		{"m/d/yy", true},
		{"yyyy-mm-dd hh:mm:ss", true},
		{"[h]:mm", true},
		{"[$-409]mmmm d, yyyy;@", true},
		{"#,##0.00", false},
		{"0%", false},
		{"0.00E+00", false},
		{`#,##0 "days"`, false},
		{`[Red]#,##0;\-#,##0`, false},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			require.Equal(t, tt.expected, isDateNumFmt(tt.format))
		})
	}
}

func TestParseXLSXSheetSelection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guestlist.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"Sheet1": {{"name"}, {"first sheet"}},
		"RSVP":   {{}, {"name", "rsvp"}, {"Jane", "yes"}},
	})

	dataset, err := Parse(path, Options{})
	require.NoError(t, err)
	require.Equal(t, []interface{}{schema.Text("first sheet")}, dataset.Row(0))

	dataset, err = Parse(path, Options{Sheet: "RSVP"})
	require.NoError(t, err)
	require.Equal(t, []string{"name", "rsvp"}, dataset.ColumnNames(), "first non-empty row is a header")
	require.Equal(t, 1, dataset.RowsCount())

	_, err = Parse(path, Options{Sheet: "Unknown"})
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, errorj.ParseError))
	require.Contains(t, err.Error(), "Unknown")
}

func TestParseHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty_guests.xlsx")
	writeWorkbook(t, path, map[string][][]interface{}{
		"Sheet1": {{"Guest Name", "Email"}},
	})

	dataset, err := Parse(path, Options{})
	require.NoError(t, err)
	require.Equal(t, 0, dataset.RowsCount())
	require.Equal(t, 2, dataset.ColumnsCount())
}

func TestParseCSV(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "guests.csv")
	require.NoError(t, os.WriteFile(path, []byte("\uFEFFGuest Name,VIP-Status\nJane,yes\n\nJohn\n"), 0644))

	dataset, err := Parse(path, Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"Guest Name", "VIP-Status"}, dataset.ColumnNames(), "BOM must be stripped")
	require.Equal(t, 2, dataset.RowsCount())
	require.Equal(t, []interface{}{"John", nil}, dataset.Row(1))

	semicolonPath := filepath.Join(dir, "guests_eu.csv")
	require.NoError(t, os.WriteFile(semicolonPath, []byte("name;amount\nJane;1,5\n"), 0644))

	dataset, err = Parse(semicolonPath, Options{CSVDelimiter: ';'})
	require.NoError(t, err)
	require.Equal(t, []interface{}{"Jane", "1,5"}, dataset.Row(0))
}

func TestParseErrors(t *testing.T) {
	dir := t.TempDir()

	emptyCSV := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(emptyCSV, []byte("\n\n"), 0644))

	textFile := filepath.Join(dir, "guests.txt")
	require.NoError(t, os.WriteFile(textFile, []byte("name\nJane\n"), 0644))

	corrupted := filepath.Join(dir, "corrupted.xlsx")
	require.NoError(t, os.WriteFile(corrupted, []byte("definitely not a zip archive"), 0644))

	overflow := filepath.Join(dir, "overflow.csv")
	require.NoError(t, os.WriteFile(overflow, []byte("name\nJane,extra\n"), 0644))

	tests := []struct {
		name          string
		path          string
		expectedError string
	}{
		{"missing file", filepath.Join(dir, "missing.xlsx"), "file not found"},
		{"directory", dir, "is a directory"},
		{"unsupported extension", textFile, "unsupported file extension"},
		{"corrupted workbook", corrupted, "failed to open workbook"},
		{"no header", emptyCSV, "header row wasn't found"},
		{"value without header", overflow, "doesn't have a header"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataset, err := Parse(tt.path, Options{})
			require.Nil(t, dataset)
			require.Error(t, err)
			require.True(t, errorx.IsOfType(err, errorj.ParseError))
			require.Contains(t, err.Error(), tt.expectedError)
		})
	}
}
