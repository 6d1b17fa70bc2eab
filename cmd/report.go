package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/importer"
	"github.com/jitsucom/sheetloader/timestamp"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"
)

const nullValue = "NULL"

//ConsoleReporter prints the pipeline output as plain text with tables
type ConsoleReporter struct {
	out         io.Writer
	progressOut io.Writer
	disableBars bool

	bar ProgressBar
}

//NewConsoleReporter returns reporter which writes into out and renders progress bars into progressOut
func NewConsoleReporter(out, progressOut io.Writer, disableBars bool) *ConsoleReporter {
	return &ConsoleReporter{out: out, progressOut: progressOut, disableBars: disableBars}
}

func (cr *ConsoleReporter) Diagnostics(diagnostics *importer.Diagnostics) {
	fmt.Fprintf(cr.out, "Source: %s\n", diagnostics.Source)
	fmt.Fprintf(cr.out, "Rows: %d\n", diagnostics.RowsCount)
	fmt.Fprintf(cr.out, "Columns: %d\n", diagnostics.ColumnsCount())
	fmt.Fprintf(cr.out, "Column names: %s\n", quoteNames(diagnostics.Columns))
	fmt.Fprintf(cr.out, "\nFirst %d rows:\n", len(diagnostics.PreviewRows))
	cr.renderTable(diagnostics.Columns, diagnostics.PreviewRows)
}

func (cr *ConsoleReporter) CleanedColumns(original, cleaned []string) {
	fmt.Fprintf(cr.out, "\nCleaned column names: %s\n", quoteNames(cleaned))
	for i, name := range cleaned {
		if i < len(original) && original[i] != name {
			fmt.Fprintf(cr.out, "  %q -> %q\n", original[i], name)
		}
	}
}

func (cr *ConsoleReporter) UploadStarted(table string, rowsCount int) adapters.ProgressFunc {
	fmt.Fprintf(cr.out, "\nUploading %d rows into %s\n", rowsCount, table)

	if cr.disableBars || rowsCount == 0 {
		cr.bar = &DummyProgressBar{}
	} else {
		cr.bar = NewMultiProgressBar(cr.progressOut, "upload", int64(rowsCount))
	}

	return func(insertedRows int) {
		cr.bar.IncrBy(insertedRows)
	}
}

func (cr *ConsoleReporter) UploadFinished(table string, uploaded int, err error) {
	if cr.bar != nil {
		cr.bar.Finish(err == nil)
		cr.bar = nil
	}

	if err == nil {
		fmt.Fprintf(cr.out, "Uploaded %d rows into %s\n", uploaded, table)
	}
}

func (cr *ConsoleReporter) Sample(table string, result *adapters.QueryResult) {
	fmt.Fprintf(cr.out, "\nSample rows from %s:\n", table)
	cr.renderTable(result.Columns, result.Rows)
}

func (cr *ConsoleReporter) RowCount(table string, count int64) {
	fmt.Fprintf(cr.out, "\nRow count in %s: %d\n", table, count)
}

func (cr *ConsoleReporter) renderTable(header []string, rows [][]interface{}) {
	table := tablewriter.NewWriter(cr.out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	for _, row := range rows {
		table.Append(formatRow(row))
	}
	table.Render()
}

func formatRow(row []interface{}) []string {
	cells := make([]string, 0, len(row))
	for _, value := range row {
		cells = append(cells, formatValue(value))
	}
	return cells
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return nullValue
	case time.Time:
		return v.UTC().Format(timestamp.Layout)
	case []byte:
		return string(v)
	default:
		str, err := cast.ToStringE(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return str
	}
}

func quoteNames(names []string) string {
	quoted := make([]string, 0, len(names))
	for _, name := range names {
		quoted = append(quoted, fmt.Sprintf("%q", name))
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
