package importer

import "github.com/jitsucom/sheetloader/adapters"

//Diagnostics is a summary of the parsed file
type Diagnostics struct {
	Source      string
	RowsCount   int
	Columns     []string
	PreviewRows [][]interface{}
}

//ColumnsCount returns number of columns
func (d *Diagnostics) ColumnsCount() int {
	return len(d.Columns)
}

//Reporter receives the pipeline output
type Reporter interface {
	Diagnostics(diagnostics *Diagnostics)
	//CleanedColumns receives source column names and normalized ones in the same order
	CleanedColumns(original, cleaned []string)
	//UploadStarted returns progress func which is called after each inserted batch
	UploadStarted(table string, rowsCount int) adapters.ProgressFunc
	UploadFinished(table string, uploaded int, err error)
	Sample(table string, result *adapters.QueryResult)
	RowCount(table string, count int64)
}

//NopReporter skips all the output
type NopReporter struct{}

func (NopReporter) Diagnostics(*Diagnostics) {}

func (NopReporter) CleanedColumns([]string, []string) {}

func (NopReporter) UploadStarted(string, int) adapters.ProgressFunc { return nil }

func (NopReporter) UploadFinished(string, int, error) {}

func (NopReporter) Sample(string, *adapters.QueryResult) {}

func (NopReporter) RowCount(string, int64) {}
