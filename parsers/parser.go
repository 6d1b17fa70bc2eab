package parsers

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/schema"
	"github.com/spf13/cast"
)

const defaultCSVDelimiter = ','

//Options configure source file reading
type Options struct {
	//Sheet is a workbook sheet name. Empty means the first sheet
	Sheet string
	//CSVDelimiter is used only for .csv files. Zero value means ','
	CSVDelimiter rune
}

//Parse reads the file into schema.Dataset which is named after the file
//returns errorj.ParseError if file is missing, unsupported or malformed
func Parse(path string, opts Options) (*schema.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errorj.ParseError.New("file not found: %s", path).
				WithProperty(errorj.FilePath, path)
		}
		return nil, errorj.ParseError.Wrap(err, "failed to access file").
			WithProperty(errorj.FilePath, path)
	}
	if info.IsDir() {
		return nil, errorj.ParseError.New("%s is a directory", path).
			WithProperty(errorj.FilePath, path)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var rows [][]interface{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		rows, err = readSpreadsheet(path, opts.Sheet)
	case ".csv":
		delimiter := opts.CSVDelimiter
		if delimiter == 0 {
			delimiter = defaultCSVDelimiter
		}
		rows, err = readCSV(path, delimiter)
	default:
		return nil, errorj.ParseError.New("unsupported file extension %q. Supported: .xlsx, .xlsm, .xltx, .xltm, .csv", ext).
			WithProperty(errorj.FilePath, path)
	}
	if err != nil {
		return nil, errorj.ParseError.Wrap(err, "failed to read file").
			WithProperty(errorj.FilePath, path)
	}

	dataset, err := buildDataset(name, rows)
	if err != nil {
		return nil, errorj.ParseError.Wrap(err, "malformed table").
			WithProperty(errorj.FilePath, path)
	}

	return dataset, nil
}

//buildDataset uses the first non-empty row as a header and skips empty rows
func buildDataset(name string, rows [][]interface{}) (*schema.Dataset, error) {
	var dataset *schema.Dataset
	for _, row := range rows {
		if isEmptyRow(row) {
			continue
		}

		if dataset == nil {
			dataset = schema.NewDataset(name, headerNames(row))
			continue
		}

		if err := dataset.AppendValues(row); err != nil {
			return nil, err
		}
	}

	if dataset == nil {
		return nil, fmt.Errorf("header row wasn't found: file is empty")
	}

	return dataset, nil
}

func isEmptyRow(row []interface{}) bool {
	for _, cell := range row {
		if !schema.IsEmptyCell(cell) {
			return false
		}
	}
	return true
}

//headerNames returns header cells as text without empty cells on the right side
func headerNames(row []interface{}) []string {
	end := len(row)
	for end > 0 && schema.IsEmptyCell(row[end-1]) {
		end--
	}

	names := make([]string, 0, end)
	for _, cell := range row[:end] {
		if cell == nil {
			names = append(names, "")
			continue
		}
		names = append(names, cast.ToString(cell))
	}
	return names
}
