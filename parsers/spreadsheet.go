package parsers

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/schema"
	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

//maxExactInt is the biggest integer which float64 keeps without precision loss
const maxExactInt = 1 << 53

var (
	//quoted literals, [Red]/[$-409] sections and escaped characters of a number format
	numFmtLiteralsRegexp = regexp.MustCompile(`"[^"]*"|\[[^\]]*\]|\\.`)
	numFmtDateTokens     = "ymdhs"
)

//builtInDateNumFmts are ids of date and time formats which are predefined by ECMA-376
var builtInDateNumFmts = map[int]bool{
	14: true, 15: true, 16: true, 17: true, 18: true, 19: true, 20: true, 21: true, 22: true,
	27: true, 28: true, 29: true, 30: true, 31: true, 32: true, 33: true, 34: true, 35: true, 36: true,
	45: true, 46: true, 47: true,
	50: true, 51: true, 52: true, 53: true, 54: true, 55: true, 56: true, 57: true, 58: true,
}

//sheetReader reads underlying cell values of one sheet. Display formatting (thousands separators,
//percents, date layouts) is ignored: numbers become int64/float64, dates become time.Time and
//cells stored as text become schema.Text
type sheetReader struct {
	file     *excelize.File
	sheet    string
	date1904 bool
	//style index -> is date format
	dateStyles map[int]bool
}

//readSpreadsheet returns all rows of the sheet (or the first sheet if sheet is empty) as typed cell values
func readSpreadsheet(path, sheet string) ([][]interface{}, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %v", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			logging.Warnf("Error closing workbook %s: %v", path, err)
		}
	}()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook doesn't contain any sheets")
	}

	if sheet == "" {
		sheet = sheets[0]
	} else if !contains(sheets, sheet) {
		return nil, fmt.Errorf("sheet %q wasn't found. Available sheets: %q", sheet, sheets)
	}

	reader := &sheetReader{file: f, sheet: sheet, dateStyles: map[int]bool{}}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		reader.date1904 = *props.Date1904
	}

	rawRows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %v", sheet, err)
	}

	rows := make([][]interface{}, 0, len(rawRows))
	for rowIndex, rawRow := range rawRows {
		row := make([]interface{}, len(rawRow))
		for colIndex, raw := range rawRow {
			if raw == "" {
				row[colIndex] = ""
				continue
			}

			value, err := reader.cellValue(colIndex+1, rowIndex+1, raw)
			if err != nil {
				return nil, err
			}
			row[colIndex] = value
		}
		rows = append(rows, row)
	}

	logging.Debugf("Read %d raw rows from sheet %q of %s", len(rows), sheet, path)
	return rows, nil
}

//cellValue returns the typed value of the cell with raw (unformatted) content
func (sr *sheetReader) cellValue(col, row int, raw string) (interface{}, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}

	cellType, err := sr.file.GetCellType(sr.sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("failed to read type of cell %s: %v", cell, err)
	}

	switch cellType {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true"), nil
	case excelize.CellTypeDate:
		t, err := cast.ToTimeE(raw)
		if err != nil {
			return nil, fmt.Errorf("cell %s has malformed date %q: %v", cell, raw, err)
		}
		return t.UTC(), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return schema.Text(raw), nil
	}

	number, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return schema.Text(raw), nil
	}

	isDate, err := sr.isDateCell(cell)
	if err != nil {
		return nil, err
	}
	if isDate {
		t, err := excelize.ExcelDateToTime(number, sr.date1904)
		if err != nil {
			return nil, fmt.Errorf("cell %s has malformed date %q: %v", cell, raw, err)
		}
		return t, nil
	}

	if number == math.Trunc(number) && math.Abs(number) < maxExactInt {
		return int64(number), nil
	}
	return number, nil
}

//isDateCell returns true if the cell number format displays a date or a time
func (sr *sheetReader) isDateCell(cell string) (bool, error) {
	styleIndex, err := sr.file.GetCellStyle(sr.sheet, cell)
	if err != nil {
		return false, fmt.Errorf("failed to read style of cell %s: %v", cell, err)
	}

	if isDate, ok := sr.dateStyles[styleIndex]; ok {
		return isDate, nil
	}

	style, err := sr.file.GetStyle(styleIndex)
	if err != nil {
		//cells without a style definition are formatted as General
		sr.dateStyles[styleIndex] = false
		return false, nil
	}

	isDate := builtInDateNumFmts[style.NumFmt]
	if style.CustomNumFmt != nil {
		isDate = isDateNumFmt(*style.CustomNumFmt)
	}
	sr.dateStyles[styleIndex] = isDate
	return isDate, nil
}

//isDateNumFmt checks the first section of a custom number format for date and time tokens
func isDateNumFmt(format string) bool {
	section := strings.SplitN(format, ";", 2)[0]
	section = strings.ToLower(numFmtLiteralsRegexp.ReplaceAllString(section, ""))
	return strings.ContainsAny(section, numFmtDateTokens)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
