package schema

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jitsucom/sheetloader/typing"
)

//Text is a cell value which is stored in the source file as text
//such values are never parsed into numbers, booleans or timestamps
type Text string

func (t Text) String() string {
	return string(t)
}

//IsEmptyCell returns true if the cell is nil or contains only whitespaces
func IsEmptyCell(cell interface{}) bool {
	switch value := cell.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(value) == ""
	case Text:
		return strings.TrimSpace(string(value)) == ""
	default:
		return false
	}
}

//Column is a named sequence of cell values. nil value is NULL
type Column struct {
	Name         string
	OriginalName string
	Type         typing.DataType
	Values       []interface{}
}

//Dataset is an in-memory table: ordered columns which share one rows count
type Dataset struct {
	Name    string
	Columns []*Column

	rowsCount int
}

//NewDataset returns empty Dataset with columns from the header
//empty header cells are named column_<position>
func NewDataset(name string, header []string) *Dataset {
	columns := make([]*Column, 0, len(header))
	for i, h := range header {
		columnName := h
		if strings.TrimSpace(columnName) == "" {
			columnName = "column_" + strconv.Itoa(i+1)
		}
		columns = append(columns, &Column{Name: columnName, OriginalName: columnName, Type: typing.UNKNOWN})
	}

	return &Dataset{Name: name, Columns: columns}
}

//AppendRow adds raw text cells as a new row
func (d *Dataset) AppendRow(cells []string) error {
	values := make([]interface{}, len(cells))
	for i, cell := range cells {
		values[i] = cell
	}
	return d.AppendValues(values)
}

//AppendValues adds cells as a new row. Empty strings become NULLs
//short rows are padded with NULLs, extra non-empty cells (without header) cause an error
func (d *Dataset) AppendValues(cells []interface{}) error {
	if len(cells) > len(d.Columns) {
		for i := len(d.Columns); i < len(cells); i++ {
			if !IsEmptyCell(cells[i]) {
				return fmt.Errorf("row %d has value %q in column %d which doesn't have a header", d.rowsCount+1, fmt.Sprint(cells[i]), i+1)
			}
		}
	}

	for i, column := range d.Columns {
		var value interface{}
		if i < len(cells) && cells[i] != "" && cells[i] != Text("") {
			value = cells[i]
		}
		column.Values = append(column.Values, value)
	}

	d.rowsCount++
	return nil
}

//RowsCount returns number of rows
func (d *Dataset) RowsCount() int {
	return d.rowsCount
}

//ColumnsCount returns number of columns
func (d *Dataset) ColumnsCount() int {
	return len(d.Columns)
}

//ColumnNames returns current column names in order
func (d *Dataset) ColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		names = append(names, c.Name)
	}
	return names
}

//OriginalColumnNames returns column names as they were in the source file
func (d *Dataset) OriginalColumnNames() []string {
	names := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		names = append(names, c.OriginalName)
	}
	return names
}

//Row returns values of the row i in columns order
func (d *Dataset) Row(i int) []interface{} {
	row := make([]interface{}, 0, len(d.Columns))
	for _, c := range d.Columns {
		row = append(row, c.Values[i])
	}
	return row
}

//Head returns first n rows (or all rows if there are less than n)
func (d *Dataset) Head(n int) [][]interface{} {
	if n > d.rowsCount {
		n = d.rowsCount
	}
	if n < 0 {
		n = 0
	}

	rows := make([][]interface{}, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, d.Row(i))
	}
	return rows
}

//Rows returns rows in [from, to) range
func (d *Dataset) Rows(from, to int) [][]interface{} {
	if to > d.rowsCount {
		to = d.rowsCount
	}

	rows := make([][]interface{}, 0, to-from)
	for i := from; i < to; i++ {
		rows = append(rows, d.Row(i))
	}
	return rows
}
