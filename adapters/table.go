package adapters

import (
	"sort"

	"github.com/jitsucom/sheetloader/typing"
)

//Columns is a list of columns representation
type Columns map[string]typing.SQLColumn

//Table is a dto for DWH Table representation
//ColumnsOrder keeps columns order of the source file. Columns without order go after them sorted
type Table struct {
	Schema       string
	Name         string
	Columns      Columns
	ColumnsOrder []string
}

//Exists returns true if there is at least one column
func (t *Table) Exists() bool {
	if t == nil {
		return false
	}

	return len(t.Columns) > 0
}

//SortedColumnNames return column names sorted in alphabetical order
func (t *Table) SortedColumnNames() []string {
	columns := make([]string, 0, len(t.Columns))
	for name := range t.Columns {
		columns = append(columns, name)
	}
	sort.Strings(columns)
	return columns
}

//ColumnNames returns column names in ColumnsOrder and then the rest in alphabetical order
func (t *Table) ColumnNames() []string {
	columns := make([]string, 0, len(t.Columns))
	ordered := make(map[string]bool, len(t.ColumnsOrder))
	for _, name := range t.ColumnsOrder {
		if _, ok := t.Columns[name]; ok && !ordered[name] {
			columns = append(columns, name)
			ordered[name] = true
		}
	}

	for _, name := range t.SortedColumnNames() {
		if !ordered[name] {
			columns = append(columns, name)
		}
	}

	return columns
}

//Clone returns clone of current table
func (t *Table) Clone() *Table {
	clonedColumns := Columns{}
	for k, v := range t.Columns {
		clonedColumns[k] = v
	}

	clonedOrder := make([]string, len(t.ColumnsOrder))
	copy(clonedOrder, t.ColumnsOrder)

	return &Table{
		Schema:       t.Schema,
		Name:         t.Name,
		Columns:      clonedColumns,
		ColumnsOrder: clonedOrder,
	}
}

// Diff calculates diff between current schema and another one.
// Return schema to add to current schema (for being equal) or empty if
// 1) another one is empty
// 2) all fields from another schema exist in current schema
// NOTE: Diff method doesn't take types into account
func (t Table) Diff(another *Table) *Table {
	diff := &Table{Schema: t.Schema, Name: t.Name, Columns: Columns{}}

	if !another.Exists() {
		return diff
	}

	for _, name := range another.ColumnNames() {
		if _, ok := t.Columns[name]; !ok {
			diff.Columns[name] = another.Columns[name]
			diff.ColumnsOrder = append(diff.ColumnsOrder, name)
		}
	}

	return diff
}
