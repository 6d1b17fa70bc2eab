package adapters

import (
	"github.com/jitsucom/sheetloader/typing"
)

//ProgressFunc is called after every executed insert statement with the number of inserted rows
type ProgressFunc func(insertedRows int)

//SQLAdapter is a manager for DWH tables
type SQLAdapter interface {
	Type() string
	CreateDbSchema(dbSchemaName string) error
	GetTableSchema(tableName string) (*Table, error)
	CreateTable(schemaToCreate *Table) error
	PatchTableSchema(schemaToAdd *Table) error
	DropTable(table *Table) error
	//ReplaceTable puts tmp table in place of the target one and drops the previous target
	ReplaceTable(tmpTableName, targetTableName string) error
	//BulkInsert inserts rows (values ordered as table.ColumnNames()) in one transaction
	BulkInsert(table *Table, rows [][]interface{}, batchSize int, progress ProgressFunc) error
	Query(query string) (*QueryResult, error)
	//QualifiedName returns fully qualified (and quoted if needed) table name
	QualifiedName(tableName string) string
	Close() error
}

//ErrorPayload is a db_info property of sql errors
type ErrorPayload struct {
	Database  string
	Schema    string
	Table     string
	Statement string
	Values    []interface{}
	Rows      int
}

//ToSQLColumns maps DataTypes into SQL columns with the db types
func ToSQLColumns(dataTypes map[string]typing.DataType, dbTypes map[typing.DataType]string) Columns {
	columns := Columns{}
	for name, dataType := range dataTypes {
		sqlType, ok := dbTypes[dataType]
		if !ok {
			sqlType = dbTypes[typing.STRING]
		}
		columns[name] = typing.SQLColumn{Type: sqlType}
	}

	return columns
}
