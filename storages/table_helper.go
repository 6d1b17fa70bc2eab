package storages

import (
	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/schema"
	"github.com/jitsucom/sheetloader/typing"
)

//TableHelper maps datasets into DWH tables and keeps DWH tables schema up to date
type TableHelper struct {
	sqlAdapter adapters.SQLAdapter
	dbTypes    map[typing.DataType]string
}

//NewTableHelper returns TableHelper which uses dbTypes for mapping column types
func NewTableHelper(sqlAdapter adapters.SQLAdapter, dbTypes map[typing.DataType]string) *TableHelper {
	return &TableHelper{
		sqlAdapter: sqlAdapter,
		dbTypes:    dbTypes,
	}
}

//MapTableSchema maps dataset columns into Table with DWH types. Columns keep dataset order
func (th *TableHelper) MapTableSchema(dataset *schema.Dataset, tableName string) *adapters.Table {
	dataTypes := make(map[string]typing.DataType, len(dataset.Columns))
	for _, column := range dataset.Columns {
		dataTypes[column.Name] = column.Type
	}

	return &adapters.Table{
		Name:         tableName,
		Columns:      adapters.ToSQLColumns(dataTypes, th.dbTypes),
		ColumnsOrder: dataset.ColumnNames(),
	}
}

//EnsureTable creates the table if it doesn't exist
//if exists - calculates diff and patches existing one with missing columns
//returns actual db table schema
func (th *TableHelper) EnsureTable(dataSchema *adapters.Table) (*adapters.Table, error) {
	dbTableSchema, err := th.sqlAdapter.GetTableSchema(dataSchema.Name)
	if err != nil {
		return nil, err
	}

	if !dbTableSchema.Exists() {
		if err := th.sqlAdapter.CreateTable(dataSchema); err != nil {
			return nil, err
		}

		return dataSchema.Clone(), nil
	}

	schemaDiff := dbTableSchema.Diff(dataSchema)
	//if diff doesn't exist - do nothing
	if !schemaDiff.Exists() {
		return dbTableSchema, nil
	}

	logging.Infof("[%s] adding columns %v to the existing table", dataSchema.Name, schemaDiff.ColumnNames())
	if err := th.sqlAdapter.PatchTableSchema(schemaDiff); err != nil {
		return nil, err
	}

	for _, name := range schemaDiff.ColumnNames() {
		dbTableSchema.Columns[name] = schemaDiff.Columns[name]
		dbTableSchema.ColumnsOrder = append(dbTableSchema.ColumnsOrder, name)
	}

	return dbTableSchema, nil
}

//CreateNewTable creates the table and returns errorj.UploadError if it already exists
func (th *TableHelper) CreateNewTable(dataSchema *adapters.Table) error {
	dbTableSchema, err := th.sqlAdapter.GetTableSchema(dataSchema.Name)
	if err != nil {
		return err
	}

	if dbTableSchema.Exists() {
		return errorj.UploadError.New("table %s already exists. Use %s or %s write mode to write into existing table",
			th.sqlAdapter.QualifiedName(dataSchema.Name), AppendMode, ReplaceMode).
			WithProperty(errorj.DBObjects, dataSchema.Name)
	}

	return th.sqlAdapter.CreateTable(dataSchema)
}

//DropQuietly drops the table and logs error if occurred
func (th *TableHelper) DropQuietly(table *adapters.Table) {
	if err := th.sqlAdapter.DropTable(table); err != nil {
		logging.Warnf("[%s] failed to drop table: %v", table.Name, err)
	}
}
