package storages

import (
	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/schema"
	"github.com/jitsucom/sheetloader/uuid"
)

//SQLWarehouse uploads datasets into a SQL warehouse table via SQLAdapter
type SQLWarehouse struct {
	sqlAdapter  adapters.SQLAdapter
	tableHelper *TableHelper
	config      *DestinationConfig
}

//NewSQLWarehouse returns SQLWarehouse for configured table
func NewSQLWarehouse(sqlAdapter adapters.SQLAdapter, tableHelper *TableHelper, config *DestinationConfig) *SQLWarehouse {
	return &SQLWarehouse{
		sqlAdapter:  sqlAdapter,
		tableHelper: tableHelper,
		config:      config,
	}
}

//Type returns underlying adapter type
func (w *SQLWarehouse) Type() string {
	return w.sqlAdapter.Type()
}

//QualifiedTableName returns fully qualified destination table name
func (w *SQLWarehouse) QualifiedTableName() string {
	return w.sqlAdapter.QualifiedName(w.config.Table)
}

//Upload writes all dataset rows according to the write mode
func (w *SQLWarehouse) Upload(dataset *schema.Dataset, progress adapters.ProgressFunc) (int, error) {
	table := w.tableHelper.MapTableSchema(dataset, w.config.Table)
	rows := dataset.Rows(0, dataset.RowsCount())

	var err error
	switch w.config.WriteMode {
	case AppendMode:
		err = w.append(table, rows, progress)
	case ReplaceMode:
		err = w.replace(table, rows, progress)
	default:
		err = w.create(table, rows, progress)
	}

	if err != nil {
		return 0, errorj.UploadError.Wrap(err, "failed to upload %d rows into %s", len(rows), w.QualifiedTableName()).
			WithProperty(errorj.DestinationType, w.Type()).
			WithProperty(errorj.DBObjects, w.config.Table)
	}

	logging.Infof("[%s] %d rows have been uploaded into %s in %s mode", w.config.Table, len(rows), w.QualifiedTableName(), w.config.WriteMode)
	return len(rows), nil
}

//Query runs select statement
func (w *SQLWarehouse) Query(query string) (*adapters.QueryResult, error) {
	return w.sqlAdapter.Query(query)
}

//Close closes underlying adapter
func (w *SQLWarehouse) Close() error {
	return w.sqlAdapter.Close()
}

//create creates the table and inserts rows. The created table is dropped if insert fails
func (w *SQLWarehouse) create(table *adapters.Table, rows [][]interface{}, progress adapters.ProgressFunc) error {
	if err := w.tableHelper.CreateNewTable(table); err != nil {
		return err
	}

	if err := w.sqlAdapter.BulkInsert(table, rows, w.config.BatchSize, progress); err != nil {
		w.tableHelper.DropQuietly(table)
		return err
	}

	return nil
}

//append creates the table if needed (or adds missing columns) and inserts rows
func (w *SQLWarehouse) append(table *adapters.Table, rows [][]interface{}, progress adapters.ProgressFunc) error {
	if _, err := w.tableHelper.EnsureTable(table); err != nil {
		return err
	}

	return w.sqlAdapter.BulkInsert(table, rows, w.config.BatchSize, progress)
}

//replace loads rows into <table>_tmp_<random> and puts it in place of the target table
func (w *SQLWarehouse) replace(table *adapters.Table, rows [][]interface{}, progress adapters.ProgressFunc) error {
	tmpTable := table.Clone()
	tmpTable.Name = table.Name + "_tmp_" + uuid.NewLettersNumbers()

	if err := w.sqlAdapter.CreateTable(tmpTable); err != nil {
		return err
	}

	if err := w.sqlAdapter.BulkInsert(tmpTable, rows, w.config.BatchSize, progress); err != nil {
		w.tableHelper.DropQuietly(tmpTable)
		return err
	}

	if err := w.sqlAdapter.ReplaceTable(tmpTable.Name, table.Name); err != nil {
		w.tableHelper.DropQuietly(tmpTable)
		return err
	}

	return nil
}
