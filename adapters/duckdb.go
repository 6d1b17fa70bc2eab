package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/typing"
)

const (
	tableSchemaDuckDBQuery = `SELECT column_name, data_type FROM information_schema.columns WHERE table_schema = ? AND table_name = ? ORDER BY ordinal_position`

	createDuckDBSchemaTemplate = `CREATE SCHEMA IF NOT EXISTS %s`
	addDuckDBColumnTemplate    = `ALTER TABLE %s.%s ADD COLUMN %s`
	createDuckDBTableTemplate  = `CREATE TABLE %s.%s (%s)`
	insertDuckDBTemplate       = `INSERT INTO %s.%s (%s) VALUES %s`
	dropDuckDBTableTemplate    = `DROP TABLE IF EXISTS %s.%s`
	renameDuckDBTableTemplate  = `ALTER TABLE %s.%s RENAME TO %s`

	//DuckDBValuesLimit bounds bind values in one statement
	DuckDBValuesLimit = 65535

	defaultDuckDBSchema = "main"
)

var (
	SchemaToDuckDB = map[typing.DataType]string{
		typing.STRING:    "VARCHAR",
		typing.INT64:     "BIGINT",
		typing.FLOAT64:   "DOUBLE",
		typing.TIMESTAMP: "TIMESTAMP",
		typing.BOOL:      "BOOLEAN",
		typing.UNKNOWN:   "VARCHAR",
	}
)

//DuckDBConfig dto for deserialized DuckDB config
//empty Path means in-memory database
type DuckDBConfig struct {
	Path   string `mapstructure:"path" json:"path,omitempty" yaml:"path,omitempty"`
	Schema string `mapstructure:"schema" json:"schema,omitempty" yaml:"schema,omitempty"`
}

//Validate sets default schema
func (dc *DuckDBConfig) Validate() error {
	if dc.Schema == "" {
		dc.Schema = defaultDuckDBSchema
	}

	return nil
}

//DuckDB is adapter for creating,patching (schema or table), inserting and selecting data from a local DuckDB database
type DuckDB struct {
	ctx         context.Context
	config      *DuckDBConfig
	dataSource  *sql.DB
	queryLogger *logging.QueryLogger
}

//NewDuckDB opens (or creates) DuckDB database file
func NewDuckDB(ctx context.Context, config *DuckDBConfig, queryLogger *logging.QueryLogger) (*DuckDB, error) {
	dataSource, err := sql.Open("duckdb", config.Path)
	if err != nil {
		return nil, err
	}

	if err := dataSource.PingContext(ctx); err != nil {
		dataSource.Close()
		return nil, err
	}

	return &DuckDB{ctx: ctx, config: config, dataSource: dataSource, queryLogger: queryLogger}, nil
}

//Type returns DuckDB type
func (DuckDB) Type() string {
	return "DuckDB"
}

//OpenTx opens underline sql transaction and return wrapped instance
func (d *DuckDB) OpenTx() (*Transaction, error) {
	return openTx(d.ctx, d.dataSource, d.Type())
}

//CreateDbSchema creates database schema if doesn't exist
func (d *DuckDB) CreateDbSchema(dbSchemaName string) error {
	query := fmt.Sprintf(createDuckDBSchemaTemplate, quoteIdentifier(dbSchemaName))
	d.queryLogger.LogDDL(query)

	if _, err := d.dataSource.ExecContext(d.ctx, query); err != nil {
		return errorj.CreateSchemaError.Wrap(err, "failed to create db schema").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: dbSchemaName, Statement: query})
	}

	return nil
}

//GetTableSchema returns table columns from information_schema. Table without columns doesn't exist
func (d *DuckDB) GetTableSchema(tableName string) (*Table, error) {
	table := &Table{Schema: d.config.Schema, Name: tableName, Columns: Columns{}}

	rows, err := d.dataSource.QueryContext(d.ctx, tableSchemaDuckDBQuery, d.config.Schema, tableName)
	if err != nil {
		return nil, errorj.GetTableError.Wrap(err, "failed to get table columns").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: d.config.Schema, Table: tableName, Statement: tableSchemaDuckDBQuery})
	}

	defer rows.Close()
	for rows.Next() {
		var columnName, columnType string
		if err := rows.Scan(&columnName, &columnType); err != nil {
			return nil, errorj.GetTableError.Wrap(err, "failed to scan result").
				WithProperty(errorj.DBInfo, &ErrorPayload{Schema: d.config.Schema, Table: tableName})
		}

		table.Columns[columnName] = typing.SQLColumn{Type: columnType}
		table.ColumnsOrder = append(table.ColumnsOrder, columnName)
	}
	if err := rows.Err(); err != nil {
		return nil, errorj.GetTableError.Wrap(err, "failed read last row").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: d.config.Schema, Table: tableName})
	}

	return table, nil
}

//CreateTable creates table with columns in the table columns order
func (d *DuckDB) CreateTable(table *Table) error {
	var columnsDDL []string
	for _, columnName := range table.ColumnNames() {
		columnsDDL = append(columnsDDL, fmt.Sprintf(`%s %s`, quoteIdentifier(columnName), table.Columns[columnName].DDLType()))
	}

	query := fmt.Sprintf(createDuckDBTableTemplate, quoteIdentifier(d.config.Schema), quoteIdentifier(table.Name), strings.Join(columnsDDL, ", "))
	d.queryLogger.LogDDL(query)

	if _, err := d.dataSource.ExecContext(d.ctx, query); err != nil {
		return errorj.CreateTableError.Wrap(err, "failed to create table").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: d.config.Schema, Table: table.Name, Statement: query})
	}

	return nil
}

//PatchTableSchema adds new columns(from provided Table) to existing table
func (d *DuckDB) PatchTableSchema(patchTable *Table) error {
	for _, columnName := range patchTable.ColumnNames() {
		columnDDL := fmt.Sprintf(`%s %s`, quoteIdentifier(columnName), patchTable.Columns[columnName].DDLType())
		query := fmt.Sprintf(addDuckDBColumnTemplate, quoteIdentifier(d.config.Schema), quoteIdentifier(patchTable.Name), columnDDL)
		d.queryLogger.LogDDL(query)

		if _, err := d.dataSource.ExecContext(d.ctx, query); err != nil {
			return errorj.PatchTableError.Wrap(err, "failed to patch table").
				WithProperty(errorj.DBInfo, &ErrorPayload{Schema: d.config.Schema, Table: patchTable.Name, Statement: query})
		}
	}

	return nil
}

//DropTable drops table if exists
func (d *DuckDB) DropTable(table *Table) error {
	wrappedTx, err := d.OpenTx()
	if err != nil {
		return err
	}

	return wrappedTx.finish(d.dropTableInTransaction(wrappedTx, table.Name))
}

//ReplaceTable drops target table (if exists) and renames tmp table in one transaction
func (d *DuckDB) ReplaceTable(tmpTableName, targetTableName string) error {
	wrappedTx, err := d.OpenTx()
	if err != nil {
		return err
	}

	if err := d.dropTableInTransaction(wrappedTx, targetTableName); err != nil {
		return wrappedTx.finish(err)
	}

	query := fmt.Sprintf(renameDuckDBTableTemplate, quoteIdentifier(d.config.Schema), quoteIdentifier(tmpTableName), quoteIdentifier(targetTableName))
	d.queryLogger.LogDDL(query)
	if _, err := wrappedTx.ExecContext(query); err != nil {
		return wrappedTx.finish(errorj.RenameError.Wrap(err, "failed to rename table").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: d.config.Schema, Table: tmpTableName, Statement: query}))
	}

	return wrappedTx.Commit()
}

//BulkInsert inserts rows in batches (insert into values (),(),()) in one transaction
func (d *DuckDB) BulkInsert(table *Table, rows [][]interface{}, batchSize int, progress ProgressFunc) error {
	wrappedTx, err := d.OpenTx()
	if err != nil {
		return err
	}

	header := table.ColumnNames()
	placeholder := func(int, string) string { return "?" }
	execute := func(header []string, placeholders string, valueArgs []interface{}, rowsCount int) error {
		var quotedHeader []string
		for _, columnName := range header {
			quotedHeader = append(quotedHeader, quoteIdentifier(columnName))
		}

		statement := fmt.Sprintf(insertDuckDBTemplate, quoteIdentifier(d.config.Schema), quoteIdentifier(table.Name), strings.Join(quotedHeader, ", "), placeholders)
		d.queryLogger.LogQueryWithValues(statement, valueArgs)

		if _, err := wrappedTx.ExecContext(statement, valueArgs...); err != nil {
			return errorj.ExecuteInsertError.Wrap(err, "failed to execute insert").
				WithProperty(errorj.DBInfo, &ErrorPayload{Schema: d.config.Schema, Table: table.Name, Statement: statement, Rows: rowsCount})
		}
		return nil
	}

	perStatement := rowsPerStatement(batchSize, DuckDBValuesLimit, len(header))
	return wrappedTx.finish(bulkInsert(header, rows, perStatement, placeholder, execute, progress))
}

//Query runs select statement
func (d *DuckDB) Query(statement string) (*QueryResult, error) {
	return query(d.ctx, d.dataSource, d.queryLogger, d.Type(), statement)
}

//QualifiedName returns "schema"."table"
func (d *DuckDB) QualifiedName(tableName string) string {
	return quoteIdentifier(d.config.Schema) + "." + quoteIdentifier(tableName)
}

//Close underlying sql.DB
func (d *DuckDB) Close() error {
	return d.dataSource.Close()
}

//quoteIdentifier wraps name into double quotes. Embedded double quotes are doubled
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (d *DuckDB) dropTableInTransaction(wrappedTx *Transaction, tableName string) error {
	query := fmt.Sprintf(dropDuckDBTableTemplate, quoteIdentifier(d.config.Schema), quoteIdentifier(tableName))
	d.queryLogger.LogDDL(query)

	if _, err := wrappedTx.ExecContext(query); err != nil {
		return errorj.DropError.Wrap(err, "failed to drop table").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: d.config.Schema, Table: tableName, Statement: query})
	}

	return nil
}
