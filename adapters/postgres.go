package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/typing"
	"github.com/lib/pq"
)

const (
	tableSchemaQuery = `SELECT 
 							pg_attribute.attname AS name,
    						pg_catalog.format_type(pg_attribute.atttypid,pg_attribute.atttypmod) AS column_type
						FROM pg_attribute
         					JOIN pg_class ON pg_class.oid = pg_attribute.attrelid
         					LEFT JOIN pg_namespace ON pg_namespace.oid = pg_class.relnamespace
						WHERE pg_class.relkind = 'r'::char
  							AND pg_namespace.nspname = $1
  							AND pg_class.relname = $2
  							AND pg_attribute.attnum > 0
  							AND NOT pg_attribute.attisdropped
  						ORDER BY pg_attribute.attnum`
	//identifiers are quoted with pq.QuoteIdentifier
	createDbSchemaIfNotExistsTemplate = `CREATE SCHEMA IF NOT EXISTS %s`
	addColumnTemplate                 = `ALTER TABLE %s.%s ADD COLUMN %s`
	createTableTemplate               = `CREATE TABLE %s.%s (%s)`
	insertTemplate                    = `INSERT INTO %s.%s (%s) VALUES %s`
	dropTableTemplate                 = `DROP TABLE %s.%s`
	dropTableIfExistsTemplate         = `DROP TABLE IF EXISTS %s.%s`
	renameTableTemplate               = `ALTER TABLE %s.%s RENAME TO %s`

	PostgresValuesLimit = 65535 // this is a limitation of parameters one can pass as query values. If more parameters are passed, error is returned
)

var (
	SchemaToPostgres = map[typing.DataType]string{
		typing.STRING:    "text",
		typing.INT64:     "bigint",
		typing.FLOAT64:   "double precision",
		typing.TIMESTAMP: "timestamp",
		typing.BOOL:      "boolean",
		typing.UNKNOWN:   "text",
	}
)

//DataSourceConfig dto for deserialized datasource config (e.g. in Postgres destination)
type DataSourceConfig struct {
	Host       string            `mapstructure:"host,omitempty" json:"host,omitempty" yaml:"host,omitempty"`
	Port       int               `mapstructure:"port,omitempty" json:"port,omitempty" yaml:"port,omitempty"`
	Db         string            `mapstructure:"db,omitempty" json:"db,omitempty" yaml:"db,omitempty"`
	Schema     string            `mapstructure:"schema,omitempty" json:"schema,omitempty" yaml:"schema,omitempty"`
	Username   string            `mapstructure:"username,omitempty" json:"username,omitempty" yaml:"username,omitempty"`
	Password   string            `mapstructure:"password,omitempty" json:"password,omitempty" yaml:"password,omitempty"`
	Parameters map[string]string `mapstructure:"parameters,omitempty" json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

//Validate required fields in DataSourceConfig
func (dsc *DataSourceConfig) Validate() error {
	if dsc == nil {
		return errors.New("Datasource config is required")
	}
	if dsc.Host == "" {
		return errors.New("Datasource host is required parameter")
	}
	if dsc.Db == "" {
		return errors.New("Datasource db is required parameter")
	}
	if dsc.Username == "" {
		return errors.New("Datasource username is required parameter")
	}
	if dsc.Port == 0 {
		dsc.Port = 5432
	}
	if dsc.Schema == "" {
		dsc.Schema = "public"
	}

	if dsc.Parameters == nil {
		dsc.Parameters = map[string]string{}
	}
	return nil
}

//Postgres is adapter for creating,patching (schema or table), inserting and selecting data from postgres
type Postgres struct {
	ctx         context.Context
	config      *DataSourceConfig
	dataSource  *sql.DB
	queryLogger *logging.QueryLogger
}

//NewPostgres return configured Postgres adapter instance
func NewPostgres(ctx context.Context, config *DataSourceConfig, queryLogger *logging.QueryLogger) (*Postgres, error) {
	connectionString := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s ",
		config.Host, config.Port, config.Db, config.Username, config.Password)
	//concat provided connection parameters
	for k, v := range config.Parameters {
		connectionString += k + "=" + v + " "
	}
	dataSource, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, err
	}

	if err := dataSource.PingContext(ctx); err != nil {
		dataSource.Close()
		return nil, checkErr(err)
	}

	//set default value
	dataSource.SetConnMaxLifetime(10 * time.Minute)

	return &Postgres{ctx: ctx, config: config, dataSource: dataSource, queryLogger: queryLogger}, nil
}

//Type returns Postgres type
func (Postgres) Type() string {
	return "Postgres"
}

//OpenTx opens underline sql transaction and return wrapped instance
func (p *Postgres) OpenTx() (*Transaction, error) {
	return openTx(p.ctx, p.dataSource, p.Type())
}

//CreateDbSchema creates database schema instance if doesn't exist
func (p *Postgres) CreateDbSchema(dbSchemaName string) error {
	query := fmt.Sprintf(createDbSchemaIfNotExistsTemplate, pq.QuoteIdentifier(dbSchemaName))
	p.queryLogger.LogDDL(query)

	if _, err := p.dataSource.ExecContext(p.ctx, query); err != nil {
		err = checkErr(err)

		return errorj.CreateSchemaError.Wrap(err, "failed to create db schema").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Schema:    dbSchemaName,
				Statement: query,
			})
	}

	return nil
}

//CreateTable creates database table with name,columns provided in Table representation
func (p *Postgres) CreateTable(table *Table) error {
	wrappedTx, err := p.OpenTx()
	if err != nil {
		return err
	}

	return wrappedTx.finish(p.createTableInTransaction(wrappedTx, table))
}

//PatchTableSchema adds new columns(from provided Table) to existing table
func (p *Postgres) PatchTableSchema(patchTable *Table) error {
	wrappedTx, err := p.OpenTx()
	if err != nil {
		return err
	}

	return wrappedTx.finish(p.patchTableSchemaInTransaction(wrappedTx, patchTable))
}

//GetTableSchema returns table (name,columns with name and types) representation wrapped in Table struct
//returns Table without columns if table doesn't exist
func (p *Postgres) GetTableSchema(tableName string) (*Table, error) {
	table := &Table{Schema: p.config.Schema, Name: tableName, Columns: Columns{}}
	rows, err := p.dataSource.QueryContext(p.ctx, tableSchemaQuery, p.config.Schema, tableName)
	if err != nil {
		err = checkErr(err)
		return nil, errorj.GetTableError.Wrap(err, "failed to get table columns").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Schema:    p.config.Schema,
				Table:     table.Name,
				Statement: tableSchemaQuery,
				Values:    []interface{}{p.config.Schema, tableName},
			})
	}

	defer rows.Close()
	for rows.Next() {
		var columnName, columnPostgresType string
		if err := rows.Scan(&columnName, &columnPostgresType); err != nil {
			return nil, errorj.GetTableError.Wrap(err, "failed to scan result").
				WithProperty(errorj.DBInfo, &ErrorPayload{
					Schema:    p.config.Schema,
					Table:     table.Name,
					Statement: tableSchemaQuery,
				})
		}

		table.Columns[columnName] = typing.SQLColumn{Type: columnPostgresType}
		table.ColumnsOrder = append(table.ColumnsOrder, columnName)
	}

	if err := rows.Err(); err != nil {
		return nil, errorj.GetTableError.Wrap(err, "failed read last row").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Schema:    p.config.Schema,
				Table:     table.Name,
				Statement: tableSchemaQuery,
			})
	}

	return table, nil
}

//DropTable drops table in transaction
func (p *Postgres) DropTable(table *Table) error {
	wrappedTx, err := p.OpenTx()
	if err != nil {
		return err
	}

	return wrappedTx.finish(p.dropTableInTransaction(wrappedTx, dropTableTemplate, table.Name))
}

//ReplaceTable drops target table (if exists) and renames tmp table in one transaction
func (p *Postgres) ReplaceTable(tmpTableName, targetTableName string) error {
	wrappedTx, err := p.OpenTx()
	if err != nil {
		return err
	}

	if err := p.dropTableInTransaction(wrappedTx, dropTableIfExistsTemplate, targetTableName); err != nil {
		return wrappedTx.finish(err)
	}

	query := fmt.Sprintf(renameTableTemplate, pq.QuoteIdentifier(p.config.Schema), pq.QuoteIdentifier(tmpTableName), pq.QuoteIdentifier(targetTableName))
	p.queryLogger.LogDDL(query)

	if _, err := wrappedTx.ExecContext(query); err != nil {
		err = checkErr(err)
		return wrappedTx.finish(errorj.RenameError.Wrap(err, "failed to rename table").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Schema:    p.config.Schema,
				Table:     tmpTableName,
				Statement: query,
			}))
	}

	return wrappedTx.Commit()
}

//BulkInsert inserts rows in batches (insert into values (),(),()) in one transaction
func (p *Postgres) BulkInsert(table *Table, rows [][]interface{}, batchSize int, progress ProgressFunc) error {
	wrappedTx, err := p.OpenTx()
	if err != nil {
		return err
	}

	header := table.ColumnNames()
	placeholder := func(position int, column string) string {
		return "$" + strconv.Itoa(position) + p.getCastClause(table.Columns[column])
	}
	execute := func(header []string, placeholders string, valueArgs []interface{}, rowsCount int) error {
		return p.executeInsertInTransaction(wrappedTx, table, header, placeholders, valueArgs, rowsCount)
	}

	perStatement := rowsPerStatement(batchSize, PostgresValuesLimit, len(header))
	return wrappedTx.finish(bulkInsert(header, rows, perStatement, placeholder, execute, progress))
}

//Query runs select statement
func (p *Postgres) Query(statement string) (*QueryResult, error) {
	return query(p.ctx, p.dataSource, p.queryLogger, p.Type(), statement)
}

//QualifiedName returns "schema"."table"
func (p *Postgres) QualifiedName(tableName string) string {
	return pq.QuoteIdentifier(p.config.Schema) + "." + pq.QuoteIdentifier(tableName)
}

//Close underlying sql.DB
func (p *Postgres) Close() error {
	return p.dataSource.Close()
}

//create table columns in the table columns order
func (p *Postgres) createTableInTransaction(wrappedTx *Transaction, table *Table) error {
	var columnsDDL []string
	for _, columnName := range table.ColumnNames() {
		columnsDDL = append(columnsDDL, p.columnDDL(columnName, table.Columns[columnName]))
	}

	query := fmt.Sprintf(createTableTemplate, pq.QuoteIdentifier(p.config.Schema), pq.QuoteIdentifier(table.Name), strings.Join(columnsDDL, ", "))
	p.queryLogger.LogDDL(query)

	if _, err := wrappedTx.ExecContext(query); err != nil {
		err = checkErr(err)

		return errorj.CreateTableError.Wrap(err, "failed to create table").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Schema:    p.config.Schema,
				Table:     table.Name,
				Statement: query,
			})
	}

	return nil
}

//alter table with columns (if not empty)
func (p *Postgres) patchTableSchemaInTransaction(wrappedTx *Transaction, patchTable *Table) error {
	for _, columnName := range patchTable.ColumnNames() {
		columnDDL := p.columnDDL(columnName, patchTable.Columns[columnName])
		query := fmt.Sprintf(addColumnTemplate, pq.QuoteIdentifier(p.config.Schema), pq.QuoteIdentifier(patchTable.Name), columnDDL)
		p.queryLogger.LogDDL(query)

		if _, err := wrappedTx.ExecContext(query); err != nil {
			err = checkErr(err)
			return errorj.PatchTableError.Wrap(err, "failed to patch table").
				WithProperty(errorj.DBInfo, &ErrorPayload{
					Schema:    p.config.Schema,
					Table:     patchTable.Name,
					Statement: query,
				})
		}
	}

	return nil
}

func (p *Postgres) dropTableInTransaction(wrappedTx *Transaction, template, tableName string) error {
	query := fmt.Sprintf(template, pq.QuoteIdentifier(p.config.Schema), pq.QuoteIdentifier(tableName))
	p.queryLogger.LogDDL(query)

	if _, err := wrappedTx.ExecContext(query); err != nil {
		err = checkErr(err)

		return errorj.DropError.Wrap(err, "failed to drop table").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Schema:    p.config.Schema,
				Table:     tableName,
				Statement: query,
			})
	}

	return nil
}

//executeInsertInTransaction execute insert with insertTemplate
func (p *Postgres) executeInsertInTransaction(wrappedTx *Transaction, table *Table, headerWithoutQuotes []string,
	placeholders string, valueArgs []interface{}, rowsCount int) error {
	var quotedHeader []string
	for _, columnName := range headerWithoutQuotes {
		quotedHeader = append(quotedHeader, pq.QuoteIdentifier(columnName))
	}

	statement := fmt.Sprintf(insertTemplate, pq.QuoteIdentifier(p.config.Schema), pq.QuoteIdentifier(table.Name), strings.Join(quotedHeader, ","), placeholders)
	p.queryLogger.LogQueryWithValues(statement, valueArgs)

	if _, err := wrappedTx.ExecContext(statement, valueArgs...); err != nil {
		err = checkErr(err)
		return errorj.ExecuteInsertError.Wrap(err, "failed to execute insert").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Schema:    p.config.Schema,
				Table:     table.Name,
				Statement: statement,
				Rows:      rowsCount,
			})
	}

	return nil
}

//columnDDL returns column DDL (quoted column name, mapped sql type)
func (p *Postgres) columnDDL(name string, column typing.SQLColumn) string {
	return pq.QuoteIdentifier(name) + " " + column.DDLType()
}

//getCastClause returns ::SQL_TYPE clause or empty string for text columns
//$1::bigint, $2, etc
func (p *Postgres) getCastClause(column typing.SQLColumn) string {
	if column.Type == "" || column.Type == "text" {
		return ""
	}

	return "::" + column.Type
}

//checkErr checks and extracts parsed pg.Error and extract code,message,details
func checkErr(err error) error {
	if err == nil {
		return nil
	}

	if pgErr, ok := err.(*pq.Error); ok {
		msgParts := []string{"pq:"}
		if pgErr.Code != "" {
			msgParts = append(msgParts, string(pgErr.Code))
		}
		if pgErr.Message != "" {
			msgParts = append(msgParts, pgErr.Message)
		}
		if pgErr.Detail != "" {
			msgParts = append(msgParts, pgErr.Detail)
		}
		if pgErr.Schema != "" {
			msgParts = append(msgParts, "schema:"+pgErr.Schema)
		}
		if pgErr.Table != "" {
			msgParts = append(msgParts, "table:"+pgErr.Table)
		}
		if pgErr.Column != "" {
			msgParts = append(msgParts, "column:"+pgErr.Column)
		}
		if pgErr.DataTypeName != "" {
			msgParts = append(msgParts, "data_type:"+pgErr.DataTypeName)
		}
		if pgErr.Constraint != "" {
			msgParts = append(msgParts, "constraint:"+pgErr.Constraint)
		}
		return errors.New(strings.Join(msgParts, " "))
	}

	return err
}
