package adapters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/typing"
	sf "github.com/snowflakedb/gosnowflake"
)

const (
	tableSchemaSFQuery = `SELECT COLUMN_NAME, concat(DATA_TYPE, IFF(NUMERIC_SCALE is null, '', TO_VARCHAR(NUMERIC_SCALE))) from INFORMATION_SCHEMA.COLUMNS where TABLE_SCHEMA = ? and TABLE_NAME = ? ORDER BY ORDINAL_POSITION`

	createSFDbSchemaIfNotExistsTemplate = `CREATE SCHEMA IF NOT EXISTS %s`
	addSFColumnTemplate                 = `ALTER TABLE %s.%s ADD COLUMN %s`
	createSFTableTemplate               = `CREATE TABLE %s.%s (%s)`
	insertSFTemplate                    = `INSERT INTO %s.%s (%s) VALUES %s`
	dropSFTableTemplate                 = `DROP TABLE %s.%s`
	swapSFTableTemplate                 = `ALTER TABLE %s.%s SWAP WITH %s.%s`
	renameSFTableTemplate               = `ALTER TABLE %s.%s RENAME TO %s.%s`

	//SnowflakeValuesLimit is a limit of bind values in one statement
	SnowflakeValuesLimit = 65535
)

var (
	SchemaToSnowflake = map[typing.DataType]string{
		typing.STRING:    "text",
		typing.INT64:     "bigint",
		typing.FLOAT64:   "double precision",
		typing.TIMESTAMP: "timestamp(6)",
		typing.BOOL:      "boolean",
		typing.UNKNOWN:   "text",
	}
)

//SnowflakeConfig dto for deserialized datasource config for Snowflake
type SnowflakeConfig struct {
	Account    string             `mapstructure:"account" json:"account,omitempty" yaml:"account,omitempty"`
	Port       int                `mapstructure:"port" json:"port,omitempty" yaml:"port,omitempty"`
	Db         string             `mapstructure:"db" json:"db,omitempty" yaml:"db,omitempty"`
	Schema     string             `mapstructure:"schema" json:"schema,omitempty" yaml:"schema,omitempty"`
	Username   string             `mapstructure:"username" json:"username,omitempty" yaml:"username,omitempty"`
	Password   string             `mapstructure:"password" json:"password,omitempty" yaml:"password,omitempty"`
	Warehouse  string             `mapstructure:"warehouse" json:"warehouse,omitempty" yaml:"warehouse,omitempty"`
	Role       string             `mapstructure:"role" json:"role,omitempty" yaml:"role,omitempty"`
	Parameters map[string]*string `mapstructure:"parameters" json:"parameters,omitempty" yaml:"parameters,omitempty"`
}

//Validate required fields in SnowflakeConfig
func (sc *SnowflakeConfig) Validate() error {
	if sc == nil {
		return errors.New("Snowflake config is required")
	}
	if sc.Account == "" {
		return errors.New("Snowflake account is required parameter")
	}
	if sc.Db == "" {
		return errors.New("Snowflake db is required parameter")
	}
	if sc.Username == "" {
		return errors.New("Snowflake username is required parameter")
	}
	if sc.Warehouse == "" {
		return errors.New("Snowflake warehouse is required parameter")
	}

	if sc.Parameters == nil {
		sc.Parameters = map[string]*string{}
	}

	return nil
}

//Snowflake is adapter for creating,patching (schema or table), inserting and selecting data from snowflake
type Snowflake struct {
	ctx         context.Context
	config      *SnowflakeConfig
	dataSource  *sql.DB
	queryLogger *logging.QueryLogger
}

//NewSnowflake returns configured Snowflake adapter instance
//returns *sf.SnowflakeError as is so callers can check error numbers
func NewSnowflake(ctx context.Context, config *SnowflakeConfig, queryLogger *logging.QueryLogger) (*Snowflake, error) {
	cfg := &sf.Config{
		Account:   config.Account,
		User:      config.Username,
		Password:  config.Password,
		Port:      config.Port,
		Schema:    reformatValue(config.Schema),
		Database:  config.Db,
		Warehouse: config.Warehouse,
		Role:      config.Role,
		Params:    config.Parameters,
	}
	connectionString, err := sf.DSN(cfg)
	if err != nil {
		return nil, err
	}

	dataSource, err := sql.Open("snowflake", connectionString)
	if err != nil {
		return nil, err
	}

	if err := dataSource.PingContext(ctx); err != nil {
		dataSource.Close()
		return nil, err
	}

	return &Snowflake{ctx: ctx, config: config, dataSource: dataSource, queryLogger: queryLogger}, nil
}

//Type returns Snowflake type
func (Snowflake) Type() string {
	return "Snowflake"
}

//OpenTx open underline sql transaction and return wrapped instance
func (s *Snowflake) OpenTx() (*Transaction, error) {
	return openTx(s.ctx, s.dataSource, s.Type())
}

//CreateDbSchema create database schema instance if doesn't exist
func (s *Snowflake) CreateDbSchema(dbSchemaName string) error {
	query := fmt.Sprintf(createSFDbSchemaIfNotExistsTemplate, reformatValue(dbSchemaName))
	s.queryLogger.LogDDL(query)

	if _, err := s.dataSource.ExecContext(s.ctx, query); err != nil {
		return errorj.CreateSchemaError.Wrap(err, "failed to create db schema").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Database:  s.config.Db,
				Schema:    dbSchemaName,
				Statement: query,
			})
	}

	return nil
}

//CreateTable creates table with columns in the table columns order
func (s *Snowflake) CreateTable(table *Table) error {
	var columnsDDL []string
	for _, columnName := range table.ColumnNames() {
		columnsDDL = append(columnsDDL, s.columnDDL(columnName, table.Columns[columnName]))
	}

	query := fmt.Sprintf(createSFTableTemplate, s.schema(), reformatValue(table.Name), strings.Join(columnsDDL, ","))
	s.queryLogger.LogDDL(query)

	if _, err := s.dataSource.ExecContext(s.ctx, query); err != nil {
		return errorj.CreateTableError.Wrap(err, "failed to create table").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Database:  s.config.Db,
				Schema:    s.config.Schema,
				Table:     table.Name,
				Statement: query,
			})
	}

	return nil
}

//PatchTableSchema add new columns(from provided Table) to existing table
func (s *Snowflake) PatchTableSchema(patchSchema *Table) error {
	wrappedTx, err := s.OpenTx()
	if err != nil {
		return err
	}

	for _, columnName := range patchSchema.ColumnNames() {
		columnDDL := s.columnDDL(columnName, patchSchema.Columns[columnName])

		query := fmt.Sprintf(addSFColumnTemplate, s.schema(), reformatValue(patchSchema.Name), columnDDL)
		s.queryLogger.LogDDL(query)

		if _, err := wrappedTx.ExecContext(query); err != nil {
			return wrappedTx.finish(errorj.PatchTableError.Wrap(err, "failed to patch table").
				WithProperty(errorj.DBInfo, &ErrorPayload{
					Database:  s.config.Db,
					Schema:    s.config.Schema,
					Table:     patchSchema.Name,
					Statement: query,
				}))
		}
	}

	return wrappedTx.Commit()
}

//GetTableSchema return table (name,columns with name and types) representation wrapped in Table struct
func (s *Snowflake) GetTableSchema(tableName string) (*Table, error) {
	table := &Table{Schema: s.config.Schema, Name: tableName, Columns: Columns{}}

	rows, err := s.dataSource.QueryContext(s.ctx, tableSchemaSFQuery, reformatToParam(s.config.Schema), reformatToParam(tableName))
	if err != nil {
		return nil, errorj.GetTableError.Wrap(err, "failed to get table columns").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Database:  s.config.Db,
				Schema:    s.config.Schema,
				Table:     tableName,
				Statement: tableSchemaSFQuery,
			})
	}

	defer rows.Close()
	for rows.Next() {
		var columnName, columnSnowflakeType string
		if err := rows.Scan(&columnName, &columnSnowflakeType); err != nil {
			return nil, errorj.GetTableError.Wrap(err, "failed to scan result").
				WithProperty(errorj.DBInfo, &ErrorPayload{Schema: s.config.Schema, Table: tableName})
		}

		name := strings.ToLower(columnName)
		table.Columns[name] = typing.SQLColumn{Type: columnSnowflakeType}
		table.ColumnsOrder = append(table.ColumnsOrder, name)
	}
	if err := rows.Err(); err != nil {
		return nil, errorj.GetTableError.Wrap(err, "failed read last row").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: s.config.Schema, Table: tableName})
	}

	return table, nil
}

//DropTable drops table
func (s *Snowflake) DropTable(table *Table) error {
	return s.dropTable(table.Name)
}

//ReplaceTable swaps tmp table with the target one and drops tmp (former target) table
//if target table doesn't exist tmp table is renamed
func (s *Snowflake) ReplaceTable(tmpTableName, targetTableName string) error {
	target, err := s.GetTableSchema(targetTableName)
	if err != nil {
		return err
	}

	if !target.Exists() {
		query := fmt.Sprintf(renameSFTableTemplate, s.schema(), reformatValue(tmpTableName), s.schema(), reformatValue(targetTableName))
		s.queryLogger.LogDDL(query)
		if _, err := s.dataSource.ExecContext(s.ctx, query); err != nil {
			return errorj.RenameError.Wrap(err, "failed to rename table").
				WithProperty(errorj.DBInfo, &ErrorPayload{Schema: s.config.Schema, Table: tmpTableName, Statement: query})
		}
		return nil
	}

	query := fmt.Sprintf(swapSFTableTemplate, s.schema(), reformatValue(targetTableName), s.schema(), reformatValue(tmpTableName))
	s.queryLogger.LogDDL(query)
	if _, err := s.dataSource.ExecContext(s.ctx, query); err != nil {
		return errorj.RenameError.Wrap(err, "failed to swap tables").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: s.config.Schema, Table: targetTableName, Statement: query})
	}

	return s.dropTable(tmpTableName)
}

//BulkInsert inserts rows in batches (insert into values (),(),()) in one transaction
func (s *Snowflake) BulkInsert(table *Table, rows [][]interface{}, batchSize int, progress ProgressFunc) error {
	wrappedTx, err := s.OpenTx()
	if err != nil {
		return err
	}

	header := table.ColumnNames()
	placeholder := func(int, string) string { return "?" }
	execute := func(header []string, placeholders string, valueArgs []interface{}, rowsCount int) error {
		return s.executeInsert(wrappedTx, table, header, placeholders, valueArgs, rowsCount)
	}

	perStatement := rowsPerStatement(batchSize, SnowflakeValuesLimit, len(header))
	return wrappedTx.finish(bulkInsert(header, rows, perStatement, placeholder, execute, progress))
}

//Query runs select statement
func (s *Snowflake) Query(statement string) (*QueryResult, error) {
	return query(s.ctx, s.dataSource, s.queryLogger, s.Type(), statement)
}

//QualifiedName returns db.schema.table
func (s *Snowflake) QualifiedName(tableName string) string {
	return reformatValue(s.config.Db) + "." + s.schema() + "." + reformatValue(tableName)
}

//schema returns the schema identifier for statements
func (s *Snowflake) schema() string {
	return reformatValue(s.config.Schema)
}

//Close underlying sql.DB
func (s *Snowflake) Close() error {
	return s.dataSource.Close()
}

func (s *Snowflake) dropTable(tableName string) error {
	query := fmt.Sprintf(dropSFTableTemplate, s.schema(), reformatValue(tableName))
	s.queryLogger.LogDDL(query)

	if _, err := s.dataSource.ExecContext(s.ctx, query); err != nil {
		return errorj.DropError.Wrap(err, "failed to drop table").
			WithProperty(errorj.DBInfo, &ErrorPayload{Schema: s.config.Schema, Table: tableName, Statement: query})
	}

	return nil
}

//executeInsert execute insert with insertTemplate
func (s *Snowflake) executeInsert(wrappedTx *Transaction, table *Table, headerWithoutQuotes []string, placeholders string, valueArgs []interface{}, rowsCount int) error {
	var quotedHeader []string
	for _, columnName := range headerWithoutQuotes {
		quotedHeader = append(quotedHeader, reformatValue(columnName))
	}

	statement := fmt.Sprintf(insertSFTemplate, s.schema(), reformatValue(table.Name), strings.Join(quotedHeader, ", "), placeholders)
	s.queryLogger.LogQueryWithValues(statement, valueArgs)

	if _, err := wrappedTx.ExecContext(statement, valueArgs...); err != nil {
		return errorj.ExecuteInsertError.Wrap(err, "failed to execute insert").
			WithProperty(errorj.DBInfo, &ErrorPayload{
				Database:  s.config.Db,
				Schema:    s.config.Schema,
				Table:     table.Name,
				Statement: statement,
				Rows:      rowsCount,
			})
	}

	return nil
}

//columnDDL returns column DDL (column name, mapped sql type)
func (s *Snowflake) columnDDL(name string, column typing.SQLColumn) string {
	return fmt.Sprintf(`%s %s`, reformatValue(name), column.DDLType())
}

//IsSnowflakeSchemaNotExistError returns true if err is a Snowflake "object doesn't exist or not authorized" error
func IsSnowflakeSchemaNotExistError(err error) bool {
	var sfErr *sf.SnowflakeError
	if errors.As(err, &sfErr) {
		return sfErr.Number == sf.ErrObjectNotExistOrAuthorized
	}

	return false
}

//Snowflake has table with schema, table names and there
//identifiers which require quotes = as is
//unquoted identifiers = uppercased
func reformatToParam(value string) string {
	if reformatValue(value) != value {
		return value
	}

	return strings.ToUpper(value)
}

//Snowflake accepts names (identifiers) started with '_' or letter
//also names can contain only '_', letters, numbers, '$'
//otherwise double quote them (embedded double quotes are doubled)
//https://docs.snowflake.com/en/sql-reference/identifiers-syntax.html#unquoted-identifiers
func reformatValue(value string) string {
	if len(value) > 0 {
		//must begin with a letter or underscore, or enclose in double quotes
		firstSymbol := value[0]

		if isNotLetterOrUnderscore(int32(firstSymbol)) {
			return quoteSFIdentifier(value)
		}

		for _, symbol := range value {
			if isNotLetterOrUnderscore(symbol) && isNotNumberOrDollar(symbol) {
				return quoteSFIdentifier(value)
			}
		}

	}

	return value
}

func quoteSFIdentifier(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

//_: 95
//A - Z: 65-90
//a - z: 97-122
func isNotLetterOrUnderscore(symbol int32) bool {
	return symbol < 65 || (symbol != 95 && symbol > 90 && symbol < 97) || symbol > 122
}

//$: 36
// 0 - 9: 48-57
func isNotNumberOrDollar(symbol int32) bool {
	return symbol != 36 && (symbol < 48 || symbol > 57)
}
