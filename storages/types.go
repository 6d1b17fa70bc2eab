package storages

import (
	"context"

	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/schema"
)

const (
	SnowflakeType = "snowflake"
	PostgresType  = "postgres"
	DuckDBType    = "duckdb"

	//CreateMode creates the table and fails if it already exists
	CreateMode = "create"
	//AppendMode creates the table if it doesn't exist or adds missing columns, then inserts rows
	AppendMode = "append"
	//ReplaceMode loads rows into a temporary table and puts it in place of the target one
	ReplaceMode = "replace"
)

//Warehouse is a destination table in a data warehouse
type Warehouse interface {
	//Type returns warehouse type (Snowflake, Postgres, DuckDB)
	Type() string
	//QualifiedTableName returns fully qualified destination table name usable in queries
	QualifiedTableName() string
	//Upload writes the dataset into the destination table according to the write mode
	//returns number of uploaded rows
	Upload(dataset *schema.Dataset, progress adapters.ProgressFunc) (int, error)
	//Query runs select statement
	Query(query string) (*adapters.QueryResult, error)
	Close() error
}

//Factory creates Warehouse instances from the destination configuration
type Factory interface {
	Create(ctx context.Context, config *DestinationConfig) (Warehouse, error)
}
