package storages

import (
	"context"
	"strings"

	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/joomcode/errorx"
)

//FactoryImpl creates SQL warehouses
type FactoryImpl struct {
	queryLogger *logging.QueryLogger
}

//NewFactory returns Factory which creates warehouses writing SQL statements into queryLogger
func NewFactory(queryLogger *logging.QueryLogger) Factory {
	return &FactoryImpl{queryLogger: queryLogger}
}

//Create validates config, connects to the warehouse and ensures the destination schema exists
func (f *FactoryImpl) Create(ctx context.Context, config *DestinationConfig) (Warehouse, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logging.Infof("Initializing %s", config)

	var adapter adapters.SQLAdapter
	var dbTypes = adapters.SchemaToSnowflake
	var err error
	switch config.Type {
	case SnowflakeType:
		adapter, err = f.createSnowflake(ctx, config)
	case PostgresType:
		adapter, err = f.createPostgres(ctx, config)
		dbTypes = adapters.SchemaToPostgres
	case DuckDBType:
		adapter, err = f.createDuckDB(ctx, config)
		dbTypes = adapters.SchemaToDuckDB
	}
	if err != nil {
		if errorx.IsOfType(err, errorj.ConfigError) {
			return nil, errorj.Decorate(err, "failed to initialize %s destination", config.Type)
		}
		return nil, errorj.UploadError.Wrap(err, "failed to initialize %s destination", config.Type).
			WithProperty(errorj.DestinationType, config.Type)
	}

	return NewSQLWarehouse(adapter, NewTableHelper(adapter, dbTypes), config), nil
}

func (f *FactoryImpl) createSnowflake(ctx context.Context, config *DestinationConfig) (adapters.SQLAdapter, error) {
	snowflakeConfig := config.Snowflake
	if snowflakeConfig == nil {
		snowflakeConfig = &adapters.SnowflakeConfig{}
	}
	if snowflakeConfig.Db == "" {
		snowflakeConfig.Db = config.Db
	}
	if snowflakeConfig.Schema == "" {
		snowflakeConfig.Schema = config.Schema
	}
	if err := snowflakeConfig.Validate(); err != nil {
		return nil, errorj.ConfigError.Wrap(err, "invalid snowflake config")
	}
	if snowflakeConfig.Schema == "" {
		snowflakeConfig.Schema = "PUBLIC"
		logging.Warnf("[%s] schema wasn't provided. Will be used default one: %s", config.Table, snowflakeConfig.Schema)
	}

	//default client_session_keep_alive
	if _, ok := snowflakeConfig.Parameters["client_session_keep_alive"]; !ok {
		t := "true"
		snowflakeConfig.Parameters["client_session_keep_alive"] = &t
	}

	return CreateSnowflakeAdapter(ctx, *snowflakeConfig, f.queryLogger)
}

//CreateSnowflakeAdapter creates snowflake adapter with schema
//if schema doesn't exist - snowflake returns error. In this case connect without schema and create it
func CreateSnowflakeAdapter(ctx context.Context, config adapters.SnowflakeConfig, queryLogger *logging.QueryLogger) (*adapters.Snowflake, error) {
	snowflakeAdapter, err := adapters.NewSnowflake(ctx, &config, queryLogger)
	if err == nil {
		return snowflakeAdapter, nil
	}

	if !adapters.IsSnowflakeSchemaNotExistError(err) {
		return nil, errorj.ConnectionError.Wrap(err, "failed to connect to Snowflake").
			WithProperty(errorj.DestinationType, SnowflakeType)
	}

	//schema doesn't exist
	snowflakeSchema := config.Schema
	config.Schema = ""
	withoutSchemaAdapter, err := adapters.NewSnowflake(ctx, &config, queryLogger)
	if err != nil {
		return nil, errorj.ConnectionError.Wrap(err, "failed to connect to Snowflake without schema").
			WithProperty(errorj.DestinationType, SnowflakeType)
	}
	config.Schema = snowflakeSchema

	//create schema and reconnect
	err = withoutSchemaAdapter.CreateDbSchema(config.Schema)
	withoutSchemaAdapter.Close()
	if err != nil {
		return nil, err
	}

	snowflakeAdapter, err = adapters.NewSnowflake(ctx, &config, queryLogger)
	if err != nil {
		return nil, errorj.ConnectionError.Wrap(err, "failed to connect to Snowflake").
			WithProperty(errorj.DestinationType, SnowflakeType)
	}

	return snowflakeAdapter, nil
}

func (f *FactoryImpl) createPostgres(ctx context.Context, config *DestinationConfig) (adapters.SQLAdapter, error) {
	postgresConfig := config.Postgres
	if postgresConfig == nil {
		postgresConfig = &adapters.DataSourceConfig{}
	}
	if postgresConfig.Db == "" {
		postgresConfig.Db = config.Db
	}
	if postgresConfig.Schema == "" {
		postgresConfig.Schema = config.Schema
	}
	if err := postgresConfig.Validate(); err != nil {
		return nil, errorj.ConfigError.Wrap(err, "invalid postgres config")
	}
	//default connect timeout seconds
	if _, ok := postgresConfig.Parameters["connect_timeout"]; !ok {
		postgresConfig.Parameters["connect_timeout"] = "600"
	}

	postgres, err := adapters.NewPostgres(ctx, postgresConfig, f.queryLogger)
	if err != nil {
		return nil, errorj.ConnectionError.Wrap(err, "failed to connect to Postgres").
			WithProperty(errorj.DestinationType, PostgresType)
	}

	if err := postgres.CreateDbSchema(postgresConfig.Schema); err != nil {
		postgres.Close()
		return nil, err
	}

	return postgres, nil
}

func (f *FactoryImpl) createDuckDB(ctx context.Context, config *DestinationConfig) (adapters.SQLAdapter, error) {
	duckDBConfig := config.DuckDB
	if duckDBConfig == nil {
		duckDBConfig = &adapters.DuckDBConfig{}
	}
	if duckDBConfig.Schema == "" {
		duckDBConfig.Schema = config.Schema
	}
	if err := duckDBConfig.Validate(); err != nil {
		return nil, errorj.ConfigError.Wrap(err, "invalid duckdb config")
	}
	if strings.TrimSpace(duckDBConfig.Path) == "" {
		logging.Warnf("[%s] duckdb path wasn't provided. In-memory database will be used", config.Table)
	}

	duckDB, err := adapters.NewDuckDB(ctx, duckDBConfig, f.queryLogger)
	if err != nil {
		return nil, errorj.ConnectionError.Wrap(err, "failed to open DuckDB").
			WithProperty(errorj.DestinationType, DuckDBType)
	}

	if err := duckDB.CreateDbSchema(duckDBConfig.Schema); err != nil {
		duckDB.Close()
		return nil, err
	}

	return duckDB, nil
}
