package storages

import (
	"fmt"
	"strings"

	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/mitchellh/mapstructure"
)

const defaultBatchSize = 1000

//DestinationConfig is a destination namespace, table and write mode with warehouse connection settings
//Db and Schema are used when the warehouse specific section doesn't set them
type DestinationConfig struct {
	Type      string `mapstructure:"type" json:"type,omitempty" yaml:"type,omitempty"`
	Db        string `mapstructure:"db" json:"db,omitempty" yaml:"db,omitempty"`
	Schema    string `mapstructure:"schema" json:"schema,omitempty" yaml:"schema,omitempty"`
	Table     string `mapstructure:"table" json:"table,omitempty" yaml:"table,omitempty"`
	WriteMode string `mapstructure:"write_mode" json:"write_mode,omitempty" yaml:"write_mode,omitempty"`
	BatchSize int    `mapstructure:"batch_size" json:"batch_size,omitempty" yaml:"batch_size,omitempty"`

	Snowflake *adapters.SnowflakeConfig  `mapstructure:"snowflake" json:"snowflake,omitempty" yaml:"snowflake,omitempty"`
	Postgres  *adapters.DataSourceConfig `mapstructure:"postgres" json:"postgres,omitempty" yaml:"postgres,omitempty"`
	DuckDB    *adapters.DuckDBConfig     `mapstructure:"duckdb" json:"duckdb,omitempty" yaml:"duckdb,omitempty"`
}

//ParseDestinationConfig decodes raw settings (e.g. viper "destination" section) into DestinationConfig
//string values (from environment variables) are converted into target types
func ParseDestinationConfig(settings map[string]interface{}) (*DestinationConfig, error) {
	config := &DestinationConfig{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           config,
	})
	if err != nil {
		return nil, err
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, errorj.ConfigError.Wrap(err, "failed to parse destination config")
	}

	return config, nil
}

//Validate checks required fields and sets defaults
func (dc *DestinationConfig) Validate() error {
	dc.Type = strings.ToLower(strings.TrimSpace(dc.Type))
	if dc.Type == "" {
		dc.Type = SnowflakeType
	}
	if dc.Type != SnowflakeType && dc.Type != PostgresType && dc.Type != DuckDBType {
		return errorj.ConfigError.New("Unknown destination type: %s. Available types: [%s, %s, %s]", dc.Type, SnowflakeType, PostgresType, DuckDBType)
	}

	if dc.Table == "" {
		return errorj.ConfigError.New("destination table is required parameter")
	}

	dc.WriteMode = strings.ToLower(strings.TrimSpace(dc.WriteMode))
	if dc.WriteMode == "" {
		dc.WriteMode = CreateMode
	}
	if dc.WriteMode != CreateMode && dc.WriteMode != AppendMode && dc.WriteMode != ReplaceMode {
		return errorj.ConfigError.New("Unknown write mode: %s. Available modes: [%s, %s, %s]", dc.WriteMode, CreateMode, AppendMode, ReplaceMode)
	}

	if dc.BatchSize <= 0 {
		dc.BatchSize = defaultBatchSize
	}

	return nil
}

//String returns human readable destination description without credentials
func (dc *DestinationConfig) String() string {
	return fmt.Sprintf("%s table [%s] (write mode: %s)", dc.Type, dc.Table, dc.WriteMode)
}
