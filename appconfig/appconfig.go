package appconfig

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/safego"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

const appName = "sheetloader"

//AppConfig keeps SQL debug writers and resources which must be closed on exit
type AppConfig struct {
	DDLLogsWriter   io.Writer
	QueryLogsWriter io.Writer

	closeMe []io.Closer
}

var Instance *AppConfig

//secretKeys have no defaults so they are bound explicitly to be overridable by environment variables
//e.g. DESTINATION_SNOWFLAKE_PASSWORD
var secretKeys = []string{
	"destination.table",
	"destination.schema",
	"destination.snowflake.account",
	"destination.snowflake.port",
	"destination.snowflake.db",
	"destination.snowflake.schema",
	"destination.snowflake.username",
	"destination.snowflake.password",
	"destination.snowflake.warehouse",
	"destination.snowflake.role",
	"destination.postgres.host",
	"destination.postgres.port",
	"destination.postgres.db",
	"destination.postgres.schema",
	"destination.postgres.username",
	"destination.postgres.password",
	"destination.duckdb.path",
	"destination.duckdb.schema",
}

func setDefaultParams() {
	viper.SetDefault("source.path", "")
	viper.SetDefault("source.sheet", "")
	viper.SetDefault("source.csv_delimiter", ",")
	viper.SetDefault("source.preview_rows", 5)
	viper.SetDefault("source.infer_types", true)
	viper.SetDefault("normalization.style", "simple")
	viper.SetDefault("normalization.on_collision", "fail")
	viper.SetDefault("destination.type", "snowflake")
	viper.SetDefault("destination.db", "sandbox_db")
	viper.SetDefault("destination.write_mode", "create")
	viper.SetDefault("destination.batch_size", 1000)
	viper.SetDefault("verify.sample_rows", 5)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.path", "")
	viper.SetDefault("log.rotation_min", 1440)
	viper.SetDefault("sql_debug_log.queries.rotation_min", 1440)
	viper.SetDefault("sql_debug_log.ddl.rotation_min", 1440)
}

//Read sets defaults, reads config file (if provided) and environment variables
//source.path -> SOURCE_PATH
func Read(configPath string) error {
	setDefaultParams()

	viper.AutomaticEnv()
	//support OS env variables as lower case and dot divided variables e.g. SOURCE_PATH as source.path
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range secretKeys {
		if err := viper.BindEnv(key); err != nil {
			return fmt.Errorf("failed to bind env variable for %s: %v", key, err)
		}
	}

	if configPath == "" {
		return nil
	}

	viper.SetConfigFile(configPath)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %v", configPath, err)
	}

	return nil
}

//Init creates global logger, SQL debug writers and AppConfig Instance
func Init() error {
	globalLoggerConfig := logging.Config{
		FileName:    appName + "-main",
		FileDir:     viper.GetString("log.path"),
		RotationMin: viper.GetInt64("log.rotation_min"),
		MaxBackups:  viper.GetInt("log.max_backups")}

	var appConfig AppConfig

	//Global logger writes into stderr, stdout is used for the report
	//
	//   configured file logger            no file logger configured
	//     /             \                            |
	// os.Stderr      FileWriter                  os.Stderr
	if globalLoggerConfig.FileDir != "" {
		if err := logging.EnsureDir(globalLoggerConfig.FileDir); err != nil {
			return fmt.Errorf("failed to create log dir %s: %v", globalLoggerConfig.FileDir, err)
		}
		fileWriter := logging.NewRollingWriter(globalLoggerConfig)
		appConfig.ScheduleClosing(fileWriter)
		logging.GlobalLogsWriter = logging.Dual{
			FileWriter: fileWriter,
			Stdout:     os.Stderr,
		}
	} else {
		logging.GlobalLogsWriter = os.Stderr
	}

	if err := logging.InitGlobalLogger(logging.GlobalLogsWriter, viper.GetString("log.level")); err != nil {
		return err
	}

	safego.GlobalRecoverHandler = func(value interface{}) {
		logging.Error("panic")
		logging.Error(value)
	}

	// SQL DDL debug writer
	if viper.IsSet("sql_debug_log.ddl.path") {
		writer, err := appConfig.getSQLWriter(viper.Sub("sql_debug_log.ddl"), "ddl-debug")
		if err != nil {
			return err
		}
		appConfig.DDLLogsWriter = writer
	}
	// SQL queries debug writer
	if viper.IsSet("sql_debug_log.queries.path") {
		writer, err := appConfig.getSQLWriter(viper.Sub("sql_debug_log.queries"), "sql-debug")
		if err != nil {
			return err
		}
		appConfig.QueryLogsWriter = writer
	}

	Instance = &appConfig
	return nil
}

//QueryLogger returns logger of SQL statements into configured debug writers
func (a *AppConfig) QueryLogger(identifier string) *logging.QueryLogger {
	return logging.NewQueryLogger(identifier, a.DDLLogsWriter, a.QueryLogsWriter)
}

//DestinationSettings returns raw "destination" section with overrides from environment variables
func DestinationSettings() map[string]interface{} {
	return cast.ToStringMap(viper.AllSettings()["destination"])
}

func (a *AppConfig) getSQLWriter(sqlLoggerViper *viper.Viper, logType string) (io.Writer, error) {
	path := sqlLoggerViper.GetString("path")
	if path == logging.GlobalType {
		return logging.GlobalLogsWriter, nil
	}

	if err := logging.EnsureDir(path); err != nil {
		return nil, fmt.Errorf("failed to create %s log dir %s: %v", logType, path, err)
	}

	writer := logging.NewRollingWriter(logging.Config{
		FileName:    appName + "-" + logType,
		FileDir:     path,
		RotationMin: sqlLoggerViper.GetInt64("rotation_min"),
		MaxBackups:  sqlLoggerViper.GetInt("max_backups")})
	a.ScheduleClosing(writer)
	return writer, nil
}

//ScheduleClosing adds closer which will be closed on Close()
func (a *AppConfig) ScheduleClosing(c io.Closer) {
	a.closeMe = append(a.closeMe, c)
}

//Close closes all scheduled resources in reverse order and returns all occurred errors
func (a *AppConfig) Close() error {
	var multiErr error
	for i := len(a.closeMe) - 1; i >= 0; i-- {
		if err := a.closeMe[i].Close(); err != nil {
			multiErr = multierror.Append(multiErr, err)
		}
	}
	a.closeMe = nil

	return multiErr
}
