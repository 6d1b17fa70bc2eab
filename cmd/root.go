package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jitsucom/sheetloader/appconfig"
	"github.com/jitsucom/sheetloader/errorj"
	au "github.com/logrusorgru/aurora"
	"github.com/spf13/cobra"
)

const sqlErrorHint = "Warehouse statement failed. Set sql_debug_log.ddl.path and sql_debug_log.queries.path (path or 'global') to log executed statements"

//command flags
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sheetloader",
	Short: "CLI tool for uploading spreadsheets into data warehouse tables",
	Long: `sheetloader reads a spreadsheet (xlsx or csv), prints diagnostics, normalizes column names,
uploads the table into Snowflake, Postgres or DuckDB and verifies the upload with sample and count queries`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context, tag string) {
	appconfig.SetVersion(tag)
	rootCmd.Version = appconfig.RawVersion

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, au.Index(1, formatError(err)).String())
		os.Exit(1)
	}
}

//formatError returns error text with a hint about SQL debug logs if a warehouse statement failed
func formatError(err error) string {
	msg := fmt.Sprintf("Error: %v", err)
	if errorj.IsSQLError(err) {
		msg += "\n" + sqlErrorHint
	}
	return msg
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "cfg", "", "(optional) config file path (yaml or json). Environment variables override values from the file e.g. DESTINATION_SNOWFLAKE_PASSWORD")
}
