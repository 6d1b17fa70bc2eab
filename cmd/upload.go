package cmd

import (
	"os"

	"github.com/jitsucom/sheetloader/appconfig"
	"github.com/jitsucom/sheetloader/importer"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/storages"
	"github.com/spf13/cobra"
)

var (
	//upload command flags
	disableProgressBars bool

	uploadOverrides = flagOverrides{
		"file":         "source.path",
		"sheet":        "source.sheet",
		"table":        "destination.table",
		"write-mode":   "destination.write_mode",
		"on-collision": "normalization.on_collision",
	}
)

// uploadCmd runs the whole pipeline
var uploadCmd = &cobra.Command{
	Use:   "upload [flags]",
	Short: "Upload spreadsheet into warehouse table and verify the upload",
	Long: `Reads the spreadsheet, prints rows and columns count, column names and first rows, normalizes column names,
uploads the table into the configured destination and prints sample rows and row count selected from it`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initApp(cmd, uploadOverrides); err != nil {
			return err
		}
		defer closeApp()

		return upload(cmd)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(uploadCmd)

	uploadCmd.Flags().String("file", "", "(optional) spreadsheet file path (.xlsx, .xlsm, .csv). Overrides source.path")
	uploadCmd.Flags().String("sheet", "", "(optional) workbook sheet name. The first sheet is used by default")
	uploadCmd.Flags().String("table", "", "(optional) destination table name. Overrides destination.table")
	uploadCmd.Flags().String("write-mode", "", "(optional) create, append or replace. Default value is create which fails if the table already exists")
	uploadCmd.Flags().String("on-collision", "", "(optional) fail or suffix. What to do if several column names become equal after normalization")
	uploadCmd.Flags().BoolVar(&disableProgressBars, "disable-progress-bars", false, "(optional) if true then progress bars won't be displayed")
}

//upload builds importer from the configuration and runs it
func upload(cmd *cobra.Command) error {
	destination, err := storages.ParseDestinationConfig(appconfig.DestinationSettings())
	if err != nil {
		return err
	}

	config, err := newImporterConfig()
	if err != nil {
		return err
	}
	config.Destination = destination

	reporter := NewConsoleReporter(os.Stdout, os.Stderr, disableProgressBars)
	factory := storages.NewFactory(appconfig.Instance.QueryLogger(destination.Table))
	imp, err := importer.New(config, factory, reporter)
	if err != nil {
		return err
	}

	result, err := imp.Run(cmd.Context())
	if err != nil {
		return err
	}

	logging.Infof("%d rows from %s have been uploaded and verified: table contains %d rows", result.RowsUploaded, config.FilePath, result.RemoteRowCount)
	return nil
}
