package cmd

import (
	"os"

	"github.com/jitsucom/sheetloader/importer"
	"github.com/spf13/cobra"
)

var previewOverrides = flagOverrides{
	"file":  "source.path",
	"sheet": "source.sheet",
	"rows":  "source.preview_rows",
}

// previewCmd reads and normalizes the spreadsheet without connecting to the warehouse
var previewCmd = &cobra.Command{
	Use:   "preview [flags]",
	Short: "Print spreadsheet diagnostics and normalized column names without uploading",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initApp(cmd, previewOverrides); err != nil {
			return err
		}
		defer closeApp()

		return preview()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(previewCmd)

	previewCmd.Flags().String("file", "", "(optional) spreadsheet file path (.xlsx, .xlsm, .csv). Overrides source.path")
	previewCmd.Flags().String("sheet", "", "(optional) workbook sheet name. The first sheet is used by default")
	previewCmd.Flags().Int("rows", 5, "(optional) number of first rows to print")
}

func preview() error {
	config, err := newImporterConfig()
	if err != nil {
		return err
	}

	imp, err := importer.New(config, nil, NewConsoleReporter(os.Stdout, os.Stderr, true))
	if err != nil {
		return err
	}

	_, err = imp.Preview()
	return err
}
