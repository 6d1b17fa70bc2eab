package cmd

import (
	"fmt"

	"github.com/jitsucom/sheetloader/appconfig"
	"github.com/jitsucom/sheetloader/importer"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/parsers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

//flagOverrides maps command flag names to config keys
type flagOverrides map[string]string

//initApp reads configuration, applies changed command flags on top of it and initializes logger
func initApp(cmd *cobra.Command, overrides flagOverrides) error {
	if err := appconfig.Read(configPath); err != nil {
		return err
	}

	for flagName, key := range overrides {
		flag := cmd.Flags().Lookup(flagName)
		if flag != nil && flag.Changed {
			viper.Set(key, flag.Value.String())
		}
	}

	return appconfig.Init()
}

func closeApp() {
	if appconfig.Instance == nil {
		return
	}
	if err := appconfig.Instance.Close(); err != nil {
		logging.Warnf("failed to close resources: %v", err)
	}
}

//newImporterConfig returns importer.Config from viper (without destination)
func newImporterConfig() (*importer.Config, error) {
	delimiter, err := csvDelimiter(viper.GetString("source.csv_delimiter"))
	if err != nil {
		return nil, err
	}

	return &importer.Config{
		FilePath: viper.GetString("source.path"),
		Parser: parsers.Options{
			Sheet:        viper.GetString("source.sheet"),
			CSVDelimiter: delimiter,
		},
		PreviewRows:        viper.GetInt("source.preview_rows"),
		InferTypes:         viper.GetBool("source.infer_types"),
		NormalizationStyle: viper.GetString("normalization.style"),
		OnCollision:        viper.GetString("normalization.on_collision"),
		SampleRows:         viper.GetInt("verify.sample_rows"),
	}, nil
}

func csvDelimiter(value string) (rune, error) {
	switch value {
	case "":
		return 0, nil
	case "\\t", "tab":
		return '\t', nil
	}

	runes := []rune(value)
	if len(runes) != 1 {
		return 0, fmt.Errorf("source.csv_delimiter must be a single character, got %q", value)
	}
	return runes[0], nil
}
