package importer

import (
	"context"
	"fmt"

	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/parsers"
	"github.com/jitsucom/sheetloader/schema"
	"github.com/jitsucom/sheetloader/storages"
)

const (
	defaultPreviewRows = 5
	defaultSampleRows  = 5

	sampleQueryTemplate = "SELECT * FROM %s LIMIT %d"
	countQueryTemplate  = "SELECT COUNT(*) AS row_count FROM %s"
)

//Config is a configuration of one import run
type Config struct {
	FilePath string
	Parser   parsers.Options

	//PreviewRows is a number of first rows shown in diagnostics
	PreviewRows int
	InferTypes  bool

	NormalizationStyle string
	OnCollision        string

	Destination *storages.DestinationConfig

	//SampleRows is a LIMIT of the verification select
	SampleRows int
}

//Result is a summary of the import run
type Result struct {
	RowsParsed     int
	Columns        []string
	RowsUploaded   int
	RemoteRowCount int64
}

//Importer reads the file, normalizes column names, uploads the table and verifies the upload
//each step is sequential and any failure aborts the rest
type Importer struct {
	config     *Config
	normalizer *schema.Normalizer
	factory    storages.Factory
	reporter   Reporter
}

//New returns configured Importer or errorj.ConfigError
func New(config *Config, factory storages.Factory, reporter Reporter) (*Importer, error) {
	if config.FilePath == "" {
		return nil, errorj.ConfigError.New("source file path is required parameter")
	}

	normalizer, err := schema.NewNormalizer(config.NormalizationStyle, config.OnCollision)
	if err != nil {
		return nil, errorj.ConfigError.Wrap(err, "invalid normalization config")
	}

	if config.PreviewRows <= 0 {
		config.PreviewRows = defaultPreviewRows
	}
	if config.SampleRows <= 0 {
		config.SampleRows = defaultSampleRows
	}
	if reporter == nil {
		reporter = NopReporter{}
	}

	return &Importer{
		config:     config,
		normalizer: normalizer,
		factory:    factory,
		reporter:   reporter,
	}, nil
}

//Preview reads the file, reports diagnostics and normalized column names
//Nothing is sent to the warehouse
func (i *Importer) Preview() (*Result, error) {
	dataset, err := i.read()
	if err != nil {
		return nil, err
	}

	return &Result{RowsParsed: dataset.RowsCount(), Columns: dataset.ColumnNames()}, nil
}

//Run executes the whole pipeline: read -> display -> normalize -> upload -> verify
//The warehouse is created only after the file has been parsed and normalized
func (i *Importer) Run(ctx context.Context) (*Result, error) {
	dataset, err := i.read()
	if err != nil {
		return nil, err
	}

	result := &Result{RowsParsed: dataset.RowsCount(), Columns: dataset.ColumnNames()}

	if err := schema.ResolveTypes(dataset, i.config.InferTypes); err != nil {
		return result, err
	}

	if i.config.Destination == nil {
		return result, errorj.ConfigError.New("destination config is required")
	}
	warehouse, err := i.factory.Create(ctx, i.config.Destination)
	if err != nil {
		return result, err
	}
	defer func() {
		if err := warehouse.Close(); err != nil {
			logging.Warnf("[%s] failed to close warehouse: %v", i.config.Destination.Table, err)
		}
	}()

	tableName := warehouse.QualifiedTableName()
	progress := i.reporter.UploadStarted(tableName, dataset.RowsCount())
	uploaded, err := warehouse.Upload(dataset, progress)
	i.reporter.UploadFinished(tableName, uploaded, err)
	if err != nil {
		return result, err
	}
	result.RowsUploaded = uploaded

	count, err := i.verify(warehouse)
	if err != nil {
		return result, err
	}
	result.RemoteRowCount = count

	if err := checkRowCount(i.config.Destination.WriteMode, dataset.RowsCount(), count); err != nil {
		return result, errorj.Decorate(err, "upload verification of %s failed", tableName)
	}

	return result, nil
}

//read parses the file, reports diagnostics and normalizes column names
func (i *Importer) read() (*schema.Dataset, error) {
	dataset, err := parsers.Parse(i.config.FilePath, i.config.Parser)
	if err != nil {
		return nil, err
	}

	i.reporter.Diagnostics(&Diagnostics{
		Source:      i.config.FilePath,
		RowsCount:   dataset.RowsCount(),
		Columns:     dataset.ColumnNames(),
		PreviewRows: dataset.Head(i.config.PreviewRows),
	})

	if err := i.normalizer.Apply(dataset); err != nil {
		return nil, err
	}

	i.reporter.CleanedColumns(dataset.OriginalColumnNames(), dataset.ColumnNames())
	return dataset, nil
}

//verify runs sample and count queries against the uploaded table
func (i *Importer) verify(warehouse storages.Warehouse) (int64, error) {
	tableName := warehouse.QualifiedTableName()

	sample, err := warehouse.Query(fmt.Sprintf(sampleQueryTemplate, tableName, i.config.SampleRows))
	if err != nil {
		return 0, errorj.VerificationError.Wrap(err, "failed to select sample rows from %s", tableName).
			WithProperty(errorj.DBObjects, tableName)
	}
	i.reporter.Sample(tableName, sample)

	countResult, err := warehouse.Query(fmt.Sprintf(countQueryTemplate, tableName))
	if err != nil {
		return 0, errorj.VerificationError.Wrap(err, "failed to count rows in %s", tableName).
			WithProperty(errorj.DBObjects, tableName)
	}
	count, err := countResult.SingleInt64()
	if err != nil {
		return 0, errorj.VerificationError.Wrap(err, "failed to read row count of %s", tableName).
			WithProperty(errorj.DBObjects, tableName)
	}
	i.reporter.RowCount(tableName, count)

	return count, nil
}

//checkRowCount compares parsed rows with the remote table count
//append mode keeps previously loaded rows so the count can only be greater
func checkRowCount(writeMode string, parsed int, remote int64) error {
	if writeMode == storages.AppendMode {
		if remote < int64(parsed) {
			return errorj.VerificationError.New("table contains %d rows, at least %d expected", remote, parsed)
		}
		return nil
	}

	if remote != int64(parsed) {
		return errorj.VerificationError.New("table contains %d rows, %d expected", remote, parsed)
	}
	return nil
}
