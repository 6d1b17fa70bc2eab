package importer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/schema"
	"github.com/jitsucom/sheetloader/storages"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type recordingReporter struct {
	diagnostics     *Diagnostics
	originalColumns []string
	cleanedColumns  []string
	progress        []int
	uploaded        int
	uploadErr       error
	sample          *adapters.QueryResult
	rowCount        int64
	rowCountCalled  bool
}

func (rr *recordingReporter) Diagnostics(diagnostics *Diagnostics) {
	rr.diagnostics = diagnostics
}

func (rr *recordingReporter) CleanedColumns(original, cleaned []string) {
	rr.originalColumns = original
	rr.cleanedColumns = cleaned
}

func (rr *recordingReporter) UploadStarted(table string, rowsCount int) adapters.ProgressFunc {
	return func(insertedRows int) {
		rr.progress = append(rr.progress, insertedRows)
	}
}

func (rr *recordingReporter) UploadFinished(table string, uploaded int, err error) {
	rr.uploaded = uploaded
	rr.uploadErr = err
}

func (rr *recordingReporter) Sample(table string, result *adapters.QueryResult) {
	rr.sample = result
}

func (rr *recordingReporter) RowCount(table string, count int64) {
	rr.rowCount = count
	rr.rowCountCalled = true
}

func writeCSV(t *testing.T, lines ...string) string {
	path := filepath.Join(t.TempDir(), "guestlist.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0644))
	return path
}

func writeGuestlistWorkbook(t *testing.T) string {
	path := filepath.Join(t.TempDir(), "guestlist.xlsx")
	rows := [][]interface{}{
		{"Guest Name", "VIP-Status", " Email "},
		{"Ann Lee", "yes", "ann@example.com"},
		{"Bob Stone", "no", "bob@example.com"},
		{"Eve Moss", "yes", ""},
	}

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	return path
}

func newConfig(path string, destination *storages.DestinationConfig) *Config {
	return &Config{
		FilePath:    path,
		InferTypes:  true,
		Destination: destination,
	}
}

func TestRunUploadsIntoDuckDB(t *testing.T) {
	path := writeGuestlistWorkbook(t)
	reporter := &recordingReporter{}
	importer, err := New(newConfig(path, &storages.DestinationConfig{
		Type:  storages.DuckDBType,
		Table: "guestlist",
		DuckDB: &adapters.DuckDBConfig{
			Path: filepath.Join(t.TempDir(), "sandbox.db"),
		},
	}), storages.NewFactory(nil), reporter)
	require.NoError(t, err)

	result, err := importer.Run(context.Background())
	require.NoError(t, err)

	require.Equal(t, 3, result.RowsParsed)
	require.Equal(t, 3, result.RowsUploaded)
	require.Equal(t, int64(3), result.RemoteRowCount)
	require.Equal(t, []string{"guest_name", "vip_status", "email"}, result.Columns)

	require.NotNil(t, reporter.diagnostics)
	require.Equal(t, 3, reporter.diagnostics.RowsCount)
	require.Equal(t, 3, reporter.diagnostics.ColumnsCount())
	require.Equal(t, []string{"Guest Name", "VIP-Status", " Email "}, reporter.diagnostics.Columns)
	require.Len(t, reporter.diagnostics.PreviewRows, 3)
	require.Equal(t, []string{"guest_name", "vip_status", "email"}, reporter.cleanedColumns)
	require.Equal(t, []string{"Guest Name", "VIP-Status", " Email "}, reporter.originalColumns)

	require.Equal(t, 3, reporter.uploaded)
	require.NoError(t, reporter.uploadErr)
	require.Equal(t, []int{3}, reporter.progress)

	require.NotNil(t, reporter.sample)
	require.Equal(t, []string{"guest_name", "vip_status", "email"}, reporter.sample.Columns)
	require.Len(t, reporter.sample.Rows, 3)
	require.True(t, reporter.rowCountCalled)
	require.Equal(t, int64(3), reporter.rowCount)
}

func TestRunQuotedColumnNameIntoDuckDB(t *testing.T) {
	path := writeCSV(t, `Guest Name,"Nick ""Name"""`, `Ann Lee,"The ""Boss"""`, "Bob Stone,")
	importer, err := New(newConfig(path, &storages.DestinationConfig{
		Type:   storages.DuckDBType,
		Table:  `guest "list"`,
		DuckDB: &adapters.DuckDBConfig{Path: filepath.Join(t.TempDir(), "sandbox.db")},
	}), storages.NewFactory(nil), nil)
	require.NoError(t, err)

	result, err := importer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"guest_name", `nick_"name"`}, result.Columns)
	require.Equal(t, 2, result.RowsUploaded)
	require.Equal(t, int64(2), result.RemoteRowCount)
}

func TestRunWithMockWarehouse(t *testing.T) {
	lines := []string{"Guest Name,VIP-Status"}
	for i := 0; i < 7; i++ {
		lines = append(lines, "guest,no")
	}
	path := writeCSV(t, lines...)
	factory := storages.NewMockFactory()
	reporter := &recordingReporter{}

	importer, err := New(newConfig(path, &storages.DestinationConfig{Table: "guestlist"}), factory, reporter)
	require.NoError(t, err)

	result, err := importer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, result.RowsUploaded)
	require.Equal(t, int64(7), result.RemoteRowCount)

	require.Len(t, reporter.diagnostics.PreviewRows, defaultPreviewRows)
	require.Len(t, reporter.sample.Rows, defaultSampleRows)

	require.Equal(t, 1, factory.CreatedCount())
	warehouse := factory.Warehouses[0]
	require.Equal(t, 1, warehouse.UploadCalls)
	require.True(t, warehouse.Closed)
	require.Equal(t, []string{
		"SELECT * FROM memory.guestlist LIMIT 5",
		"SELECT COUNT(*) AS row_count FROM memory.guestlist",
	}, warehouse.Queries)
}

func TestRunFailures(t *testing.T) {
	tests := []struct {
		name          string
		lines         []string
		missingFile   bool
		prepare       func(factory *storages.MockFactory)
		destination   *storages.DestinationConfig
		expectedType  *errorx.Type
		expectedErr   string
		expectCreated bool
	}{
		{
			name:         "missing file",
			missingFile:  true,
			expectedType: errorj.ParseError,
			expectedErr:  "file not found",
		},
		{
			name:         "column names collision",
			lines:        []string{"Name,name", "a,b"},
			expectedType: errorj.NormalizationError,
			expectedErr:  "collide",
		},
		{
			name:          "upload failure",
			lines:         []string{"Name", "a"},
			prepare:       func(factory *storages.MockFactory) { factory.UploadErr = errorj.UploadError.New("warehouse is down") },
			expectedType:  errorj.UploadError,
			expectedErr:   "warehouse is down",
			expectCreated: true,
		},
		{
			name:          "query failure",
			lines:         []string{"Name", "a"},
			prepare:       func(factory *storages.MockFactory) { factory.QueryErr = errors.New("permission denied") },
			expectedType:  errorj.VerificationError,
			expectedErr:   "permission denied",
			expectCreated: true,
		},
		{
			name:  "warehouse connection failure",
			lines: []string{"Name", "a"},
			destination: &storages.DestinationConfig{
				Type:  storages.PostgresType,
				Table: "guestlist",
				Postgres: &adapters.DataSourceConfig{
					Host:       "127.0.0.1",
					Port:       1,
					Db:         "sandbox_db",
					Username:   "loader",
					Password:   "secret",
					Parameters: map[string]string{"sslmode": "disable", "connect_timeout": "1"},
				},
			},
			expectedType: errorj.UploadError,
			expectedErr:  "failed to connect to Postgres",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			if tt.missingFile {
				path = filepath.Join(t.TempDir(), "absent.xlsx")
			} else {
				path = writeCSV(t, tt.lines...)
			}

			factory := storages.NewMockFactory()
			if tt.prepare != nil {
				tt.prepare(factory)
			}
			var warehouseFactory storages.Factory = factory
			destination := &storages.DestinationConfig{Table: "guestlist"}
			if tt.destination != nil {
				warehouseFactory = storages.NewFactory(nil)
				destination = tt.destination
			}
			importer, err := New(newConfig(path, destination), warehouseFactory, nil)
			require.NoError(t, err)

			_, err = importer.Run(context.Background())
			require.Error(t, err)
			require.True(t, errorx.IsOfType(err, tt.expectedType), err.Error())
			require.Contains(t, err.Error(), tt.expectedErr)

			if tt.destination != nil {
				return
			}
			if tt.expectCreated {
				require.Equal(t, 1, factory.CreatedCount())
			} else {
				require.Equal(t, 0, factory.CreatedCount())
			}
		})
	}
}

//lossyWarehouse reports zero rows in COUNT(*) queries
type lossyWarehouse struct {
	storages.Warehouse
}

func (lw lossyWarehouse) Query(query string) (*adapters.QueryResult, error) {
	if strings.Contains(query, "COUNT(*)") {
		return &adapters.QueryResult{Columns: []string{"row_count"}, Rows: [][]interface{}{{int64(0)}}}, nil
	}
	return lw.Warehouse.Query(query)
}

type lossyFactory struct {
	*storages.MockFactory
}

func (lf lossyFactory) Create(ctx context.Context, config *storages.DestinationConfig) (storages.Warehouse, error) {
	warehouse, err := lf.MockFactory.Create(ctx, config)
	if err != nil {
		return nil, err
	}
	return lossyWarehouse{Warehouse: warehouse}, nil
}

func TestRunRowCountMismatch(t *testing.T) {
	path := writeCSV(t, "Name", "a", "b")
	factory := lossyFactory{MockFactory: storages.NewMockFactory()}
	reporter := &recordingReporter{}

	importer, err := New(newConfig(path, &storages.DestinationConfig{Table: "guestlist"}), factory, reporter)
	require.NoError(t, err)

	result, err := importer.Run(context.Background())
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, errorj.VerificationError))
	require.Contains(t, err.Error(), "table contains 0 rows, 2 expected")
	require.Equal(t, 2, result.RowsUploaded)
	require.Equal(t, int64(0), result.RemoteRowCount)
	require.True(t, reporter.rowCountCalled)
}

func TestRunSuffixCollisionPolicy(t *testing.T) {
	path := writeCSV(t, "Name,name,NAME", "a,b,c")
	factory := storages.NewMockFactory()

	config := newConfig(path, &storages.DestinationConfig{Table: "guestlist"})
	config.OnCollision = schema.SuffixOnCollision
	importer, err := New(config, factory, nil)
	require.NoError(t, err)

	result, err := importer.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"name", "name_2", "name_3"}, result.Columns)
	require.Equal(t, []string{"name", "name_2", "name_3"}, factory.Tables["guestlist"].Columns)
}

func TestPreview(t *testing.T) {
	path := writeCSV(t, "Guest Name,VIP-Status", "Ann,yes")
	factory := storages.NewMockFactory()
	reporter := &recordingReporter{}

	config := newConfig(path, nil)
	config.PreviewRows = 1
	importer, err := New(config, factory, reporter)
	require.NoError(t, err)

	result, err := importer.Preview()
	require.NoError(t, err)
	require.Equal(t, 1, result.RowsParsed)
	require.Equal(t, []string{"guest_name", "vip_status"}, result.Columns)
	require.Equal(t, [][]interface{}{{"Ann", "yes"}}, reporter.diagnostics.PreviewRows)
	require.Equal(t, 0, factory.CreatedCount())
}

func TestNewValidation(t *testing.T) {
	_, err := New(&Config{}, storages.NewMockFactory(), nil)
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, errorj.ConfigError))

	_, err = New(&Config{FilePath: "guests.xlsx", OnCollision: "drop"}, storages.NewMockFactory(), nil)
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, errorj.ConfigError))
}

func TestCheckRowCount(t *testing.T) {
	require.NoError(t, checkRowCount(storages.CreateMode, 3, 3))
	require.NoError(t, checkRowCount(storages.ReplaceMode, 0, 0))
	require.NoError(t, checkRowCount(storages.AppendMode, 3, 10))
	require.Error(t, checkRowCount(storages.CreateMode, 3, 4))
	require.Error(t, checkRowCount(storages.AppendMode, 3, 2))
}
