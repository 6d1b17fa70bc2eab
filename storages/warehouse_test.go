package storages

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/schema"
	"github.com/joomcode/errorx"
	"github.com/stretchr/testify/require"
)

func newTestDataset(t *testing.T, header []string, rows ...[]string) *schema.Dataset {
	dataset := schema.NewDataset("guests", header)
	for _, row := range rows {
		require.NoError(t, dataset.AppendRow(row))
	}
	require.NoError(t, schema.ResolveTypes(dataset, true))
	return dataset
}

func newDuckDBWarehouse(t *testing.T, path, writeMode string) Warehouse {
	warehouse, err := NewFactory(nil).Create(context.Background(), &DestinationConfig{
		Type:      DuckDBType,
		Table:     "guests",
		WriteMode: writeMode,
		BatchSize: 2,
		DuckDB:    &adapters.DuckDBConfig{Path: path},
	})
	require.NoError(t, err)
	return warehouse
}

func countRows(t *testing.T, warehouse Warehouse) int64 {
	result, err := warehouse.Query("SELECT COUNT(*) AS row_count FROM " + warehouse.QualifiedTableName())
	require.NoError(t, err)
	count, err := result.SingleInt64()
	require.NoError(t, err)
	return count
}

func TestDuckDBWarehouseWriteModes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warehouse.db")

	first := newTestDataset(t, []string{"name", "age"}, []string{"Ann", "31"}, []string{"Bob", "42"}, []string{"Eve", ""})

	//create
	warehouse := newDuckDBWarehouse(t, path, CreateMode)
	var progress []int
	uploaded, err := warehouse.Upload(first, func(insertedRows int) { progress = append(progress, insertedRows) })
	require.NoError(t, err)
	require.Equal(t, 3, uploaded)
	require.Equal(t, []int{2, 1}, progress)
	require.Equal(t, int64(3), countRows(t, warehouse))
	require.Equal(t, `"main"."guests"`, warehouse.QualifiedTableName())

	sample, err := warehouse.Query("SELECT * FROM " + warehouse.QualifiedTableName() + " ORDER BY name LIMIT 2")
	require.NoError(t, err)
	require.Equal(t, []string{"name", "age"}, sample.Columns)
	require.Equal(t, [][]interface{}{{"Ann", int64(31)}, {"Bob", int64(42)}}, sample.Rows)
	require.NoError(t, warehouse.Close())

	//create again fails
	warehouse = newDuckDBWarehouse(t, path, CreateMode)
	_, err = warehouse.Upload(first, nil)
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, errorj.UploadError))
	require.Contains(t, err.Error(), "already exists")
	require.Equal(t, int64(3), countRows(t, warehouse))
	require.NoError(t, warehouse.Close())

	//append adds missing column
	second := newTestDataset(t, []string{"name", "age", "email"}, []string{"Kim", "25", "kim@example.com"})
	warehouse = newDuckDBWarehouse(t, path, AppendMode)
	uploaded, err = warehouse.Upload(second, nil)
	require.NoError(t, err)
	require.Equal(t, 1, uploaded)
	require.Equal(t, int64(4), countRows(t, warehouse))

	emails, err := warehouse.Query("SELECT COUNT(*) AS row_count FROM " + warehouse.QualifiedTableName() + " WHERE email IS NOT NULL")
	require.NoError(t, err)
	emailsCount, err := emails.SingleInt64()
	require.NoError(t, err)
	require.Equal(t, int64(1), emailsCount)
	require.NoError(t, warehouse.Close())

	//replace swaps the table
	third := newTestDataset(t, []string{"guest"}, []string{"Zoe"})
	warehouse = newDuckDBWarehouse(t, path, ReplaceMode)
	uploaded, err = warehouse.Upload(third, nil)
	require.NoError(t, err)
	require.Equal(t, 1, uploaded)
	require.Equal(t, int64(1), countRows(t, warehouse))

	replaced, err := warehouse.Query("SELECT * FROM " + warehouse.QualifiedTableName() + " LIMIT 5")
	require.NoError(t, err)
	require.Equal(t, []string{"guest"}, replaced.Columns)
	require.Equal(t, [][]interface{}{{"Zoe"}}, replaced.Rows)
	require.NoError(t, warehouse.Close())
}

func TestFactoryCreateConfigError(t *testing.T) {
	_, err := NewFactory(nil).Create(context.Background(), &DestinationConfig{Type: "oracle", Table: "guests"})
	require.Error(t, err)
	require.True(t, errorx.IsOfType(err, errorj.ConfigError))
}

func TestMemoryWarehouse(t *testing.T) {
	factory := NewMockFactory()
	dataset := newTestDataset(t, []string{"name"}, []string{"a"}, []string{"b"}, []string{"c"})

	warehouse, err := factory.Create(context.Background(), &DestinationConfig{Table: "guests"})
	require.NoError(t, err)
	require.Equal(t, 1, factory.CreatedCount())

	uploaded, err := warehouse.Upload(dataset, nil)
	require.NoError(t, err)
	require.Equal(t, 3, uploaded)

	count, err := warehouse.Query("SELECT COUNT(*) AS row_count FROM " + warehouse.QualifiedTableName())
	require.NoError(t, err)
	require.Equal(t, []string{"row_count"}, count.Columns)
	value, err := count.SingleInt64()
	require.NoError(t, err)
	require.Equal(t, int64(3), value)

	sample, err := warehouse.Query("SELECT * FROM " + warehouse.QualifiedTableName() + " LIMIT 2")
	require.NoError(t, err)
	require.Len(t, sample.Rows, 2)

	_, err = warehouse.Upload(dataset, nil)
	require.Error(t, err)

	appendWarehouse, err := factory.Create(context.Background(), &DestinationConfig{Table: "guests", WriteMode: AppendMode})
	require.NoError(t, err)
	_, err = appendWarehouse.Upload(dataset, nil)
	require.NoError(t, err)
	count, err = appendWarehouse.Query("SELECT COUNT(*) AS row_count")
	require.NoError(t, err)
	value, err = count.SingleInt64()
	require.NoError(t, err)
	require.Equal(t, int64(6), value)
	require.NoError(t, appendWarehouse.Close())
}
