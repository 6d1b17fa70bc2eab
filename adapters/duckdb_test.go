package adapters

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jitsucom/sheetloader/logging"
	"github.com/jitsucom/sheetloader/typing"
	"github.com/stretchr/testify/require"
)

func newTestDuckDB(t *testing.T, path string) *DuckDB {
	t.Helper()

	config := &DuckDBConfig{Path: path, Schema: "guests"}
	require.NoError(t, config.Validate())

	duckDB, err := NewDuckDB(context.Background(), config, &logging.QueryLogger{})
	require.NoError(t, err)
	require.NoError(t, duckDB.CreateDbSchema(config.Schema))
	return duckDB
}

func guestsTable(name string) *Table {
	return &Table{
		Schema: "guests",
		Name:   name,
		Columns: Columns{
			"guest_name": typing.SQLColumn{Type: SchemaToDuckDB[typing.STRING]},
			"party_size": typing.SQLColumn{Type: SchemaToDuckDB[typing.INT64]},
			"vip":        typing.SQLColumn{Type: SchemaToDuckDB[typing.BOOL]},
		},
		ColumnsOrder: []string{"guest_name", "party_size", "vip"},
	}
}

func TestDuckDBLifecycle(t *testing.T) {
	duckDB := newTestDuckDB(t, "")
	defer duckDB.Close()

	table := guestsTable("guestlist")

	notExisting, err := duckDB.GetTableSchema(table.Name)
	require.NoError(t, err)
	require.False(t, notExisting.Exists())

	require.NoError(t, duckDB.CreateTable(table))

	var progress []int
	rows := [][]interface{}{{"Jane", int64(2), true}, {"John", nil, false}, {"Ann", int64(1), nil}}
	require.NoError(t, duckDB.BulkInsert(table, rows, 2, func(inserted int) { progress = append(progress, inserted) }))
	require.Equal(t, []int{2, 1}, progress)

	result, err := duckDB.Query("SELECT * FROM " + duckDB.QualifiedName(table.Name) + " ORDER BY guest_name LIMIT 5")
	require.NoError(t, err)
	require.Equal(t, []string{"guest_name", "party_size", "vip"}, result.Columns)
	require.Equal(t, [][]interface{}{
		{"Ann", int64(1), nil},
		{"Jane", int64(2), true},
		{"John", nil, false},
	}, result.Rows)

	count, err := duckDB.Query("SELECT COUNT(*) AS row_count FROM " + duckDB.QualifiedName(table.Name))
	require.NoError(t, err)
	require.Equal(t, []string{"row_count"}, count.Columns)
	rowsCount, err := count.SingleInt64()
	require.NoError(t, err)
	require.Equal(t, int64(3), rowsCount)

	actual, err := duckDB.GetTableSchema(table.Name)
	require.NoError(t, err)
	require.Equal(t, []string{"guest_name", "party_size", "vip"}, actual.ColumnNames())
	require.Equal(t, "BIGINT", actual.Columns["party_size"].Type)

	patch := &Table{Name: table.Name, Columns: Columns{"email": typing.SQLColumn{Type: "VARCHAR"}}, ColumnsOrder: []string{"email"}}
	require.NoError(t, duckDB.PatchTableSchema(patch))

	patched, err := duckDB.GetTableSchema(table.Name)
	require.NoError(t, err)
	require.Equal(t, []string{"guest_name", "party_size", "vip", "email"}, patched.ColumnNames())

	require.NoError(t, duckDB.DropTable(table))
	dropped, err := duckDB.GetTableSchema(table.Name)
	require.NoError(t, err)
	require.False(t, dropped.Exists())
}

func TestDuckDBReplaceTable(t *testing.T) {
	duckDB := newTestDuckDB(t, filepath.Join(t.TempDir(), "warehouse.duckdb"))
	defer duckDB.Close()

	target := guestsTable("guestlist")
	require.NoError(t, duckDB.CreateTable(target))
	require.NoError(t, duckDB.BulkInsert(target, [][]interface{}{{"Old", int64(1), true}}, 100, nil))

	tmp := guestsTable("guestlist_tmp_1")
	require.NoError(t, duckDB.CreateTable(tmp))
	require.NoError(t, duckDB.BulkInsert(tmp, [][]interface{}{{"Jane", int64(2), true}, {"John", int64(3), false}}, 100, nil))

	require.NoError(t, duckDB.ReplaceTable(tmp.Name, target.Name))

	result, err := duckDB.Query("SELECT guest_name FROM " + duckDB.QualifiedName(target.Name) + " ORDER BY guest_name")
	require.NoError(t, err)
	require.Equal(t, [][]interface{}{{"Jane"}, {"John"}}, result.Rows)

	tmpSchema, err := duckDB.GetTableSchema(tmp.Name)
	require.NoError(t, err)
	require.False(t, tmpSchema.Exists(), "tmp table must be renamed")

	//target doesn't exist
	another := guestsTable("another_tmp")
	require.NoError(t, duckDB.CreateTable(another))
	require.NoError(t, duckDB.ReplaceTable(another.Name, "another"))
	renamed, err := duckDB.GetTableSchema("another")
	require.NoError(t, err)
	require.True(t, renamed.Exists())
}

func TestDuckDBQuotedIdentifiers(t *testing.T) {
	duckDB := newTestDuckDB(t, "")
	defer duckDB.Close()

	table := &Table{
		Schema: "guests",
		Name:   `guest "list"`,
		Columns: Columns{
			"guest_name":  typing.SQLColumn{Type: SchemaToDuckDB[typing.STRING]},
			`nick "name"`: typing.SQLColumn{Type: SchemaToDuckDB[typing.STRING]},
		},
		ColumnsOrder: []string{"guest_name", `nick "name"`},
	}
	require.NoError(t, duckDB.CreateTable(table))
	require.NoError(t, duckDB.BulkInsert(table, [][]interface{}{{"Ann", `The "Boss"`}}, 100, nil))

	require.NoError(t, duckDB.PatchTableSchema(&Table{
		Name:         table.Name,
		Columns:      Columns{`"vip"`: typing.SQLColumn{Type: SchemaToDuckDB[typing.BOOL]}},
		ColumnsOrder: []string{`"vip"`},
	}))

	actual, err := duckDB.GetTableSchema(table.Name)
	require.NoError(t, err)
	require.Equal(t, []string{"guest_name", `nick "name"`, `"vip"`}, actual.ColumnNames())

	require.Equal(t, `"guests"."guest ""list"""`, duckDB.QualifiedName(table.Name))
	result, err := duckDB.Query(`SELECT "nick ""name""" FROM ` + duckDB.QualifiedName(table.Name))
	require.NoError(t, err)
	require.Equal(t, [][]interface{}{{`The "Boss"`}}, result.Rows)

	require.NoError(t, duckDB.DropTable(table))
}

func TestDuckDBQueryError(t *testing.T) {
	duckDB := newTestDuckDB(t, "")
	defer duckDB.Close()

	_, err := duckDB.Query("SELECT * FROM " + duckDB.QualifiedName("missing"))
	require.Error(t, err)
}
