package storages

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/jitsucom/sheetloader/adapters"
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/schema"
)

var limitRegexp = regexp.MustCompile(`(?i)\bLIMIT\s+(\d+)`)

//MockFactory creates in-memory warehouses. Used in tests
type MockFactory struct {
	mutex sync.Mutex

	//CreateErr is returned from Create if set
	CreateErr error
	//UploadErr and QueryErr are passed into created warehouses
	UploadErr error
	QueryErr  error
	//Warehouses are all created warehouses
	Warehouses []*MemoryWarehouse
	//Tables are shared between created warehouses
	Tables map[string]*MemoryTable
}

//NewMockFactory returns MockFactory without tables
func NewMockFactory() *MockFactory {
	return &MockFactory{Tables: map[string]*MemoryTable{}}
}

//Create returns MemoryWarehouse for the config table
func (mf *MockFactory) Create(ctx context.Context, config *DestinationConfig) (Warehouse, error) {
	mf.mutex.Lock()
	defer mf.mutex.Unlock()

	if mf.CreateErr != nil {
		return nil, mf.CreateErr
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	warehouse := &MemoryWarehouse{
		config:    config,
		tables:    mf.Tables,
		mutex:     &mf.mutex,
		UploadErr: mf.UploadErr,
		QueryErr:  mf.QueryErr,
	}
	mf.Warehouses = append(mf.Warehouses, warehouse)
	return warehouse, nil
}

//CreatedCount returns number of created warehouses
func (mf *MockFactory) CreatedCount() int {
	mf.mutex.Lock()
	defer mf.mutex.Unlock()

	return len(mf.Warehouses)
}

//MemoryTable is an in-memory table
type MemoryTable struct {
	Columns []string
	Rows    [][]interface{}
}

//MemoryWarehouse keeps uploaded rows in memory and answers COUNT(*) and SELECT * LIMIT n queries
type MemoryWarehouse struct {
	mutex  *sync.Mutex
	config *DestinationConfig
	tables map[string]*MemoryTable

	//UploadErr is returned from Upload if set
	UploadErr error
	//QueryErr is returned from Query if set
	QueryErr error

	UploadCalls int
	Queries     []string
	Closed      bool
}

//Type returns Memory
func (mw *MemoryWarehouse) Type() string {
	return "Memory"
}

//QualifiedTableName returns memory.<table>
func (mw *MemoryWarehouse) QualifiedTableName() string {
	return "memory." + mw.config.Table
}

//Upload stores dataset rows according to the write mode
func (mw *MemoryWarehouse) Upload(dataset *schema.Dataset, progress adapters.ProgressFunc) (int, error) {
	mw.mutex.Lock()
	defer mw.mutex.Unlock()

	mw.UploadCalls++
	if mw.UploadErr != nil {
		return 0, mw.UploadErr
	}

	rows := dataset.Rows(0, dataset.RowsCount())
	existing, exists := mw.tables[mw.config.Table]
	switch mw.config.WriteMode {
	case CreateMode:
		if exists {
			return 0, errorj.UploadError.New("table %s already exists", mw.QualifiedTableName())
		}
		mw.tables[mw.config.Table] = &MemoryTable{Columns: dataset.ColumnNames(), Rows: rows}
	case AppendMode:
		if !exists {
			mw.tables[mw.config.Table] = &MemoryTable{Columns: dataset.ColumnNames(), Rows: rows}
		} else {
			existing.Rows = append(existing.Rows, rows...)
		}
	case ReplaceMode:
		mw.tables[mw.config.Table] = &MemoryTable{Columns: dataset.ColumnNames(), Rows: rows}
	}

	if progress != nil && len(rows) > 0 {
		progress(len(rows))
	}

	return len(rows), nil
}

//Query supports SELECT COUNT(*) and SELECT * [LIMIT n]
func (mw *MemoryWarehouse) Query(query string) (*adapters.QueryResult, error) {
	mw.mutex.Lock()
	defer mw.mutex.Unlock()

	mw.Queries = append(mw.Queries, query)
	if mw.QueryErr != nil {
		return nil, mw.QueryErr
	}

	table, ok := mw.tables[mw.config.Table]
	if !ok {
		return nil, errorj.QueryError.New("table %s doesn't exist", mw.QualifiedTableName())
	}

	if strings.Contains(strings.ToUpper(query), "COUNT(*)") {
		return &adapters.QueryResult{Columns: []string{"row_count"}, Rows: [][]interface{}{{int64(len(table.Rows))}}}, nil
	}

	rows := table.Rows
	if match := limitRegexp.FindStringSubmatch(query); match != nil {
		limit, _ := strconv.Atoi(match[1])
		if limit < len(rows) {
			rows = rows[:limit]
		}
	}

	return &adapters.QueryResult{Columns: table.Columns, Rows: rows}, nil
}

//Close marks warehouse as closed
func (mw *MemoryWarehouse) Close() error {
	mw.mutex.Lock()
	defer mw.mutex.Unlock()

	mw.Closed = true
	return nil
}
