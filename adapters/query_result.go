package adapters

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/logging"
	"github.com/spf13/cast"
)

//QueryResult is a tabular result of a select statement
type QueryResult struct {
	Columns []string
	Rows    [][]interface{}
}

//SingleInt64 returns the value of the first column of the first row as int64
//used for SELECT COUNT(*) results
func (qr *QueryResult) SingleInt64() (int64, error) {
	if qr == nil || len(qr.Rows) == 0 || len(qr.Rows[0]) == 0 {
		return 0, fmt.Errorf("query result is empty")
	}

	value := qr.Rows[0][0]
	if b, ok := value.([]byte); ok {
		value = string(b)
	}

	return cast.ToInt64E(value)
}

//query runs select statement and reads all rows. []byte values are converted into strings
func query(ctx context.Context, dataSource *sql.DB, queryLogger *logging.QueryLogger, dbType, statement string) (*QueryResult, error) {
	queryLogger.LogQuery(statement)

	rows, err := dataSource.QueryContext(ctx, statement)
	if err != nil {
		return nil, errorj.QueryError.Wrap(err, "failed to execute query").
			WithProperty(errorj.DestinationType, dbType).
			WithProperty(errorj.DBInfo, &ErrorPayload{Statement: statement})
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errorj.QueryError.Wrap(err, "failed to get result columns").
			WithProperty(errorj.DestinationType, dbType).
			WithProperty(errorj.DBInfo, &ErrorPayload{Statement: statement})
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := rows.Scan(pointers...); err != nil {
			return nil, errorj.QueryError.Wrap(err, "failed to scan result").
				WithProperty(errorj.DestinationType, dbType).
				WithProperty(errorj.DBInfo, &ErrorPayload{Statement: statement})
		}

		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, errorj.QueryError.Wrap(err, "failed read last row").
			WithProperty(errorj.DestinationType, dbType).
			WithProperty(errorj.DBInfo, &ErrorPayload{Statement: statement})
	}

	return result, nil
}
