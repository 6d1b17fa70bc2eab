package adapters

import (
	"strings"

	"github.com/jitsucom/sheetloader/errorj"
)

//placeholderFunc returns bind placeholder for the value with 1-based position in the statement
type placeholderFunc func(position int, column string) string

//insertExecutor executes one INSERT statement with prepared VALUES placeholders
type insertExecutor func(header []string, placeholders string, valueArgs []interface{}, rowsCount int) error

//rowsPerStatement returns how many rows fit into one insert statement
func rowsPerStatement(batchSize, valuesLimit, columnsCount int) int {
	if columnsCount == 0 {
		return batchSize
	}

	perStatement := valuesLimit / columnsCount
	if batchSize > 0 && batchSize < perStatement {
		perStatement = batchSize
	}
	if perStatement < 1 {
		perStatement = 1
	}

	return perStatement
}

//bulkInsert builds insert into values (),(),() statements with at most rowsPerStatement rows
//and executes them one by one. progress is called after every statement
func bulkInsert(header []string, rows [][]interface{}, perStatement int, placeholder placeholderFunc,
	execute insertExecutor, progress ProgressFunc) error {
	var placeholdersBuilder strings.Builder
	valueArgs := make([]interface{}, 0, perStatement*len(header))
	rowsInStatement := 0
	operation := 0
	operations := (len(rows) + perStatement - 1) / perStatement

	flush := func() error {
		operation++
		if err := execute(header, removeLastComma(placeholdersBuilder.String()), valueArgs, rowsInStatement); err != nil {
			return errorj.Decorate(err, "insert %d of %d", operation, operations)
		}
		if progress != nil {
			progress(rowsInStatement)
		}

		placeholdersBuilder.Reset()
		valueArgs = make([]interface{}, 0, perStatement*len(header))
		rowsInStatement = 0
		return nil
	}

	for rowIndex, row := range rows {
		if len(row) != len(header) {
			return errorj.ExecuteInsertError.New("row %d has %d values but table has %d columns", rowIndex+1, len(row), len(header))
		}

		if rowsInStatement == perStatement {
			if err := flush(); err != nil {
				return err
			}
		}

		placeholdersBuilder.WriteString("(")
		for i, column := range header {
			valueArgs = append(valueArgs, row[i])
			placeholdersBuilder.WriteString(placeholder(len(valueArgs), column))

			if i < len(header)-1 {
				placeholdersBuilder.WriteString(",")
			}
		}
		placeholdersBuilder.WriteString("),")
		rowsInStatement++
	}

	if rowsInStatement > 0 {
		return flush()
	}

	return nil
}

func removeLastComma(str string) string {
	if last := len(str) - 1; last >= 0 && str[last] == ',' {
		str = str[:last]
	}

	return str
}
