package parsers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

const utf8BOM = "\uFEFF"

//readCSV returns all records of the csv file as strings. Rows may have different length
func readCSV(path string, delimiter rune) ([][]interface{}, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open csv file: %v", err)
	}
	defer file.Close()

	csvReader := csv.NewReader(file)
	csvReader.Comma = delimiter
	csvReader.FieldsPerRecord = -1

	var rows [][]interface{}
	for {
		line, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Error reading csv line: %v", err)
		}

		if len(rows) == 0 && len(line) > 0 {
			line[0] = strings.TrimPrefix(line[0], utf8BOM)
		}
		row := make([]interface{}, len(line))
		for i, cell := range line {
			row[i] = cell
		}
		rows = append(rows, row)
	}

	return rows, nil
}
