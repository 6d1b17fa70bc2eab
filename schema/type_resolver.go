package schema

import (
	"github.com/jitsucom/sheetloader/errorj"
	"github.com/jitsucom/sheetloader/typing"
)

//ResolveTypes defines every column type as the lowest common type of its cells
//and converts cells into it. Columns without values become STRING.
//Raw strings are parsed, typed values (e.g. spreadsheet numbers) keep their type and Text is always STRING.
//If inferTypes is false all columns are STRING and raw strings are kept as is.
//Already resolved columns are skipped.
//returns errorj.ParseError if a value can't be converted into the column type
func ResolveTypes(dataset *Dataset, inferTypes bool) error {
	for _, column := range dataset.Columns {
		if column.Type != typing.UNKNOWN {
			continue
		}

		if !inferTypes {
			if err := toStringColumn(column, column.Values); err != nil {
				return err
			}
			continue
		}

		parsed := make([]interface{}, len(column.Values))
		columnType := typing.UNKNOWN
		for i, v := range column.Values {
			value, cellType, err := cellValue(v)
			if err != nil {
				return errorj.ParseError.Wrap(err, "unsupported value in column [%s] row %d", column.Name, i+1).
					WithProperty(errorj.Column, column.Name)
			}
			parsed[i] = value
			columnType = typing.GetCommonAncestorType(columnType, cellType)
		}

		if columnType == typing.UNKNOWN || columnType == typing.STRING {
			if err := toStringColumn(column, parsed); err != nil {
				return err
			}
			continue
		}

		for i, v := range parsed {
			converted, err := typing.Convert(columnType, v)
			if err != nil {
				return errorj.ParseError.Wrap(err, "failed to convert value of column [%s] row %d into %s", column.Name, i+1, columnType).
					WithProperty(errorj.Column, column.Name)
			}
			column.Values[i] = converted
		}
		column.Type = columnType
	}

	return nil
}

//cellValue returns parsed value and its type
func cellValue(v interface{}) (interface{}, typing.DataType, error) {
	switch value := v.(type) {
	case nil:
		return nil, typing.UNKNOWN, nil
	case Text:
		return string(value), typing.STRING, nil
	case string:
		parsed, cellType := typing.ParseCell(value)
		return parsed, cellType, nil
	default:
		cellType, err := typing.TypeFromValue(v)
		if err != nil {
			return nil, typing.UNKNOWN, err
		}
		return v, cellType, nil
	}
}

//toStringColumn makes column STRING. Raw strings are taken from original values:
//"1.50" must not become "1.5"
func toStringColumn(column *Column, parsed []interface{}) error {
	for i, original := range column.Values {
		switch value := original.(type) {
		case nil, string:
		case Text:
			column.Values[i] = string(value)
		default:
			converted, err := typing.Convert(typing.STRING, parsed[i])
			if err != nil {
				return errorj.ParseError.Wrap(err, "failed to convert value of column [%s] row %d into %s", column.Name, i+1, typing.STRING).
					WithProperty(errorj.Column, column.Name)
			}
			column.Values[i] = converted
		}
	}
	column.Type = typing.STRING
	return nil
}
