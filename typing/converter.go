package typing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jitsucom/sheetloader/timestamp"
	"github.com/spf13/cast"
)

var (
	//integers with leading zeros (zip codes, ids) are kept as strings
	integerRegexp = regexp.MustCompile(`^[-+]?(0|[1-9][0-9]*)$`)
	floatRegexp   = regexp.MustCompile(`^[-+]?(0|[1-9][0-9]*)?\.[0-9]+([eE][-+]?[0-9]+)?$|^[-+]?(0|[1-9][0-9]*)(\.[0-9]*)?[eE][-+]?[0-9]+$`)

	convertRules = map[rule]ConvertFunc{
		{from: BOOL, to: STRING}:      toString,
		{from: INT64, to: STRING}:     toString,
		{from: FLOAT64, to: STRING}:   toString,
		{from: TIMESTAMP, to: STRING}: timestampToString,

		{from: STRING, to: INT64}:     stringToInt,
		{from: STRING, to: FLOAT64}:   stringToFloat,
		{from: STRING, to: TIMESTAMP}: stringToTimestamp,
		{from: STRING, to: BOOL}:      stringToBool,

		{from: FLOAT64, to: INT64}: floatToInt,
		{from: INT64, to: FLOAT64}: intToFloat,
	}
)

type ConvertFunc func(v interface{}) (interface{}, error)

type rule struct {
	from DataType
	to   DataType
}

//Convert returns v converted into toType
//nil stays nil (NULL in every SQL type)
func Convert(toType DataType, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	currentType, err := TypeFromValue(v)
	if err != nil {
		return nil, err
	}

	if currentType == toType {
		return v, nil
	}

	f, ok := convertRules[rule{from: currentType, to: toType}]
	if !ok {
		return nil, fmt.Errorf("No rule for converting %s to %s", currentType.String(), toType.String())
	}

	return f(v)
}

//ParseCell returns typed value of a spreadsheet cell and its DataType
//empty (or whitespace only) cell is nil with UNKNOWN type
func ParseCell(raw string) (interface{}, DataType) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, UNKNOWN
	}

	if integerRegexp.MatchString(trimmed) {
		if intValue, err := cast.ToInt64E(trimmed); err == nil {
			return intValue, INT64
		}
	}

	if floatRegexp.MatchString(trimmed) {
		if floatValue, err := cast.ToFloat64E(trimmed); err == nil {
			return floatValue, FLOAT64
		}
	}

	switch strings.ToLower(trimmed) {
	case "true":
		return true, BOOL
	case "false":
		return false, BOOL
	}

	if t, ok := timestamp.ParseSheetValue(trimmed); ok {
		return t, TIMESTAMP
	}

	return raw, STRING
}

//assume that input v can't be nil
func toString(v interface{}) (interface{}, error) {
	str, err := cast.ToStringE(v)
	if err != nil {
		return nil, fmt.Errorf("Error toString() for value: %v: %v", v, err)
	}

	return str, nil
}

func timestampToString(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case time.Time:
		return value.Format(timestamp.Layout), nil
	case string:
		return value, nil
	default:
		return nil, fmt.Errorf("Error timestampToString(): Unknown value type: %T", v)
	}
}

func stringToInt(v interface{}) (interface{}, error) {
	trimmed := strings.TrimSpace(v.(string))
	if !integerRegexp.MatchString(trimmed) {
		return nil, fmt.Errorf("Error stringToInt() for value: %v: not an integer", v)
	}
	intValue, err := cast.ToInt64E(trimmed)
	if err != nil {
		return nil, fmt.Errorf("Error stringToInt() for value: %v: %v", v, err)
	}

	return intValue, nil
}

func stringToFloat(v interface{}) (interface{}, error) {
	floatValue, err := cast.ToFloat64E(strings.TrimSpace(v.(string)))
	if err != nil {
		return nil, fmt.Errorf("Error stringToFloat() for value: %v: %v", v, err)
	}

	return floatValue, nil
}

func stringToTimestamp(v interface{}) (interface{}, error) {
	t, ok := timestamp.ParseSheetValue(strings.TrimSpace(v.(string)))
	if !ok {
		return nil, fmt.Errorf("Error stringToTimestamp() for value: %v: unknown layout", v)
	}

	return t, nil
}

func stringToBool(v interface{}) (interface{}, error) {
	boolValue, err := cast.ToBoolE(strings.ToLower(strings.TrimSpace(v.(string))))
	if err != nil {
		return nil, fmt.Errorf("Error stringToBool() for value: %v: %v", v, err)
	}

	return boolValue, nil
}

func floatToInt(v interface{}) (interface{}, error) {
	switch value := v.(type) {
	case float32:
		return int64(value), nil
	case float64:
		return int64(value), nil
	default:
		return nil, fmt.Errorf("Value: %v with type: %T isn't float", v, v)
	}
}

func intToFloat(v interface{}) (interface{}, error) {
	floatValue, err := cast.ToFloat64E(v)
	if err != nil {
		return nil, fmt.Errorf("Value: %v with type: %T isn't int: %v", v, v, err)
	}

	return floatValue, nil
}
