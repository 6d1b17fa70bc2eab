package typing

import (
	"fmt"
	"time"
)

type DataType int

const (
	//IMPORTANT: order of iota values. Int values according to Typecast tree (see typing.typecastTree)
	UNKNOWN DataType = iota
	BOOL
	INT64
	FLOAT64
	STRING
	TIMESTAMP
)

func (dt DataType) String() string {
	switch dt {
	default:
		return ""
	case STRING:
		return "STRING"
	case INT64:
		return "INT64"
	case FLOAT64:
		return "FLOAT64"
	case TIMESTAMP:
		return "TIMESTAMP"
	case BOOL:
		return "BOOL"
	case UNKNOWN:
		return "UNKNOWN"
	}
}

//TypeFromValue return DataType from v type
func TypeFromValue(v interface{}) (DataType, error) {
	switch v.(type) {
	case string:
		return STRING, nil
	case float32, float64:
		return FLOAT64, nil
	case int, int8, int16, int32, int64:
		return INT64, nil
	case time.Time:
		return TIMESTAMP, nil
	case bool:
		return BOOL, nil
	default:
		return UNKNOWN, fmt.Errorf("Unknown DataType for value: %v type: %T", v, v)
	}
}
