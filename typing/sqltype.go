package typing

//SQLTypes is a mapping column name -> SQL type (overrides or DB state)
type SQLTypes map[string]SQLColumn

//SQLColumn is a column SQL representation
//Type is used for casting in insert statements, ColumnType (if set) in DDL
type SQLColumn struct {
	Type       string
	ColumnType string
}

//DDLType returns ColumnType if it is set, otherwise Type
func (c SQLColumn) DDLType() string {
	if c.ColumnType != "" {
		return c.ColumnType
	}

	return c.Type
}
