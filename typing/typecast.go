package typing

//typecastTree describes which type two different cell types of one column are reduced to:
//
//	      STRING
//	    /   |    \
//	FLOAT64 BOOL TIMESTAMP
//	   |
//	 INT64
//
//Only INT64 and FLOAT64 have a common type other than STRING
var typecastTree = map[rule]DataType{
	{from: INT64, to: FLOAT64}: FLOAT64,
	{from: FLOAT64, to: INT64}: FLOAT64,
}

//GetCommonAncestorType returns lowest common type of t1 and t2
//UNKNOWN is a neutral element (a column without values yet)
func GetCommonAncestorType(t1, t2 DataType) DataType {
	if t1 == t2 {
		return t1
	}
	if t1 == UNKNOWN {
		return t2
	}
	if t2 == UNKNOWN {
		return t1
	}

	if common, ok := typecastTree[rule{from: t1, to: t2}]; ok {
		return common
	}

	return STRING
}
