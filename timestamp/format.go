package timestamp

import "time"

//Layout is an ISO date time format used for timestamp values sent to warehouses
const Layout = "2006-01-02T15:04:05.000000Z"

//DashDayLayout is a Day format with dash delimiter of time.Time
const DashDayLayout = "2006-01-02"

//LogsLayout is a date time representation for log records prefixes
const LogsLayout = "2006-01-02 15:04:05"

//SheetLayouts are layouts a spreadsheet cell is matched against when it is recognized as a timestamp.
//Order matters: the first layout that parses wins.
var SheetLayouts = []string{
	time.RFC3339Nano,
	Layout,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	DashDayLayout,
	"01/02/2006 15:04:05",
	"01/02/2006",
	"1/2/06 15:04",
	"01-02-06",
}

//ParseSheetValue tries every layout from SheetLayouts
//returns parsed UTC time and true if one of them matched
func ParseSheetValue(value string) (time.Time, bool) {
	for _, layout := range SheetLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
