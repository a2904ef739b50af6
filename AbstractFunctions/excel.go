package AbstractFunctions

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// minExcelSerial keeps small integers (counts, years) from being read as
// dates. 20000 is 03/Oct/1954.
const minExcelSerial = 20000

// ParseExcelDate reads a raw workbook serial number ("46018") as a date. Cells
// typed as dates in a spreadsheet editor come back this way when the workbook
// is read without number formatting.
func ParseExcelDate(value string) (time.Time, bool) {
	serial, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || serial < minExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return dateOnly(t), true
}

// ParseExcelTime reads a raw workbook day fraction ("0.375") as a time of day.
func ParseExcelTime(value string) (TimeOfDay, bool) {
	fraction, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || fraction < 0 || fraction >= 1 {
		return TimeOfDay{}, false
	}
	secs := int(math.Round(fraction * 86400))
	if secs >= 86400 {
		secs = 86399
	}
	return TimeOfDay{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}, true
}
