package google

import (
	"fmt"
	"strconv"
	"strings"
)

// findRow returns the zero-based index of the row whose first column holds
// id, or -1. values is the A column as returned by the Sheets API.
func findRow(values [][]any, id int64) int {
	want := strconv.FormatInt(id, 10)
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i
		}
	}
	return -1
}

// hasHeader reports whether the first row of the A column is the ID header.
func hasHeader(values [][]any) bool {
	if len(values) == 0 || len(values[0]) == 0 {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(fmt.Sprint(values[0][0])), "ID")
}

// rowRange is the A1 range covering one full mirror row (1-based).
func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:G%d", quoteSheet(sheet), row, row)
}

func columnRange(sheet string) string {
	return fmt.Sprintf("%s!A:A", quoteSheet(sheet))
}

// quoteSheet wraps a sheet title in single quotes when A1 notation needs it.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
