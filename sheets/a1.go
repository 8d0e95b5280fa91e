package sheets

import (
	"fmt"
	"strings"
)

// ColumnLetter converts a 1-indexed column number to its A1 letters:
// 1 is "A", 26 is "Z", 27 is "AA".
func ColumnLetter(col int) string {
	if col < 1 {
		return ""
	}
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}

// quoteSheet quotes a tab name for use in an A1 range.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

// rowRange is the A1 range spanning width columns of one row starting at col.
func rowRange(sheet string, row, col, width int) string {
	return fmt.Sprintf("%s!%s%d:%s%d", quoteSheet(sheet), ColumnLetter(col), row, ColumnLetter(col+width-1), row)
}
