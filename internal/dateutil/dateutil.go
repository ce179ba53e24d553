// Package dateutil parses spreadsheet dates and resolves report date formats.
package dateutil

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrInvalidDateFormat indicates an invalid date format string.
	ErrInvalidDateFormat = errors.New("invalid date format")
	// ErrUnparseableDate indicates a cell value that is not a recognized date.
	ErrUnparseableDate = errors.New("unrecognized date value")
)

// MaxDateFormatLength limits format string length to prevent abuse.
const MaxDateFormatLength = 50

// DefaultDateFormat is used when "auto" is specified without a format.
const DefaultDateFormat = "DD/MM/YYYY"

// Excel serials outside this range are not treated as dates (1900-01-01 .. 9999-12-31).
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// dateTokens maps user-friendly tokens to Go time format components.
// Ordered by length descending for greedy matching.
var dateTokens = []struct {
	token string
	goFmt string
}{
	{"YYYY", "2006"},
	{"YY", "06"},
	{"MM", "01"},
	{"DD", "02"},
	{"M", "1"},
	{"D", "2"},
}

// DatePresets provides named shortcuts for common date formats.
var DatePresets = map[string]string{
	"iso": "YYYY-MM-DD",
	"ar":  "DD/MM/YYYY",
	"us":  "MM/DD/YYYY",
}

// spreadsheetLayouts are tried in order. Day-first wins over month-first when
// both would parse.
var spreadsheetLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"02/01/2006",
	"2/1/2006",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
}

// ParseSpreadsheetDate interprets a raw cell value as a date.
// Accepted forms: Excel serial numbers (e.g. "45292" or "45292.5"),
// YYYY-MM-DD, DD/MM/YYYY and MM/DD/YYYY. Empty values and "--" yield ok=false
// without error.
func ParseSpreadsheetDate(raw string) (t time.Time, ok bool, err error) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "--" {
		return time.Time{}, false, nil
	}

	if serial, convErr := strconv.ParseFloat(s, 64); convErr == nil {
		if !(serial >= minExcelSerial && serial <= maxExcelSerial) {
			return time.Time{}, false, fmt.Errorf("%w: serial %s out of range", ErrUnparseableDate, s)
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false, fmt.Errorf("%w: %v", ErrUnparseableDate, err)
		}
		return t, true, nil
	}

	for _, layout := range spreadsheetLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrUnparseableDate, raw)
}

// ParseDateFormat converts a user-friendly format string to Go's time format.
// Tokens: YYYY, YY, MM, M, DD, D
// Use brackets to escape literal text: [Fecha] preserves "Fecha" literally.
// Any non-token characters outside brackets are preserved as literals.
func ParseDateFormat(format string) (string, error) {
	if format == "" {
		return "", fmt.Errorf("%w: format cannot be empty", ErrInvalidDateFormat)
	}
	if len(format) > MaxDateFormatLength {
		return "", fmt.Errorf("%w: format exceeds %d characters", ErrInvalidDateFormat, MaxDateFormatLength)
	}

	var result strings.Builder
	result.Grow(len(format) + 10)

	i := 0
	for i < len(format) {
		if format[i] == '[' {
			end := strings.Index(format[i+1:], "]")
			if end == -1 {
				return "", fmt.Errorf("%w: unclosed bracket at position %d", ErrInvalidDateFormat, i)
			}
			result.WriteString(format[i+1 : i+1+end])
			i += end + 2
			continue
		}

		matched := false
		for _, t := range dateTokens {
			if strings.HasPrefix(format[i:], t.token) {
				result.WriteString(t.goFmt)
				i += len(t.token)
				matched = true
				break
			}
		}

		if !matched {
			result.WriteByte(format[i])
			i++
		}
	}

	return result.String(), nil
}

// ResolveDate handles "auto" and "auto:FORMAT" syntax for the report date.
//   - "auto" -> t in DD/MM/YYYY
//   - "auto:FORMAT" -> t in a custom format (e.g. "auto:YYYY-MM-DD")
//   - "auto:preset" -> t using a named preset (iso, ar, us)
//   - any other value -> returned unchanged
func ResolveDate(value string, t time.Time) (string, error) {
	lower := strings.ToLower(value)

	if !strings.HasPrefix(lower, "auto") {
		return value, nil
	}

	if lower == "auto" {
		goFmt, err := ParseDateFormat(DefaultDateFormat)
		if err != nil {
			return "", err
		}
		return t.Format(goFmt), nil
	}

	if !strings.HasPrefix(lower, "auto:") {
		return "", fmt.Errorf("%w: invalid auto syntax %q, use \"auto\" or \"auto:FORMAT\"", ErrInvalidDateFormat, value)
	}

	formatPart := value[5:]
	if formatPart == "" {
		return "", fmt.Errorf("%w: format cannot be empty after \"auto:\"", ErrInvalidDateFormat)
	}

	if preset, ok := DatePresets[strings.ToLower(formatPart)]; ok {
		formatPart = preset
	}

	goFmt, err := ParseDateFormat(formatPart)
	if err != nil {
		return "", err
	}
	return t.Format(goFmt), nil
}
