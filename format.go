package obras2pdf

import (
	"strconv"
	"strings"
	"time"
)

// EmptyValue is displayed for unset fields.
const EmptyValue = "--"

// DisplayDateLayout is the day-first layout used in reports.
const DisplayDateLayout = "02/01/2006"

// FormatMoney renders an amount in Argentine notation with cents.
//
// Examples:
//   - 1234567.891 -> "$ 1.234.567,89"
//   - -50 -> "$ -50,00"
//   - nil -> "--"
func FormatMoney(v *float64) string {
	if v == nil {
		return EmptyValue
	}
	return "$ " + formatGrouped(*v, 2)
}

// FormatMoneyInt renders an amount rounded to whole units: "$ 1.234.568".
func FormatMoneyInt(v *float64) string {
	if v == nil {
		return EmptyValue
	}
	return "$ " + formatGrouped(*v, 0)
}

// FormatNumber renders a count with thousands separators and no decimals.
func FormatNumber(v *float64) string {
	if v == nil {
		return EmptyValue
	}
	return formatGrouped(*v, 0)
}

// FormatPercent renders a value already in [0,100] with a decimal comma.
// Whole values drop the decimals: 50 -> "50%", 50.25 -> "50,25%".
func FormatPercent(v *float64) string {
	if v == nil {
		return EmptyValue
	}
	s := strings.Replace(strconv.FormatFloat(*v, 'f', 2, 64), ".", ",", 1)
	return strings.TrimSuffix(s, ",00") + "%"
}

// FormatDate renders a date as DD/MM/YYYY.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return EmptyValue
	}
	return t.Format(DisplayDateLayout)
}

// FormatText returns s, or "--" when it is blank.
func FormatText(s string) string {
	if strings.TrimSpace(s) == "" {
		return EmptyValue
	}
	return s
}

// ShortDescription drops the first two comma-separated parts of a project
// description, which repeat the program and locality. Descriptions with fewer
// than three parts are returned whole.
func ShortDescription(description string) string {
	text := strings.TrimSpace(strings.Join(strings.Fields(description), " "))
	if text == "" || text == EmptyValue {
		return EmptyValue
	}

	var parts []string
	for _, p := range strings.Split(text, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) >= 3 {
		return strings.Join(parts[2:], ", ")
	}
	return text
}

// formatGrouped formats v with the given decimals, "." between thousands and
// "," before the decimals.
func formatGrouped(v float64, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + 1)
	b.WriteString(sign)
	lead := len(intPart) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(intPart[:lead])
	for i := lead; i < len(intPart); i += 3 {
		b.WriteByte('.')
		b.WriteString(intPart[i : i+3])
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
