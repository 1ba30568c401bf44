package table

// coerce.go provides type coercion for cell and filter values.
//
// Records arrive with whatever types the data source produced: JSON numbers,
// raw strings, time.Time values, or formatted dates. Predicate evaluation
// needs both sides of a comparison in one domain, so these functions coerce
// values to string, number, boolean, or calendar time, reporting failure
// rather than guessing.

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// numericRegex validates that a string is a valid numeric format after
// cleanup. Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// Date layouts tried in order when coercing strings to calendar time.
// ISO forms first (unambiguous), then common US/EU separators.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006", "01/02/2006",
	"1-2-2006", "01-02-2006",
	"Jan 2, 2006", "2 Jan 2006",
	"20060102",
}

// asString renders any cell value to its display string form.
// nil renders as the empty string.
func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case bool:
		return strconv.FormatBool(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32)
	case int:
		return strconv.Itoa(s)
	case int32:
		return strconv.FormatInt(int64(s), 10)
	case int64:
		return strconv.FormatInt(s, 10)
	case time.Time:
		return s.Format("2006-01-02")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// asNumber coerces a value to float64. Strings are cleaned of currency
// symbols, thousands separators, and accounting-style parentheses before
// parsing. Returns false when the value has no numeric form.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case bool:
		return 0, false
	case time.Time:
		return 0, false
	case string:
		return parseNumber(n)
	default:
		return parseNumber(fmt.Sprintf("%v", v))
	}
}

// parseNumber parses a cleaned-up numeric string.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Accounting format "(123.45)" means negative
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if negative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// asBool coerces a value to boolean. Accepts the usual string spellings
// (true/false, yes/no, t/f, y/n, 1/0) and nonzero numbers.
func asBool(v any) (bool, bool) {
	switch b := v.(type) {
	case nil:
		return false, false
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	case string:
		switch strings.TrimSpace(strings.ToLower(b)) {
		case "true", "t", "yes", "y", "1":
			return true, true
		case "false", "f", "no", "n", "0":
			return false, true
		}
		return false, false
	default:
		return false, false
	}
}

// asTime coerces a value to a point in time. Strings run through the layout
// list; numbers are treated as Unix seconds.
func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				return parsed, true
			}
		}
		return time.Time{}, false
	case int64:
		return time.Unix(t, 0).UTC(), true
	case int:
		return time.Unix(int64(t), 0).UTC(), true
	case float64:
		return time.Unix(int64(t), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// sameDay reports whether two times fall on the same calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// isEmptyFilterValue reports whether a filter value means "no filter":
// nil, empty or whitespace string, empty slice, or a range with no bounds.
func isEmptyFilterValue(v any) bool {
	switch fv := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(fv) == ""
	case []string:
		return len(fv) == 0
	case []any:
		if len(fv) == 0 {
			return true
		}
		// A range tuple with both bounds nil is no constraint.
		if len(fv) == 2 && fv[0] == nil && fv[1] == nil {
			return true
		}
		return false
	default:
		return false
	}
}
