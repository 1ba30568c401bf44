package table

// predicate.go evaluates typed per-column filter predicates and their
// combination into flat maps and boolean groups.
//
// Combination semantics: a record must satisfy every entry of the flat filter
// map (implicit AND across columns) and, when one or more non-vacuous groups
// exist, at least one group (groups OR-combine with each other). Both layers
// apply simultaneously when both are populated.

import "strings"

// matchValue reports whether cell value v passes filter value f under the
// given filter type. Empty filter values always pass; callers filter those
// out before evaluation, but the check here keeps the function total.
func matchValue(ft FilterType, v, f any) bool {
	if isEmptyFilterValue(f) {
		return true
	}

	switch ft {
	case FilterText:
		return matchText(v, f)
	case FilterSelect, FilterMultiSelect:
		return matchSelect(v, f)
	case FilterBool:
		return matchBool(v, f)
	case FilterDate, FilterDateRange:
		return matchDate(v, f)
	case FilterNumber, FilterNumberRange:
		return matchNumber(v, f)
	case FilterCustom:
		// Custom columns carry their own UI-side semantics.
		return true
	default:
		return matchText(v, f)
	}
}

// matchText is a case-insensitive substring match. Missing cell values fail.
func matchText(v, f any) bool {
	if v == nil {
		return false
	}
	needle := strings.ToLower(strings.TrimSpace(asString(f)))
	return strings.Contains(strings.ToLower(asString(v)), needle)
}

// matchSelect compares string forms. A list filter passes when the cell
// matches any element; an empty list constrains nothing.
func matchSelect(v, f any) bool {
	cell := asString(v)

	switch choices := f.(type) {
	case []string:
		if len(choices) == 0 {
			return true
		}
		for _, c := range choices {
			if cell == c {
				return true
			}
		}
		return false
	case []any:
		if len(choices) == 0 {
			return true
		}
		for _, c := range choices {
			if cell == asString(c) {
				return true
			}
		}
		return false
	default:
		return cell == asString(f)
	}
}

// matchBool compares boolean equality. The special filter value "all"
// passes every record.
func matchBool(v, f any) bool {
	if s, ok := f.(string); ok && strings.EqualFold(strings.TrimSpace(s), "all") {
		return true
	}

	want, ok := asBool(f)
	if !ok {
		return true
	}
	got, ok := asBool(v)
	if !ok {
		return false
	}
	return got == want
}

// matchDate compares calendar time. A two-element filter is an inclusive
// range with independently optional bounds; anything else is same-day
// equality.
func matchDate(v, f any) bool {
	cell, ok := asTime(v)
	if !ok {
		return false
	}

	if lo, hi, isRange := rangeBounds(f); isRange {
		if lo != nil {
			start, ok := asTime(lo)
			if ok && cell.Before(start) && !sameDay(cell, start) {
				return false
			}
		}
		if hi != nil {
			end, ok := asTime(hi)
			if ok && cell.After(end) && !sameDay(cell, end) {
				return false
			}
		}
		return true
	}

	want, ok := asTime(f)
	if !ok {
		return false
	}
	return sameDay(cell, want)
}

// matchNumber compares numerically. A two-element filter is an inclusive
// [min,max] with independently optional bounds; anything else is equality.
// Cells with no numeric form fail.
func matchNumber(v, f any) bool {
	cell, ok := asNumber(v)
	if !ok {
		return false
	}

	if lo, hi, isRange := rangeBounds(f); isRange {
		if lo != nil {
			if min, ok := asNumber(lo); ok && cell < min {
				return false
			}
		}
		if hi != nil {
			if max, ok := asNumber(hi); ok && cell > max {
				return false
			}
		}
		return true
	}

	want, ok := asNumber(f)
	if !ok {
		return false
	}
	return cell == want
}

// rangeBounds unpacks a two-element range filter value. Either bound may be
// nil, meaning unbounded on that side.
func rangeBounds(f any) (lo, hi any, ok bool) {
	switch r := f.(type) {
	case []any:
		if len(r) == 2 {
			return r[0], r[1], true
		}
	case []float64:
		if len(r) == 2 {
			return r[0], r[1], true
		}
	case []string:
		if len(r) == 2 {
			var a, b any
			if strings.TrimSpace(r[0]) != "" {
				a = r[0]
			}
			if strings.TrimSpace(r[1]) != "" {
				b = r[1]
			}
			return a, b, true
		}
	}
	return nil, nil, false
}
