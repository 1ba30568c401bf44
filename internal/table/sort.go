package table

// sort.go orders record sets locally for client-mode sorting. Comparison is
// type-aware: when both cells coerce to numbers they compare numerically,
// when both coerce to times they compare chronologically, otherwise their
// string forms compare case-insensitively. Nil cells sort last in ascending
// order regardless of direction semantics elsewhere.

import (
	"sort"
	"strings"
	"time"
)

// sortRecords returns data ordered by the sort sequence. The input slice is
// not modified; an empty sequence returns the input unchanged. Fields
// without a matching sortable column are skipped.
func sortRecords(data []Record, sorts []SortSpec, columns map[string]ColumnDescriptor) []Record {
	var active []SortSpec
	for _, s := range sorts {
		col, ok := columns[s.Field]
		if !ok || !col.Sortable {
			continue
		}
		active = append(active, s)
	}
	if len(active) == 0 {
		return data
	}

	out := make([]Record, len(data))
	copy(out, data)

	sort.SliceStable(out, func(i, j int) bool {
		for _, s := range active {
			col := columns[s.Field]
			c := compareValues(col.Value(out[i]), col.Value(out[j]))
			if c == 0 {
				continue
			}
			if s.Direction == SortDesc {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	return out
}

// compareValues orders two cell values: -1, 0, or 1.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return 1 // Nils sort last
		default:
			return -1
		}
	}

	if an, aok := asNumber(a); aok {
		if bn, bok := asNumber(b); bok {
			switch {
			case an < bn:
				return -1
			case an > bn:
				return 1
			default:
				return 0
			}
		}
	}

	if at, aok := timeOnly(a); aok {
		if bt, bok := timeOnly(b); bok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}

	return strings.Compare(
		strings.ToLower(asString(a)),
		strings.ToLower(asString(b)),
	)
}

// timeOnly coerces to time without the numeric fallback, so plain numbers
// keep comparing numerically instead of as Unix seconds.
func timeOnly(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		return asTime(t)
	default:
		return time.Time{}, false
	}
}
