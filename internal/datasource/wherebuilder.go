// Package datasource implements the orchestrator's fetch contract over
// PostgreSQL: filter values, sort specs, pagination, and the global search
// text translate to parameterized SQL, so server-mode tables page and filter
// in the database instead of in memory.
package datasource

import (
	"fmt"
	"strings"

	"github.com/tablekit/tablekit/internal/table"
)

// WhereBuilder accumulates WHERE conditions with positional args.
type WhereBuilder struct {
	conditions []string
	args       []interface{}
	argIndex   int
}

// NewWhereBuilder returns an empty builder. Arg numbering starts at $1.
func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends an equality condition on a raw column name.
// Empty values are skipped.
func (wb *WhereBuilder) Add(column, value string) {
	if value == "" {
		return
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", column, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddSearch appends a case-insensitive search across all text-typed columns,
// OR-combined so the term may appear in any of them.
func (wb *WhereBuilder) AddSearch(query string, configs []table.FilterConfig) {
	if strings.TrimSpace(query) == "" {
		return
	}

	var parts []string
	for _, cfg := range configs {
		if cfg.Type != table.FilterText {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s ILIKE $%d", quoteIdentifier(toDBColumn(cfg.ColumnID)), wb.argIndex))
	}
	if len(parts) == 0 {
		return
	}

	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+query+"%")
	wb.argIndex++
}

// AddFilters appends one condition per non-empty flat filter value,
// translated by the column's filter type.
func (wb *WhereBuilder) AddFilters(values table.FilterValues, configs []table.FilterConfig) {
	for _, cfg := range configs {
		fv, ok := values[cfg.ColumnID]
		if !ok {
			continue
		}
		if cond := wb.filterCondition(cfg, fv); cond != "" {
			wb.conditions = append(wb.conditions, cond)
		}
	}
}

// AddGroups appends the OR-combination of filter groups as one parenthesized
// condition. Vacuous groups contribute nothing.
func (wb *WhereBuilder) AddGroups(groups []table.FilterGroup, configs []table.FilterConfig) {
	var groupConds []string
	for _, g := range groups {
		var parts []string
		for _, cfg := range configs {
			fv, ok := g.Filters[cfg.ColumnID]
			if !ok {
				continue
			}
			if cond := wb.filterCondition(cfg, fv); cond != "" {
				parts = append(parts, cond)
			}
		}
		if len(parts) == 0 {
			continue
		}

		joiner := " AND "
		if g.Operator == table.GroupOr {
			joiner = " OR "
		}
		groupConds = append(groupConds, "("+strings.Join(parts, joiner)+")")
	}

	if len(groupConds) > 0 {
		wb.conditions = append(wb.conditions, "("+strings.Join(groupConds, " OR ")+")")
	}
}

// filterCondition translates one filter value to SQL, claiming arg slots as
// needed. Returns "" when the value constrains nothing.
func (wb *WhereBuilder) filterCondition(cfg table.FilterConfig, fv any) string {
	col := quoteIdentifier(toDBColumn(cfg.ColumnID))

	switch cfg.Type {
	case table.FilterText:
		s := strings.TrimSpace(asFilterString(fv))
		if s == "" {
			return ""
		}
		cond := fmt.Sprintf("%s ILIKE $%d", col, wb.argIndex)
		wb.args = append(wb.args, "%"+s+"%")
		wb.argIndex++
		return cond

	case table.FilterSelect, table.FilterMultiSelect:
		choices := filterList(fv)
		if len(choices) == 0 {
			s := asFilterString(fv)
			if s == "" {
				return ""
			}
			cond := fmt.Sprintf("%s::text = $%d", col, wb.argIndex)
			wb.args = append(wb.args, s)
			wb.argIndex++
			return cond
		}
		placeholders := make([]string, len(choices))
		for i, c := range choices {
			placeholders[i] = fmt.Sprintf("$%d", wb.argIndex)
			wb.args = append(wb.args, c)
			wb.argIndex++
		}
		return fmt.Sprintf("%s::text IN (%s)", col, strings.Join(placeholders, ", "))

	case table.FilterBool:
		if s, ok := fv.(string); ok && strings.EqualFold(strings.TrimSpace(s), "all") {
			return ""
		}
		cond := fmt.Sprintf("%s = $%d", col, wb.argIndex)
		wb.args = append(wb.args, fv)
		wb.argIndex++
		return cond

	case table.FilterNumber, table.FilterNumberRange:
		if lo, hi, isRange := rangeParts(fv); isRange {
			var parts []string
			if lo != nil {
				parts = append(parts, fmt.Sprintf("%s >= $%d", col, wb.argIndex))
				wb.args = append(wb.args, lo)
				wb.argIndex++
			}
			if hi != nil {
				parts = append(parts, fmt.Sprintf("%s <= $%d", col, wb.argIndex))
				wb.args = append(wb.args, hi)
				wb.argIndex++
			}
			return strings.Join(parts, " AND ")
		}
		cond := fmt.Sprintf("%s = $%d", col, wb.argIndex)
		wb.args = append(wb.args, fv)
		wb.argIndex++
		return cond

	case table.FilterDate, table.FilterDateRange:
		if lo, hi, isRange := rangeParts(fv); isRange {
			var parts []string
			if lo != nil {
				parts = append(parts, fmt.Sprintf("%s >= $%d", col, wb.argIndex))
				wb.args = append(wb.args, lo)
				wb.argIndex++
			}
			if hi != nil {
				parts = append(parts, fmt.Sprintf("%s <= $%d", col, wb.argIndex))
				wb.args = append(wb.args, hi)
				wb.argIndex++
			}
			return strings.Join(parts, " AND ")
		}
		cond := fmt.Sprintf("%s::date = $%d::date", col, wb.argIndex)
		wb.args = append(wb.args, fv)
		wb.argIndex++
		return cond

	default:
		// Custom filters never reach SQL.
		return ""
	}
}

// AddTimestampRange appends inclusive bounds on a timestamp column. Empty
// bounds are skipped independently.
func (wb *WhereBuilder) AddTimestampRange(column, start, end string) {
	if start != "" {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s >= $%d", column, wb.argIndex))
		wb.args = append(wb.args, start)
		wb.argIndex++
	}
	if end != "" {
		wb.conditions = append(wb.conditions, fmt.Sprintf("%s <= $%d", column, wb.argIndex))
		wb.args = append(wb.args, end)
		wb.argIndex++
	}
}

// Build returns the assembled WHERE clause (with leading space) and its
// args, or ("", nil) when no conditions were added.
func (wb *WhereBuilder) Build() (string, []interface{}) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

// NextArgIndex returns the next free positional arg number, for callers
// appending their own placeholders (LIMIT/OFFSET).
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// quoteIdentifier quotes a SQL identifier to prevent injection.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// toDBColumn converts a column id to a database column name.
// "Transaction ID" -> "transaction_id".
func toDBColumn(id string) string {
	return strings.ToLower(strings.ReplaceAll(id, " ", "_"))
}

// asFilterString renders a scalar filter value for SQL args.
func asFilterString(fv any) string {
	switch s := fv.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", fv)
	}
}

// filterList unpacks a multi-choice filter value.
func filterList(fv any) []string {
	switch list := fv.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, v := range list {
			out = append(out, asFilterString(v))
		}
		return out
	default:
		return nil
	}
}

// rangeParts unpacks a two-element range filter value; nil bounds mean
// unbounded on that side.
func rangeParts(fv any) (lo, hi any, ok bool) {
	switch r := fv.(type) {
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
