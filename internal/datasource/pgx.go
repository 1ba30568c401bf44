package datasource

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablekit/tablekit/internal/table"
)

// Source serves fetch requests for one database table. Column ids map to
// database columns by lowercasing and replacing spaces with underscores.
type Source struct {
	pool    *pgxpool.Pool
	table   string
	columns []table.ColumnDescriptor
	configs []table.FilterConfig
}

// New builds a Source for the named table. The column list controls both the
// SELECT projection and which sort and filter fields are honored.
func New(pool *pgxpool.Pool, tableName string, columns []table.ColumnDescriptor) (*Source, error) {
	if pool == nil {
		return nil, fmt.Errorf("new source: pool is required")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, fmt.Errorf("new source: table name is required")
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("new source: at least one column is required")
	}

	var configs []table.FilterConfig
	for _, col := range columns {
		if !col.Filterable {
			continue
		}
		ft := col.FilterType
		if ft == "" {
			ft = table.FilterText
		}
		configs = append(configs, table.FilterConfig{
			ColumnID: col.ID,
			Label:    col.Label,
			Type:     ft,
			Options:  col.FilterOptions,
		})
	}

	return &Source{
		pool:    pool,
		table:   tableName,
		columns: columns,
		configs: configs,
	}, nil
}

// DataSource adapts the Source to the orchestrator's fetch contract.
func (s *Source) DataSource() table.DataSource {
	return s.Fetch
}

// Fetch runs a count plus a paged SELECT against the table, translating the
// request's filters, search, sorts, and pagination to SQL.
func (s *Source) Fetch(ctx context.Context, req table.FetchRequest) (table.FetchResult, error) {
	wb := NewWhereBuilder()
	wb.AddSearch(req.GlobalFilter, s.configs)
	wb.AddFilters(req.Filters, s.configs)
	wb.AddGroups(req.Groups, s.configs)
	whereClause, queryArgs := wb.Build()

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", quoteIdentifier(s.table), whereClause)
	var totalRows int64
	if err := s.pool.QueryRow(ctx, countQuery, queryArgs...).Scan(&totalRows); err != nil {
		return table.FetchResult{}, fmt.Errorf("count rows: %w", err)
	}

	total := int(totalRows)
	if totalRows == 0 {
		return table.FetchResult{Data: []table.Record{}, TotalCount: &total}, nil
	}

	dbCols := make([]string, len(s.columns))
	for i, col := range s.columns {
		dbCols[i] = quoteIdentifier(toDBColumn(col.ID))
	}

	orderClause := s.orderBy(req.Sorts)

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = table.DefaultPageSize
	}
	pageIndex := req.PageIndex
	if pageIndex < 0 {
		pageIndex = 0
	}
	offset := pageIndex * pageSize

	argIndex := wb.NextArgIndex()
	query := fmt.Sprintf(
		"SELECT %s FROM %s%s ORDER BY %s LIMIT $%d OFFSET $%d",
		strings.Join(dbCols, ", "),
		quoteIdentifier(s.table),
		whereClause,
		orderClause,
		argIndex,
		argIndex+1,
	)
	queryArgs = append(queryArgs, pageSize, offset)

	rows, err := s.pool.Query(ctx, query, queryArgs...)
	if err != nil {
		return table.FetchResult{}, fmt.Errorf("query rows: %w", err)
	}
	defer rows.Close()

	var data []table.Record
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return table.FetchResult{}, fmt.Errorf("read row values: %w", err)
		}

		rec := make(table.Record, len(s.columns))
		for i, col := range s.columns {
			rec[col.ID] = values[i]
		}
		data = append(data, rec)
	}
	if err := rows.Err(); err != nil {
		return table.FetchResult{}, fmt.Errorf("rows error: %w", err)
	}

	return table.FetchResult{Data: data, TotalCount: &total}, nil
}

// orderBy builds the ORDER BY expression, dropping sorts on unknown or
// non-sortable columns. Falls back to the first column ascending so
// pagination stays stable.
func (s *Source) orderBy(sorts []table.SortSpec) string {
	var parts []string
	for _, srt := range sorts {
		col, ok := s.column(srt.Field)
		if !ok || !col.Sortable {
			continue
		}
		dir := strings.ToLower(string(srt.Direction))
		if dir != "asc" && dir != "desc" {
			dir = "asc"
		}
		parts = append(parts, fmt.Sprintf("%s %s", quoteIdentifier(toDBColumn(col.ID)), dir))
	}
	if len(parts) == 0 {
		parts = append(parts, fmt.Sprintf("%s asc", quoteIdentifier(toDBColumn(s.columns[0].ID))))
	}
	return strings.Join(parts, ", ")
}

func (s *Source) column(id string) (table.ColumnDescriptor, bool) {
	for _, col := range s.columns {
		if col.ID == id {
			return col, true
		}
	}
	return table.ColumnDescriptor{}, false
}
