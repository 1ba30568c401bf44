package table

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func newPeopleTable(t *testing.T, opts Options) *Table {
	t.Helper()
	if opts.Columns == nil {
		opts.Columns = peopleColumns()
	}
	if opts.Data == nil {
		opts.Data = peopleData()
	}
	tbl, err := NewTable(opts)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	return tbl
}

func viewIDs(vm ViewModel) []string {
	var ids []string
	for _, rec := range vm.Rows {
		ids = append(ids, RecordID(rec))
	}
	return ids
}

// ----------------------------------------------------------------------------
// Construction
// ----------------------------------------------------------------------------

func TestNewTable_Validation(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no columns", Options{}},
		{"empty column id", Options{Columns: []ColumnDescriptor{{ID: ""}}}},
		{"duplicate column id", Options{Columns: []ColumnDescriptor{{ID: "a"}, {ID: "a"}}}},
		{"server mode without source", Options{
			Columns: []ColumnDescriptor{{ID: "a"}},
			Modes:   Modes{ServerFiltering: true},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(tt.opts)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Errorf("error = %T, want *ValidationError", err)
			}
		})
	}
}

func TestNewTable_PaginationDefaults(t *testing.T) {
	tbl := newPeopleTable(t, Options{Pagination: Pagination{PageIndex: -3}})

	vm := tbl.View()
	if vm.Pagination.PageSize != DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", vm.Pagination.PageSize, DefaultPageSize)
	}
	if vm.Pagination.PageIndex != 0 {
		t.Errorf("PageIndex = %d, want 0", vm.Pagination.PageIndex)
	}
}

// ----------------------------------------------------------------------------
// View derivation (client mode)
// ----------------------------------------------------------------------------

func TestView_FilterSortPaginate(t *testing.T) {
	tbl := newPeopleTable(t, Options{Pagination: Pagination{PageSize: 2}})

	tbl.SetFilter("status", "active")
	tbl.SetSorts([]SortSpec{{Field: "age", Direction: SortDesc}})

	vm := tbl.View()
	// Active: Carol 45, Alice 34, Erin 30. First page of two.
	if got := viewIDs(vm); !sameIDs(got, []string{"3", "1"}) {
		t.Errorf("page 0 ids = %v, want [3 1]", got)
	}
	if vm.Pagination.TotalRows != 3 {
		t.Errorf("TotalRows = %d, want 3", vm.Pagination.TotalRows)
	}
	if vm.Pagination.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", vm.Pagination.TotalPages)
	}
	if len(vm.FilteredRows) != 3 {
		t.Errorf("FilteredRows length = %d, want 3", len(vm.FilteredRows))
	}

	tbl.SetPage(1)
	if got := viewIDs(tbl.View()); !sameIDs(got, []string{"5"}) {
		t.Errorf("page 1 ids = %v, want [5]", got)
	}
}

func TestView_PageIndexClampedToLastPage(t *testing.T) {
	tbl := newPeopleTable(t, Options{Pagination: Pagination{PageSize: 2}})

	tbl.SetPage(10)
	vm := tbl.View()
	if vm.Pagination.PageIndex != 2 {
		t.Errorf("PageIndex = %d, want 2", vm.Pagination.PageIndex)
	}
	if got := viewIDs(vm); !sameIDs(got, []string{"5"}) {
		t.Errorf("clamped page ids = %v, want [5]", got)
	}
}

func TestView_GlobalSearch(t *testing.T) {
	tbl := newPeopleTable(t, Options{})

	tbl.SetGlobalFilter("CAROL")
	if got := viewIDs(tbl.View()); !sameIDs(got, []string{"3"}) {
		t.Errorf("search ids = %v, want [3]", got)
	}
}

func TestView_GlobalSearchCoversOnlyTextColumns(t *testing.T) {
	tbl := newPeopleTable(t, Options{})

	// "pending" appears only in the status column, which carries a select
	// filter, so search must not match it.
	tbl.SetGlobalFilter("pending")
	if got := viewIDs(tbl.View()); len(got) != 0 {
		t.Errorf("search ids = %v, want none", got)
	}

	// The id column has no filter config at all and is likewise excluded.
	tbl.SetGlobalFilter("4")
	if got := viewIDs(tbl.View()); len(got) != 0 {
		t.Errorf("search ids = %v, want none", got)
	}
}

func TestSetPage_NegativeClampsToZero(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	tbl.SetPage(-5)
	if got := tbl.View().Pagination.PageIndex; got != 0 {
		t.Errorf("PageIndex = %d, want 0", got)
	}
}

// ----------------------------------------------------------------------------
// Page resets
// ----------------------------------------------------------------------------

func TestPageResetsOnStateChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Table)
	}{
		{"SetFilter", func(tbl *Table) { tbl.SetFilter("status", "active") }},
		{"RemoveFilter", func(tbl *Table) { tbl.RemoveFilter("status") }},
		{"ClearFilters", func(tbl *Table) { tbl.ClearFilters() }},
		{"SetGroups", func(tbl *Table) {
			tbl.SetGroups([]FilterGroup{{Operator: GroupOr, Filters: FilterValues{"status": "active"}}})
		}},
		{"SetGlobalFilter", func(tbl *Table) { tbl.SetGlobalFilter("a") }},
		{"SetPageSize", func(tbl *Table) { tbl.SetPageSize(3) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl := newPeopleTable(t, Options{Pagination: Pagination{PageSize: 2}})
			tbl.SetPage(1)

			tt.mutate(tbl)
			if got := tbl.View().Pagination.PageIndex; got != 0 {
				t.Errorf("PageIndex after %s = %d, want 0", tt.name, got)
			}
		})
	}
}

func TestSetGlobalFilter_SameTextKeepsPage(t *testing.T) {
	tbl := newPeopleTable(t, Options{Pagination: Pagination{PageSize: 2}})
	tbl.SetGlobalFilter("a")
	tbl.SetPage(1)

	tbl.SetGlobalFilter("a")
	if got := tbl.View().Pagination.PageIndex; got != 1 {
		t.Errorf("PageIndex = %d, want 1", got)
	}
}

func TestSetPageSize_RejectsNonPositive(t *testing.T) {
	tbl := newPeopleTable(t, Options{Pagination: Pagination{PageSize: 2}})
	tbl.SetPageSize(0)
	tbl.SetPageSize(-1)
	if got := tbl.View().Pagination.PageSize; got != 2 {
		t.Errorf("PageSize = %d, want 2", got)
	}
}

// ----------------------------------------------------------------------------
// Sorting
// ----------------------------------------------------------------------------

func TestToggleSort_Cycle(t *testing.T) {
	tbl := newPeopleTable(t, Options{})

	tbl.ToggleSort("name")
	if got := tbl.Sorts(); len(got) != 1 || got[0].Field != "name" || got[0].Direction != SortAsc {
		t.Fatalf("after first toggle sorts = %v, want [{name asc}]", got)
	}

	tbl.ToggleSort("name")
	if got := tbl.Sorts(); len(got) != 1 || got[0].Direction != SortDesc {
		t.Fatalf("after second toggle sorts = %v, want [{name desc}]", got)
	}

	tbl.ToggleSort("name")
	if got := tbl.Sorts(); len(got) != 0 {
		t.Errorf("after third toggle sorts = %v, want empty", got)
	}
}

func TestToggleSort_ReplacesOtherFields(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	tbl.SetSorts([]SortSpec{{Field: "age", Direction: SortDesc}})

	tbl.ToggleSort("name")
	got := tbl.Sorts()
	if len(got) != 1 || got[0].Field != "name" || got[0].Direction != SortAsc {
		t.Errorf("sorts = %v, want [{name asc}]", got)
	}
}

func TestToggleSort_UnsortableOrUnknownIgnored(t *testing.T) {
	tbl := newPeopleTable(t, Options{})

	tbl.ToggleSort("status") // not sortable
	tbl.ToggleSort("nope")
	if got := tbl.Sorts(); len(got) != 0 {
		t.Errorf("sorts = %v, want empty", got)
	}
}

// ----------------------------------------------------------------------------
// Selection and expansion
// ----------------------------------------------------------------------------

func TestSelection_SurvivesFilterChanges(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	tbl.Select("2")
	tbl.Select("4")

	// Neither Bob nor Dave is active, so both leave the materialized set.
	tbl.SetFilter("status", "active")

	if got := tbl.Selected(); !sameIDs(got, []string{"2", "4"}) {
		t.Errorf("Selected = %v, want [2 4]", got)
	}
	if !tbl.IsSelected("2") {
		t.Error("IsSelected(2) = false, want true")
	}
}

func TestSelectAll_CoversFilteredSetOnly(t *testing.T) {
	tbl := newPeopleTable(t, Options{Pagination: Pagination{PageSize: 2}})
	tbl.SetFilter("status", "active")

	// The filtered set spans pages; SelectAll must not stop at page size.
	tbl.SelectAll()
	if got := tbl.Selected(); !sameIDs(got, []string{"1", "3", "5"}) {
		t.Errorf("Selected = %v, want [1 3 5]", got)
	}
}

func TestSelectInvert_FlipsOnlyMaterializedRows(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	tbl.Select("1")
	tbl.Select("2")
	tbl.SetFilter("status", "active") // materialized: 1, 3, 5

	tbl.SelectInvert()
	// 1 flips off, 3 and 5 flip on, 2 is outside the set and stays.
	if got := tbl.Selected(); !sameIDs(got, []string{"2", "3", "5"}) {
		t.Errorf("Selected = %v, want [2 3 5]", got)
	}
}

func TestSelection_ToggleAndNone(t *testing.T) {
	tbl := newPeopleTable(t, Options{})

	tbl.ToggleSelect("3")
	if !tbl.IsSelected("3") {
		t.Fatal("toggle should select an unselected id")
	}
	tbl.ToggleSelect("3")
	if tbl.IsSelected("3") {
		t.Fatal("toggle should deselect a selected id")
	}

	tbl.Select("1")
	tbl.Select("2")
	tbl.SelectNone()
	if got := tbl.Selected(); len(got) != 0 {
		t.Errorf("Selected after SelectNone = %v, want empty", got)
	}
}

func TestExpansion(t *testing.T) {
	tbl := newPeopleTable(t, Options{})

	tbl.Expand("1")
	tbl.ToggleExpand("2")
	if got := tbl.Expanded(); !sameIDs(got, []string{"1", "2"}) {
		t.Fatalf("Expanded = %v, want [1 2]", got)
	}

	tbl.Collapse("1")
	tbl.ToggleExpand("2")
	if got := tbl.Expanded(); len(got) != 0 {
		t.Fatalf("Expanded = %v, want empty", got)
	}

	tbl.Expand("3")
	tbl.Expand("4")
	tbl.CollapseAll()
	if got := tbl.Expanded(); len(got) != 0 {
		t.Errorf("Expanded after CollapseAll = %v, want empty", got)
	}
}

// ----------------------------------------------------------------------------
// Reset
// ----------------------------------------------------------------------------

func TestReset_RestoresInitialState(t *testing.T) {
	tbl := newPeopleTable(t, Options{
		Pagination: Pagination{PageSize: 2},
		Sorts:      []SortSpec{{Field: "name", Direction: SortAsc}},
		Filters:    FilterValues{"status": "active"},
	})

	tbl.SetFilter("status", "pending")
	tbl.SetGlobalFilter("bob")
	tbl.SetSorts([]SortSpec{{Field: "age", Direction: SortDesc}})
	tbl.SetPageSize(4)
	tbl.SetPage(1)
	tbl.Select("2")
	tbl.Expand("3")

	tbl.Reset()

	vm := tbl.View()
	if vm.Pagination.PageSize != 2 || vm.Pagination.PageIndex != 0 {
		t.Errorf("pagination = %+v, want size 2 index 0", vm.Pagination)
	}
	if len(vm.Sorts) != 1 || vm.Sorts[0].Field != "name" {
		t.Errorf("sorts = %v, want [{name asc}]", vm.Sorts)
	}
	if got := vm.Filters.Values["status"]; got != "active" {
		t.Errorf("status filter = %v, want active", got)
	}
	if vm.Filters.GlobalFilter != "" {
		t.Errorf("global filter = %q, want empty", vm.Filters.GlobalFilter)
	}
	if len(vm.Selection) != 0 {
		t.Errorf("selection = %v, want empty", vm.Selection)
	}
	if !sameIDs(vm.Expansion, []string{"3"}) {
		t.Errorf("expansion = %v, want [3]", vm.Expansion)
	}
}

// ----------------------------------------------------------------------------
// Column changes
// ----------------------------------------------------------------------------

func TestSetColumns_DropsStateForRemovedColumns(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	tbl.SetFilter("status", "active")
	tbl.SetFilter("name", "a")
	tbl.SetSorts([]SortSpec{{Field: "age", Direction: SortAsc}, {Field: "name", Direction: SortDesc}})

	// Drop status and age.
	cols := peopleColumns()
	if err := tbl.SetColumns([]ColumnDescriptor{cols[0], cols[1], cols[4], cols[5]}); err != nil {
		t.Fatalf("SetColumns: %v", err)
	}

	vals := tbl.Filters().Values()
	if _, ok := vals["status"]; ok {
		t.Error("status filter should be dropped with its column")
	}
	if vals["name"] != "a" {
		t.Errorf("name filter = %v, want a", vals["name"])
	}

	sorts := tbl.Sorts()
	if len(sorts) != 1 || sorts[0].Field != "name" {
		t.Errorf("sorts = %v, want [{name desc}]", sorts)
	}
}

func TestSetColumns_KeepsExplicitFilterConfigs(t *testing.T) {
	tbl := newPeopleTable(t, Options{
		FilterConfigs: []FilterConfig{
			{ColumnID: "name", Label: "Name", Type: FilterText},
			{ColumnID: "age", Label: "Age", Type: FilterText},
		},
	})

	// Drop status and joined; name, age, and active survive.
	cols := peopleColumns()
	if err := tbl.SetColumns([]ColumnDescriptor{cols[0], cols[1], cols[2], cols[4]}); err != nil {
		t.Fatalf("SetColumns: %v", err)
	}

	types := make(map[string]FilterType)
	for _, cfg := range tbl.Filters().Configs() {
		types[cfg.ColumnID] = cfg.Type
	}

	// The explicit text override on age must not be re-derived away.
	if types["age"] != FilterText {
		t.Errorf("age filter type = %q, want %q after column change", types["age"], FilterText)
	}
	// Columns without an explicit config still get a derived one.
	if types["active"] != FilterBool {
		t.Errorf("active filter type = %q, want %q", types["active"], FilterBool)
	}
}

func TestSetColumns_RejectsDuplicateIDs(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	err := tbl.SetColumns([]ColumnDescriptor{{ID: "x"}, {ID: "x"}})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Errorf("error = %v, want *ValidationError", err)
	}
}

// ----------------------------------------------------------------------------
// Server mode
// ----------------------------------------------------------------------------

func serverModes() Modes {
	return Modes{ServerFiltering: true, ServerSorting: true, ServerPagination: true}
}

func TestRefresh_AppliesFetchedPage(t *testing.T) {
	total := 42
	var lastReq FetchRequest
	src := func(_ context.Context, req FetchRequest) (FetchResult, error) {
		lastReq = req
		return FetchResult{
			Data:       []Record{{"id": "10"}, {"id": "11"}},
			TotalCount: &total,
		}, nil
	}

	tbl := newPeopleTable(t, Options{
		Source:     src,
		Modes:      serverModes(),
		Pagination: Pagination{PageSize: 2, PageIndex: 3},
		Sorts:      []SortSpec{{Field: "name", Direction: SortAsc}},
	})

	if err := tbl.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if lastReq.PageIndex != 3 || lastReq.PageSize != 2 {
		t.Errorf("request page = %d/%d, want 3/2", lastReq.PageIndex, lastReq.PageSize)
	}
	if len(lastReq.Sorts) != 1 || lastReq.Sorts[0].Field != "name" {
		t.Errorf("request sorts = %v, want [{name asc}]", lastReq.Sorts)
	}

	vm := tbl.View()
	if got := viewIDs(vm); !sameIDs(got, []string{"10", "11"}) {
		t.Errorf("rows = %v, want [10 11]", got)
	}
	if vm.Pagination.TotalRows != 42 {
		t.Errorf("TotalRows = %d, want 42", vm.Pagination.TotalRows)
	}
	if vm.Fetching {
		t.Error("Fetching = true after completed refresh")
	}
}

func TestRefresh_NoOpWithoutServerModes(t *testing.T) {
	tbl := newPeopleTable(t, Options{})
	if err := tbl.Refresh(context.Background()); err != nil {
		t.Errorf("Refresh = %v, want nil", err)
	}
}

func TestFetch_SupersededResponseDiscarded(t *testing.T) {
	release := make(chan struct{})
	firstStarted := make(chan struct{})
	var calls int32

	src := func(_ context.Context, _ FetchRequest) (FetchResult, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(firstStarted)
			<-release
			return FetchResult{Data: []Record{{"id": "stale"}}}, nil
		}
		return FetchResult{Data: []Record{{"id": "fresh"}}}, nil
	}

	tbl := newPeopleTable(t, Options{
		Source: src,
		Modes:  serverModes(),
	})

	done := make(chan error, 1)
	go func() { done <- tbl.Refresh(context.Background()) }()
	<-firstStarted

	// A second request supersedes the blocked one.
	if err := tbl.Refresh(context.Background()); err != nil {
		t.Fatalf("second Refresh: %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("superseded Refresh = %v, want nil", err)
	}

	if got := viewIDs(tbl.View()); !sameIDs(got, []string{"fresh"}) {
		t.Errorf("rows = %v, want [fresh]", got)
	}
	if tbl.Fetching() {
		t.Error("Fetching = true after both fetches settled")
	}
}

func TestFetch_StaleWhileError(t *testing.T) {
	var fail atomic.Bool
	src := func(_ context.Context, _ FetchRequest) (FetchResult, error) {
		if fail.Load() {
			return FetchResult{}, errors.New("backend down")
		}
		return FetchResult{Data: []Record{{"id": "good"}}}, nil
	}

	var reported error
	tbl := newPeopleTable(t, Options{
		Source:  src,
		Modes:   serverModes(),
		OnError: func(err error) { reported = err },
	})

	if err := tbl.Refresh(context.Background()); err != nil {
		t.Fatalf("initial Refresh: %v", err)
	}

	fail.Store(true)
	err := tbl.Refresh(context.Background())
	var dsErr *DataSourceError
	if !errors.As(err, &dsErr) {
		t.Fatalf("Refresh error = %v, want *DataSourceError", err)
	}
	if !errors.As(reported, &dsErr) {
		t.Errorf("OnError received %v, want *DataSourceError", reported)
	}

	// The last good page stays visible and the error is surfaced.
	vm := tbl.View()
	if got := viewIDs(vm); !sameIDs(got, []string{"good"}) {
		t.Errorf("rows after failure = %v, want [good]", got)
	}
	if vm.FetchErr == nil {
		t.Error("FetchErr = nil after failed fetch")
	}

	fail.Store(false)
	if err := tbl.Refresh(context.Background()); err != nil {
		t.Fatalf("recovery Refresh: %v", err)
	}
	if tbl.FetchError() != nil {
		t.Errorf("FetchError = %v after recovery, want nil", tbl.FetchError())
	}
}

// ----------------------------------------------------------------------------
// Concurrent access
// ----------------------------------------------------------------------------

// Handlers keep references from Filters() and Visibility() while other
// requests mutate the same table, so reads and writes must interleave safely.
func TestConcurrentComponentAccess(t *testing.T) {
	tbl := newPeopleTable(t, Options{})

	var wg sync.WaitGroup
	for g := 0; g < 4; g++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				tbl.SetFilter("name", "a")
				tbl.RemoveFilter("name")
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				_ = tbl.Filters().Values()
				_ = tbl.Filters().Presets()
				_ = tbl.Filters().ActivePresetID()
				_ = tbl.View()
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				tbl.Visibility().Toggle("status")
				_ = tbl.Visibility().State()
			}
		}()
	}
	wg.Wait()

	if got := tbl.Filters().ActiveFilterCount(); got != 0 {
		t.Errorf("ActiveFilterCount = %d, want 0", got)
	}
	// 800 toggles in total, so status lands back on its default.
	if !tbl.Visibility().IsVisible("status") {
		t.Error("status should be visible after an even number of toggles")
	}
}
