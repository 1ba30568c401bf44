package table

// fetch.go handles delegation to the external data source. Only one in-flight
// fetch is authoritative: each request takes a monotonically increasing token,
// and a response is discarded unless its token is still the newest issued.
// This guarantees that when requests overlap, the most recently requested
// result wins even if an older request resolves later.
//
// A failed fetch surfaces a DataSourceError through the view model and the
// error callback but never discards the previous row set: the last good page
// stays visible (stale-while-error).

import "context"

// refreshIfServer triggers a background fetch when any concern is delegated.
// Synchronous mutators call this after applying their state change; they
// never wait on the fetch.
func (t *Table) refreshIfServer() {
	t.mu.Lock()
	if !t.modes.anyServer() || t.source == nil {
		t.mu.Unlock()
		return
	}
	t.fetchSeq++
	token := t.fetchSeq
	t.fetching = true
	req := t.fetchRequestLocked()
	t.mu.Unlock()

	go t.runFetch(t.baseCtx, token, req)
}

// Refresh synchronously fetches the current page. It participates in the
// same token sequence as background fetches, so a slow Refresh cannot
// clobber state set by a later request.
func (t *Table) Refresh(ctx context.Context) error {
	t.mu.Lock()
	if !t.modes.anyServer() || t.source == nil {
		t.mu.Unlock()
		return nil
	}
	t.fetchSeq++
	token := t.fetchSeq
	t.fetching = true
	req := t.fetchRequestLocked()
	t.mu.Unlock()

	return t.runFetch(ctx, token, req)
}

// fetchRequestLocked snapshots the delegated parameters. Callers hold t.mu.
func (t *Table) fetchRequestLocked() FetchRequest {
	return FetchRequest{
		PageIndex:    t.pagination.PageIndex,
		PageSize:     t.pagination.PageSize,
		Filters:      t.filters.Values(),
		Groups:       t.filters.Groups(),
		Sorts:        append([]SortSpec(nil), t.sorts...),
		GlobalFilter: t.globalFilter,
	}
}

// runFetch executes one fetch and applies its result under the token rule.
func (t *Table) runFetch(ctx context.Context, token uint64, req FetchRequest) error {
	res, err := t.source(ctx, req)

	t.mu.Lock()
	if token != t.fetchSeq {
		// A newer request was issued while this one was in flight.
		t.mu.Unlock()
		t.logger().Debug("discarding superseded fetch response",
			"token", token,
			"latest", t.fetchSeq,
		)
		return nil
	}
	t.fetching = false

	if err != nil {
		dsErr := &DataSourceError{Err: err}
		t.fetchErr = dsErr
		onError := t.onError
		t.mu.Unlock()

		t.logger().Warn("data source fetch failed", "error", err)
		if onError != nil {
			onError(dsErr)
		}
		return dsErr
	}

	t.fetchErr = nil
	t.serverRows = res.Data
	t.serverTotal = res.ResolvedTotal()
	t.mu.Unlock()
	return nil
}

// FetchError returns the error from the most recent completed fetch, or nil
// after a success. The previous row set remains served either way.
func (t *Table) FetchError() error {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fetchErr
}

// Fetching reports whether a fetch is outstanding.
func (t *Table) Fetching() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fetching
}
