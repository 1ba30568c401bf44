package table

// presets.go maintains named filter presets: saved snapshots of filter state
// that can be recalled later. Presets persist through the engine's store as
// JSON and survive process restarts.

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tablekit/tablekit/internal/persist"
)

// presetsStoreSuffix scopes the preset list under the engine's storage key.
const presetsStoreSuffix = "presets"

// Presets returns all saved presets in save order.
func (e *FilterEngine) Presets() []FilterPreset {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]FilterPreset, len(e.presets))
	copy(out, e.presets)
	return out
}

// ActivePresetID returns the id of the preset the current state was loaded
// from, or "" when the state has diverged from any preset.
func (e *FilterEngine) ActivePresetID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.activePreset
}

// SavePreset creates or overwrites a preset by name. A nil filters argument
// snapshots the engine's current values and groups. Saving under an existing
// name (exact match after trimming) overwrites that preset while preserving
// its id and creation time. The saved preset becomes active.
func (e *FilterEngine) SavePreset(name string, filters FilterValues, groups []FilterGroup) (FilterPreset, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return FilterPreset{}, &ValidationError{Field: "name", Reason: "preset name cannot be empty"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if filters == nil {
		filters = e.values.Clone()
		groups = e.groups
	} else {
		filters = filters.Clone()
	}

	now := time.Now()

	for i, p := range e.presets {
		if p.Name == name {
			e.presets[i].Filters = filters
			e.presets[i].Groups = groups
			e.presets[i].UpdatedAt = now
			e.activePreset = p.ID
			e.persistPresets()
			return e.presets[i], nil
		}
	}

	preset := FilterPreset{
		ID:        uuid.New().String(),
		Name:      name,
		Filters:   filters,
		Groups:    groups,
		CreatedAt: now,
		UpdatedAt: now,
	}
	e.presets = append(e.presets, preset)
	e.activePreset = preset.ID
	e.persistPresets()
	return preset, nil
}

// LoadPreset replaces the current filter state with a preset's and marks it
// active. Returns nil when the id is unknown.
func (e *FilterEngine) LoadPreset(id string) *FilterPreset {
	e.mu.Lock()
	for i := range e.presets {
		if e.presets[i].ID == id {
			p := e.presets[i]
			e.replaceStateLocked(p.Filters, p.Groups)
			e.activePreset = p.ID
			e.mu.Unlock()
			e.notify()
			return &p
		}
	}
	e.mu.Unlock()
	return nil
}

// DeletePreset removes a preset by id; unknown ids are no-ops. Deleting the
// active preset clears the active marker without touching current filters.
func (e *FilterEngine) DeletePreset(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, p := range e.presets {
		if p.ID == id {
			e.presets = append(e.presets[:i], e.presets[i+1:]...)
			if e.activePreset == id {
				e.activePreset = ""
			}
			e.persistPresets()
			return
		}
	}
}

// persistPresets writes the preset list through the store. Failures are
// logged and the in-memory list stands.
func (e *FilterEngine) persistPresets() {
	if e.store == nil || e.storeKey == "" {
		return
	}
	key := persist.Key(e.storeKey, presetsStoreSuffix)
	if err := persist.SaveJSON(e.store, key, e.presets); err != nil {
		slog.Warn("filter: preset persistence failed", "key", key, "error", err)
	}
}

// loadPresets restores the preset list from the store at construction.
func (e *FilterEngine) loadPresets() {
	if e.store == nil || e.storeKey == "" {
		return
	}
	var presets []FilterPreset
	if persist.LoadJSON(e.store, persist.Key(e.storeKey, presetsStoreSuffix), &presets) {
		e.presets = presets
	}
}
