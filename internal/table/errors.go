package table

import "fmt"

// ValidationError reports rejected caller input, such as an empty preset
// name. The mutator that raised it has not changed any state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Reason)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// NotFoundError reports an operation referencing an unknown preset, column,
// or session id. Most lookups treat this as a silent no-op; it surfaces only
// where the caller asked for the entity itself.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// DataSourceError wraps a failure from the external fetch function. It is
// surfaced through the view model and the configured error callback, never
// thrown back into the orchestrator's caller, and the previous row set stays
// visible.
type DataSourceError struct {
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source: %v", e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}

// PersistenceError wraps a store read/write failure. The in-memory state
// change it accompanied has already been applied.
type PersistenceError struct {
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: key %q: %v", e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
