package schema

import "fmt"

// CatalogError reports a failed catalog read for a schema.
type CatalogError struct {
	Schema string
	Op     string
	Err    error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("schema %s: failed to %s: %v", e.Schema, e.Op, e.Err)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}
