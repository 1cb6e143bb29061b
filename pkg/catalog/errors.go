package catalog

import "errors"

var (
	// ErrInvalidCatalog is returned when catalog YAML is malformed or
	// inconsistent.
	ErrInvalidCatalog = errors.New("catalog: invalid catalog")

	// ErrUnknownClass is returned for a class id missing from the catalog.
	ErrUnknownClass = errors.New("catalog: unknown class id")

	// ErrUnknownItem is returned for an item name missing from the catalog.
	ErrUnknownItem = errors.New("catalog: unknown item")
)
