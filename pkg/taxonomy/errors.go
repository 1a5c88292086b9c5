package taxonomy

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a category or subcategory key is absent from the taxonomy.
	ErrNotFound = errors.New("taxonomy key not found")
	// ErrSourceLoad indicates the taxonomy source is missing or unreadable.
	ErrSourceLoad = errors.New("failed to load taxonomy source")
	// ErrUnsupportedFormat indicates the source extension is neither csv nor xlsx.
	ErrUnsupportedFormat = errors.New("unsupported taxonomy source format")
)

// NotFoundError reports which lookup key was missing. Subcategory is empty
// when the category itself was absent.
type NotFoundError struct {
	Category    string
	Subcategory string
}

func (e *NotFoundError) Error() string {
	if e.Subcategory == "" {
		return fmt.Sprintf("%s: category %q", ErrNotFound, e.Category)
	}
	return fmt.Sprintf("%s: subcategory %q in category %q", ErrNotFound, e.Subcategory, e.Category)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Key returns the key that failed the lookup.
func (e *NotFoundError) Key() string {
	if e.Subcategory == "" {
		return e.Category
	}
	return e.Subcategory
}
