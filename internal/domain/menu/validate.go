package menu

import (
	"fmt"

	"github.com/go-faster/errors"
)

// InvalidEntryError describes a catalog entry that breaks a catalog rule.
type InvalidEntryError struct {
	EntryID string
	Reason  string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("menu entry %q: %s", e.EntryID, e.Reason)
}

// Validate checks that entry IDs are unique across the catalog, extra IDs
// are unique within their entry and no price is negative.
func Validate(categories []Category) error {
	seen := make(map[string]struct{})
	for _, c := range categories {
		if c.Key == "" {
			return errors.Errorf("category %q: empty key", c.Title)
		}
		for _, e := range c.Entries {
			if e.ID == "" {
				return &InvalidEntryError{EntryID: e.Name, Reason: "empty id"}
			}
			if _, dup := seen[e.ID]; dup {
				return &InvalidEntryError{EntryID: e.ID, Reason: "duplicate id"}
			}
			seen[e.ID] = struct{}{}

			if e.Price.IsNegative() {
				return &InvalidEntryError{EntryID: e.ID, Reason: "negative price"}
			}

			extras := make(map[string]struct{}, len(e.Extras))
			for _, x := range e.Extras {
				if _, dup := extras[x.ID]; dup {
					return &InvalidEntryError{EntryID: e.ID, Reason: fmt.Sprintf("duplicate extra %q", x.ID)}
				}
				extras[x.ID] = struct{}{}
				if x.Price.IsNegative() {
					return &InvalidEntryError{EntryID: e.ID, Reason: fmt.Sprintf("negative price for extra %q", x.ID)}
				}
			}
		}
	}
	return nil
}
