package menu

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested menu entry does not exist.
var ErrNotFound = errors.New("menu entry not found")

// Extra is an optional paid add-on ingredient scoped to one menu entry.
type Extra struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// Entry is an orderable item of the menu.
type Entry struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Popular     bool
	Image       string
	Extras      []Extra
}

// Extra returns the available extra with the given ID.
func (e Entry) Extra(id string) (Extra, bool) {
	for _, x := range e.Extras {
		if x.ID == id {
			return x, true
		}
	}
	return Extra{}, false
}

// Category groups menu entries under a display title. Entries keep the
// order of the source data.
type Category struct {
	Key     string
	Title   string
	Entries []Entry
}

// Catalog provides read-only access to the menu.
type Catalog interface {
	Categories(ctx context.Context) ([]Category, error)
	Entry(ctx context.Context, id string) (*Entry, error)
}
