package cart

import (
	"slices"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-kart/internal/domain/menu"
)

// LineRef identifies one cart line. Refs are assigned from a per-cart
// sequence at creation and are never reused, so a ref stays valid (or
// becomes unknown) regardless of how other lines move.
type LineRef uint64

func (r LineRef) String() string {
	return strconv.FormatUint(uint64(r), 10)
}

// ParseLineRef parses the decimal form produced by LineRef.String.
func ParseLineRef(s string) (LineRef, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil || v == 0 {
		return 0, errors.Errorf("invalid line ref %q", s)
	}
	return LineRef(v), nil
}

// Request is a fully specified order-line request produced by the item
// customization step. An empty Note and nil Extras mean "absent".
type Request struct {
	Entry  menu.Entry
	Note   string
	Extras []menu.Extra
}

// Line is one distinct orderable configuration with its quantity.
type Line struct {
	Ref      LineRef
	EntryID  string
	Name     string
	Category string
	Image    string
	Price    decimal.Decimal
	Quantity int
	Note     string
	Extras   []menu.Extra
}

// UnitPrice returns the base price plus the price of every extra.
func (l Line) UnitPrice() decimal.Decimal {
	p := l.Price
	for _, x := range l.Extras {
		p = p.Add(x.Price)
	}
	return p
}

// Subtotal returns UnitPrice multiplied by the quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ExtraNames returns the display names of the line extras in order.
func (l Line) ExtraNames() []string {
	names := make([]string, len(l.Extras))
	for i, x := range l.Extras {
		names[i] = x.Name
	}
	return names
}

func (l Line) matches(req Request) bool {
	return l.EntryID == req.Entry.ID &&
		l.Note == req.Note &&
		sameExtras(l.Extras, req.Extras)
}

func (l Line) clone() Line {
	l.Extras = slices.Clone(l.Extras)
	return l
}

func newLine(ref LineRef, req Request) Line {
	return Line{
		Ref:      ref,
		EntryID:  req.Entry.ID,
		Name:     req.Entry.Name,
		Category: req.Entry.Category,
		Image:    req.Entry.Image,
		Price:    req.Entry.Price,
		Quantity: 1,
		Note:     req.Note,
		Extras:   slices.Clone(req.Extras),
	}
}

// sameExtras reports whether a and b hold the same set of extras: equal IDs
// with equal prices, in any order.
func sameExtras(a, b []menu.Extra) bool {
	sa, sb := extraSet(a), extraSet(b)
	if len(sa) != len(sb) {
		return false
	}
	for id, price := range sa {
		other, ok := sb[id]
		if !ok || !other.Equal(price) {
			return false
		}
	}
	return true
}

func extraSet(extras []menu.Extra) map[string]decimal.Decimal {
	set := make(map[string]decimal.Decimal, len(extras))
	for _, x := range extras {
		set[x.ID] = x.Price
	}
	return set
}
