// Package cart implements the session cart: it merges identical order-line
// requests into quantities, supports quantity changes and removal, and
// computes totals.
//
// A Cart is not safe for concurrent use. It is owned by exactly one session
// and every operation is expected to be serialized by that owner.
package cart

import (
	"github.com/shopspring/decimal"
)

// Totals is the derived cart summary.
type Totals struct {
	// Count is the sum of line quantities.
	Count int
	// Price is the sum of unit price times quantity over all lines.
	Price decimal.Decimal
}

// Cart holds the lines of one session in insertion order.
type Cart struct {
	lines    []Line
	lastRef  LineRef
	notifier Notifier
}

// New creates an empty cart. The notifier may be nil.
func New(n Notifier) *Cart {
	return &Cart{notifier: n}
}

// Add merges req into the line with the same entry, note and set of extras,
// or appends a new line with quantity 1. It returns the resulting line.
func (c *Cart) Add(req Request) Line {
	defer c.notify(Event{Kind: EventItemAdded, Item: req.Entry.Name})

	for i := range c.lines {
		if c.lines[i].matches(req) {
			c.lines[i].Quantity++
			return c.lines[i].clone()
		}
	}

	c.lastRef++
	l := newLine(c.lastRef, req)
	c.lines = append(c.lines, l)
	return l.clone()
}

// SetQuantity changes the quantity of the referenced line. A quantity of
// zero or less removes the line. Unknown refs are ignored.
func (c *Cart) SetQuantity(ref LineRef, quantity int) {
	if quantity <= 0 {
		c.Remove(ref)
		return
	}
	if i := c.index(ref); i >= 0 {
		c.lines[i].Quantity = quantity
	}
}

// Remove deletes the referenced line. Unknown refs are ignored.
func (c *Cart) Remove(ref LineRef) {
	i := c.index(ref)
	if i < 0 {
		return
	}
	name := c.lines[i].Name
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	c.notify(Event{Kind: EventItemRemoved, Item: name})
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.lines = nil
	c.notify(Event{Kind: EventCartCleared})
}

// Totals computes the item count and total price from the current lines.
func (c *Cart) Totals() Totals {
	t := Totals{Price: decimal.Zero}
	for _, l := range c.lines {
		t.Count += l.Quantity
		t.Price = t.Price.Add(l.Subtotal())
	}
	return t
}

// Lines returns a snapshot of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	for i, l := range c.lines {
		out[i] = l.clone()
	}
	return out
}

// Line returns a snapshot of the referenced line.
func (c *Cart) Line(ref LineRef) (Line, bool) {
	if i := c.index(ref); i >= 0 {
		return c.lines[i].clone(), true
	}
	return Line{}, false
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}

func (c *Cart) index(ref LineRef) int {
	for i := range c.lines {
		if c.lines[i].Ref == ref {
			return i
		}
	}
	return -1
}

func (c *Cart) notify(e Event) {
	if c.notifier != nil {
		c.notifier.Notify(e)
	}
}
