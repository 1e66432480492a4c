// Package customize implements the item customization step: collecting an
// optional note and extras for one menu entry before it goes to the cart.
package customize

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-kart/internal/domain/cart"
	"github.com/xenking/bistro-kart/internal/domain/menu"
)

// UnknownExtraError indicates an extra that the entry does not offer.
type UnknownExtraError struct {
	EntryID string
	ExtraID string
}

func (e *UnknownExtraError) Error() string {
	return fmt.Sprintf("extra %s is not available for %s", e.ExtraID, e.EntryID)
}

// Draft is an in-progress customization of one menu entry.
type Draft struct {
	entry    menu.Entry
	note     string
	selected []menu.Extra
}

// NewDraft starts customizing entry with no note and no extras.
func NewDraft(entry menu.Entry) *Draft {
	return &Draft{entry: entry}
}

// Entry returns the entry being customized.
func (d *Draft) Entry() menu.Entry {
	return d.entry
}

// SetNote replaces the free-text note.
func (d *Draft) SetNote(note string) {
	d.note = note
}

// Toggle selects the extra if it is not selected and deselects it
// otherwise. It reports whether the extra is selected afterwards.
func (d *Draft) Toggle(extraID string) (bool, error) {
	if i := d.indexOf(extraID); i >= 0 {
		d.selected = slices.Delete(d.selected, i, i+1)
		return false, nil
	}
	x, ok := d.entry.Extra(extraID)
	if !ok {
		return false, &UnknownExtraError{EntryID: d.entry.ID, ExtraID: extraID}
	}
	d.selected = append(d.selected, x)
	return true, nil
}

// IsSelected reports whether the extra is currently selected.
func (d *Draft) IsSelected(extraID string) bool {
	return d.indexOf(extraID) >= 0
}

// Selected returns the selected extras in selection order.
func (d *Draft) Selected() []menu.Extra {
	return slices.Clone(d.selected)
}

// RunningTotal returns the entry price plus the selected extras. It is a
// display projection and is not stored anywhere.
func (d *Draft) RunningTotal() decimal.Decimal {
	total := d.entry.Price
	for _, x := range d.selected {
		total = total.Add(x.Price)
	}
	return total
}

// Confirm emits the order-line request and resets the draft. The note is
// trimmed; an empty note and an empty selection are reported as absent.
func (d *Draft) Confirm() cart.Request {
	req := cart.Request{
		Entry: d.entry,
		Note:  strings.TrimSpace(d.note),
	}
	if len(d.selected) > 0 {
		req.Extras = slices.Clone(d.selected)
	}
	d.Cancel()
	return req
}

// Cancel discards the note and every selection.
func (d *Draft) Cancel() {
	d.note = ""
	d.selected = nil
}

func (d *Draft) indexOf(extraID string) int {
	return slices.IndexFunc(d.selected, func(x menu.Extra) bool {
		return x.ID == extraID
	})
}

// Build runs a whole customization in one step: the listed extras end up
// selected (repeated IDs do not deselect) and the request is confirmed.
func Build(entry menu.Entry, note string, extraIDs []string) (cart.Request, error) {
	d := NewDraft(entry)
	d.SetNote(note)
	for _, id := range extraIDs {
		if d.IsSelected(id) {
			continue
		}
		if _, err := d.Toggle(id); err != nil {
			return cart.Request{}, err
		}
	}
	return d.Confirm(), nil
}
