package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/xenking/bistro-kart/internal/domain/cart"
	"github.com/xenking/bistro-kart/internal/domain/customize"
)

// cartView is a consistent snapshot taken inside one session operation.
type cartView struct {
	lines  []cart.Line
	totals cart.Totals
	events []cart.Event
}

func snapshot(c *cart.Cart) cartView {
	return cartView{lines: c.Lines(), totals: c.Totals()}
}

// GetCart returns the lines and totals of the visitor's cart. Visitors
// without a session get an empty cart.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	var view cartView
	if sess, ok := h.existingSession(r); ok {
		sess.Do(func(c *cart.Cart) { view = snapshot(c) })
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeCart(e, view)
	})
}

type addItemRequest struct {
	EntryID string
	Note    string
	Extras  []string
}

func decodeAddItem(data []byte) (addItemRequest, error) {
	var req addItemRequest
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "entry_id":
			req.EntryID, err = d.Str()
		case "note":
			req.Note, err = decodeString(d)
		case "extras":
			req.Extras, err = decodeStrings(d)
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		return req, err
	}
	if req.EntryID == "" {
		return req, errors.New("entry_id is required")
	}
	return req, nil
}

// AddItem customizes a menu entry and adds it to the cart, merging with an
// identical line when there is one.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	data, err := h.readBody(w, r)
	if err != nil {
		writeBadBody(w, err)
		return
	}
	req, err := decodeAddItem(data)
	if err != nil {
		writeBadBody(w, err)
		return
	}

	entry, ok := h.lookupEntry(w, r, req.EntryID)
	if !ok {
		return
	}
	lineReq, err := customize.Build(*entry, req.Note, req.Extras)
	if err != nil {
		mapCustomizeError(w, r, err)
		return
	}

	var (
		line cart.Line
		view cartView
	)
	view.events = h.session(w, r).Do(func(c *cart.Cart) {
		line = c.Add(lineReq)
		view.lines, view.totals = c.Lines(), c.Totals()
	})
	h.itemsAdded.Add(r.Context(), 1, metric.WithAttributes(attribute.String("category", entry.Category)))

	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("line")
		h.encodeLine(e, line)
		e.FieldStart("cart")
		h.encodeCart(e, view)
		e.ObjEnd()
	})
}

// SetQuantity sets the quantity of one line. Zero removes the line and an
// unknown ref leaves the cart unchanged.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	ref, err := cart.ParseLineRef(r.PathValue("ref"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := h.readBody(w, r)
	if err != nil {
		writeBadBody(w, err)
		return
	}
	quantity := -1
	err = jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != "quantity" {
			return d.Skip()
		}
		v, err := d.Int()
		quantity = v
		return err
	})
	if err != nil {
		writeBadBody(w, err)
		return
	}
	if quantity < 0 {
		writeError(w, http.StatusBadRequest, "quantity must be zero or positive")
		return
	}

	h.mutate(w, r, func(c *cart.Cart) { c.SetQuantity(ref, quantity) })
}

// RemoveItem deletes one line. An unknown ref leaves the cart unchanged.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ref, err := cart.ParseLineRef(r.PathValue("ref"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.mutate(w, r, func(c *cart.Cart) { c.Remove(ref) })
}

// ClearCart removes every line.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, (*cart.Cart).Clear)
}

// mutate applies fn to the visitor's cart. Without a session the cart is
// empty and stays so; no session is created.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, fn func(c *cart.Cart)) {
	var view cartView
	if sess, ok := h.existingSession(r); ok {
		view.events = sess.Do(func(c *cart.Cart) {
			fn(c)
			view.lines, view.totals = c.Lines(), c.Totals()
		})
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeCart(e, view)
	})
}

func (h *Handler) encodeCart(e *jx.Encoder, view cartView) {
	e.ObjStart()
	e.FieldStart("lines")
	e.ArrStart()
	for _, l := range view.lines {
		h.encodeLine(e, l)
	}
	e.ArrEnd()
	e.FieldStart("count")
	e.Int(view.totals.Count)
	e.FieldStart("total")
	e.Str(view.totals.Price.StringFixed(2))
	e.FieldStart("events")
	e.ArrStart()
	for _, ev := range view.events {
		e.ObjStart()
		e.FieldStart("kind")
		e.Str(string(ev.Kind))
		if ev.Item != "" {
			e.FieldStart("item")
			e.Str(ev.Item)
		}
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func (h *Handler) encodeLine(e *jx.Encoder, l cart.Line) {
	e.ObjStart()
	e.FieldStart("ref")
	e.Str(l.Ref.String())
	e.FieldStart("entry_id")
	e.Str(l.EntryID)
	e.FieldStart("name")
	e.Str(l.Name)
	e.FieldStart("category")
	e.Str(l.Category)
	e.FieldStart("image")
	e.Str(h.image(l.Image))
	e.FieldStart("note")
	e.Str(l.Note)
	e.FieldStart("extras")
	encodeExtras(e, l.Extras)
	e.FieldStart("unit_price")
	e.Str(l.UnitPrice().StringFixed(2))
	e.FieldStart("quantity")
	e.Int(l.Quantity)
	e.FieldStart("subtotal")
	e.Str(l.Subtotal().StringFixed(2))
	e.ObjEnd()
}
