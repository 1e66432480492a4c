package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro-kart/internal/domain/customize"
	"github.com/xenking/bistro-kart/internal/domain/menu"
)

// ListMenu returns every category with its entries in display order.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context())
	if err != nil {
		writeInternalError(w, r, errors.Wrap(err, "list categories"))
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("categories")
		e.ArrStart()
		for _, c := range categories {
			e.ObjStart()
			e.FieldStart("key")
			e.Str(c.Key)
			e.FieldStart("title")
			e.Str(c.Title)
			e.FieldStart("entries")
			e.ArrStart()
			for _, entry := range c.Entries {
				h.encodeEntry(e, entry)
			}
			e.ArrEnd()
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// GetEntry returns one menu entry.
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookupEntry(w, r, r.PathValue("id"))
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeEntry(e, *entry)
	})
}

// QuoteEntry prices a customization without touching the cart, for display
// while the visitor toggles extras.
func (h *Handler) QuoteEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.lookupEntry(w, r, r.PathValue("id"))
	if !ok {
		return
	}

	data, err := h.readBody(w, r)
	if err != nil {
		writeBadBody(w, err)
		return
	}
	var extraIDs []string
	if len(data) > 0 {
		err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
			if key != "extras" {
				return d.Skip()
			}
			ids, err := decodeStrings(d)
			extraIDs = ids
			return err
		})
		if err != nil {
			writeBadBody(w, err)
			return
		}
	}

	draft := customize.NewDraft(*entry)
	for _, id := range extraIDs {
		if draft.IsSelected(id) {
			continue
		}
		if _, err := draft.Toggle(id); err != nil {
			mapCustomizeError(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("entry_id")
		e.Str(entry.ID)
		e.FieldStart("base_price")
		e.Str(entry.Price.StringFixed(2))
		e.FieldStart("extras")
		encodeExtras(e, draft.Selected())
		e.FieldStart("total")
		e.Str(draft.RunningTotal().StringFixed(2))
		e.ObjEnd()
	})
}

func (h *Handler) lookupEntry(w http.ResponseWriter, r *http.Request, id string) (*menu.Entry, bool) {
	entry, err := h.catalog.Entry(r.Context(), id)
	if err != nil {
		mapCustomizeError(w, r, errors.Wrapf(err, "get entry %q", id))
		return nil, false
	}
	return entry, true
}

func (h *Handler) encodeEntry(e *jx.Encoder, entry menu.Entry) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(entry.ID)
	e.FieldStart("name")
	e.Str(entry.Name)
	e.FieldStart("description")
	e.Str(entry.Description)
	e.FieldStart("price")
	e.Str(entry.Price.StringFixed(2))
	e.FieldStart("category")
	e.Str(entry.Category)
	e.FieldStart("popular")
	e.Bool(entry.Popular)
	e.FieldStart("image")
	e.Str(h.image(entry.Image))
	e.FieldStart("extras")
	encodeExtras(e, entry.Extras)
	e.ObjEnd()
}

func encodeExtras(e *jx.Encoder, extras []menu.Extra) {
	e.ArrStart()
	for _, x := range extras {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(x.ID)
		e.FieldStart("name")
		e.Str(x.Name)
		e.FieldStart("price")
		e.Str(x.Price.StringFixed(2))
		e.ObjEnd()
	}
	e.ArrEnd()
}

// mapCustomizeError converts catalog and customization errors to responses.
func mapCustomizeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, menu.ErrNotFound) {
		writeError(w, http.StatusNotFound, "menu entry not found")
		return
	}

	var ueErr *customize.UnknownExtraError
	if errors.As(err, &ueErr) {
		writeError(w, http.StatusUnprocessableEntity, ueErr.Error())
		return
	}

	writeInternalError(w, r, err)
}
