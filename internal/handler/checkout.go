package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro-kart/internal/checkout"
	"github.com/xenking/bistro-kart/internal/domain/cart"
	"github.com/xenking/bistro-kart/internal/domain/order"
)

func decodeCheckout(data []byte) (checkout.SubmitRequest, error) {
	var req checkout.SubmitRequest
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "payment":
			var err error
			req.Payment, err = decodeString(d)
			return err
		case "delivery":
			return d.Obj(func(d *jx.Decoder, field string) error {
				var dst *string
				info := &req.Delivery
				switch field {
				case order.FieldFullName:
					dst = &info.FullName
				case order.FieldEmail:
					dst = &info.Email
				case order.FieldPhone:
					dst = &info.Phone
				case order.FieldAddress:
					dst = &info.Address
				case order.FieldNeighborhood:
					dst = &info.Neighborhood
				case order.FieldCity:
					dst = &info.City
				case order.FieldZipCode:
					dst = &info.ZipCode
				case order.FieldNotes:
					dst = &info.Notes
				default:
					return d.Skip()
				}
				v, err := decodeString(d)
				*dst = v
				return err
			})
		default:
			return d.Skip()
		}
	})
	return req, err
}

// Checkout formats the visitor's cart into an order summary and returns the
// messaging link that sends it. The cart is kept.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	data, err := h.readBody(w, r)
	if err != nil {
		writeBadBody(w, err)
		return
	}
	req, err := decodeCheckout(data)
	if err != nil {
		writeBadBody(w, err)
		return
	}

	var lines []cart.Line
	if sess, ok := h.existingSession(r); ok {
		sess.Do(func(c *cart.Cart) { lines = c.Lines() })
	}

	res, err := h.checkout.Submit(r.Context(), lines, req)
	if err != nil {
		mapCheckoutError(w, r, err)
		return
	}

	s := res.Summary
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("summary")
		e.Str(s.Text)
		e.FieldStart("link")
		e.Str(res.Link)
		e.FieldStart("payment")
		e.Str(string(res.Payment))
		e.FieldStart("subtotal")
		e.Str(s.Subtotal.StringFixed(2))
		e.FieldStart("delivery_fee")
		e.Str(s.DeliveryFee.StringFixed(2))
		e.FieldStart("tax")
		e.Str(s.Tax.StringFixed(2))
		e.FieldStart("total")
		e.Str(s.Total.StringFixed(2))
		e.ObjEnd()
	})
}

// mapCheckoutError converts checkout errors to responses.
func mapCheckoutError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, checkout.ErrEmptyCart) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if errors.Is(err, order.ErrUnknownPaymentMethod) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var mfErr *checkout.MissingFieldsError
	if errors.As(err, &mfErr) {
		writeError(w, http.StatusUnprocessableEntity, mfErr.Error(), mfErr.Fields...)
		return
	}

	writeInternalError(w, r, err)
}
