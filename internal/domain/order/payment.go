package order

import (
	"strings"

	"github.com/go-faster/errors"
)

// ErrUnknownPaymentMethod is returned for a payment method outside the
// supported set.
var ErrUnknownPaymentMethod = errors.New("unknown payment method")

// PaymentMethod enumerates how the customer pays on delivery.
type PaymentMethod string

const (
	// PaymentCard is a credit or debit card presented to the courier.
	PaymentCard PaymentMethod = "card"
	// PaymentCash is cash on delivery.
	PaymentCash PaymentMethod = "cash"
	// PaymentPix is an instant bank transfer.
	PaymentPix PaymentMethod = "pix"
)

// PaymentMethods lists every supported method in display order.
var PaymentMethods = []PaymentMethod{PaymentCard, PaymentCash, PaymentPix}

// ParsePaymentMethod parses a method name case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case PaymentCard, PaymentCash, PaymentPix:
		return m, nil
	default:
		return "", errors.Wrapf(ErrUnknownPaymentMethod, "%q", s)
	}
}

// Label returns the display label used in the order summary.
func (m PaymentMethod) Label() string {
	switch m {
	case PaymentCard:
		return "💳 Credit/Debit Card"
	case PaymentCash:
		return "💵 Cash on Delivery"
	case PaymentPix:
		return "⚡ PIX (instant bank transfer)"
	default:
		return string(m)
	}
}
