// Package order renders a cart into the order summary handed to the
// restaurant's messaging channel.
package order

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-kart/internal/domain/cart"
)

// Charges are additive terms layered on top of the line subtotals. The
// zero value adds nothing.
type Charges struct {
	// DeliveryFee is a flat fee per order.
	DeliveryFee decimal.Decimal
	// TaxRate is a fraction of the subtotal, e.g. 0.08 for 8%.
	TaxRate decimal.Decimal
}

// IsZero reports whether the charges add nothing to the total.
func (c Charges) IsZero() bool {
	return c.DeliveryFee.IsZero() && c.TaxRate.IsZero()
}

// Summary is the formatted order together with the amounts it shows.
// Amounts are unrounded; Text renders them with two decimal places.
type Summary struct {
	Text        string
	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// Formatter renders order summaries. The zero value uses "$" and no
// charges.
type Formatter struct {
	Currency string
	Charges  Charges
}

// Format renders lines, delivery information and payment method into one
// deterministic text block. Lines keep cart order. Empty delivery fields
// are omitted. The caller is responsible for validating the delivery
// information beforehand.
func (f Formatter) Format(lines []cart.Line, info DeliveryInfo, method PaymentMethod) Summary {
	var (
		b        strings.Builder
		subtotal = decimal.Zero
	)
	writeLine := func(parts ...string) {
		for _, p := range parts {
			b.WriteString(p)
		}
		b.WriteByte('\n')
	}

	writeLine("🍽️ *NEW ORDER*")
	writeLine()
	writeLine("📋 *ORDER SUMMARY:*")
	for _, l := range lines {
		sub := l.Subtotal()
		subtotal = subtotal.Add(sub)

		writeLine("• ", l.Name, " x", strconv.Itoa(l.Quantity), " - ", f.money(sub))
		if len(l.Extras) > 0 {
			writeLine("  ➕ Extras: ", strings.Join(l.ExtraNames(), ", "))
		}
		if l.Note != "" {
			writeLine("  📝 Note: ", l.Note)
		}
	}

	s := Summary{
		Subtotal:    subtotal,
		DeliveryFee: f.Charges.DeliveryFee,
		Tax:         subtotal.Mul(f.Charges.TaxRate),
	}
	s.Total = s.Subtotal.Add(s.DeliveryFee).Add(s.Tax)

	writeLine()
	if !f.Charges.IsZero() {
		writeLine("💰 Subtotal: ", f.money(s.Subtotal))
		writeLine("🚚 Delivery Fee: ", f.money(s.DeliveryFee))
		writeLine("📊 Tax: ", f.money(s.Tax))
	}
	writeLine("*TOTAL: ", f.money(s.Total), "*")

	writeLine()
	writeLine("🚚 *DELIVERY INFORMATION:*")
	for _, field := range info.Fields() {
		if field.Value == "" {
			continue
		}
		writeLine(field.Label, ": ", field.Value)
	}

	writeLine()
	writeLine("💳 *PAYMENT METHOD:*")
	b.WriteString(method.Label())

	s.Text = b.String()
	return s
}

func (f Formatter) money(v decimal.Decimal) string {
	cur := f.Currency
	if cur == "" {
		cur = "$"
	}
	return cur + v.StringFixed(2)
}
