package order

import (
	"net/url"
	"strings"
)

// DefaultChannelURL is the WhatsApp send endpoint.
const DefaultChannelURL = "https://api.whatsapp.com/send"

// Channel describes the external messaging deep link the order is sent
// through.
type Channel struct {
	// BaseURL is the endpoint; DefaultChannelURL when empty.
	BaseURL string
	// Phone is the restaurant's number in international format, digits only.
	Phone string
}

// Link returns the deep link carrying text as its prefilled message.
func (c Channel) Link(text string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultChannelURL
	}

	var b strings.Builder
	b.WriteString(base)
	if strings.Contains(base, "?") {
		b.WriteByte('&')
	} else {
		b.WriteByte('?')
	}
	if c.Phone != "" {
		b.WriteString("phone=")
		b.WriteString(url.QueryEscape(c.Phone))
		b.WriteByte('&')
	}
	b.WriteString("text=")
	b.WriteString(EncodeComponent(text))
	return b.String()
}

// EncodeComponent percent-encodes s for use as a query value, escaping
// spaces as %20 rather than "+".
func EncodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
