package order

import "strings"

// Delivery field keys, in summary order.
const (
	FieldFullName     = "full_name"
	FieldEmail        = "email"
	FieldPhone        = "phone"
	FieldAddress      = "address"
	FieldNeighborhood = "neighborhood"
	FieldCity         = "city"
	FieldZipCode      = "zip_code"
	FieldNotes        = "notes"
)

// DeliveryInfo holds where and to whom the order is delivered.
type DeliveryInfo struct {
	FullName     string
	Email        string
	Phone        string
	Address      string
	Neighborhood string
	City         string
	ZipCode      string
	Notes        string
}

// Field is one labelled delivery value.
type Field struct {
	Key   string
	Label string
	Value string
}

// Fields returns every delivery field in the fixed summary order.
func (i DeliveryInfo) Fields() []Field {
	return []Field{
		{Key: FieldFullName, Label: "👤 Name", Value: i.FullName},
		{Key: FieldEmail, Label: "📧 Email", Value: i.Email},
		{Key: FieldPhone, Label: "📞 Phone", Value: i.Phone},
		{Key: FieldAddress, Label: "📍 Address", Value: i.Address},
		{Key: FieldNeighborhood, Label: "🏘️ Neighborhood", Value: i.Neighborhood},
		{Key: FieldCity, Label: "🏙️ City", Value: i.City},
		{Key: FieldZipCode, Label: "📮 Zip Code", Value: i.ZipCode},
		{Key: FieldNotes, Label: "📝 Notes", Value: i.Notes},
	}
}

// Trimmed returns a copy with surrounding whitespace removed from every
// field.
func (i DeliveryInfo) Trimmed() DeliveryInfo {
	return DeliveryInfo{
		FullName:     strings.TrimSpace(i.FullName),
		Email:        strings.TrimSpace(i.Email),
		Phone:        strings.TrimSpace(i.Phone),
		Address:      strings.TrimSpace(i.Address),
		Neighborhood: strings.TrimSpace(i.Neighborhood),
		City:         strings.TrimSpace(i.City),
		ZipCode:      strings.TrimSpace(i.ZipCode),
		Notes:        strings.TrimSpace(i.Notes),
	}
}

// IsField reports whether key names a delivery field.
func IsField(key string) bool {
	for _, f := range (DeliveryInfo{}).Fields() {
		if f.Key == key {
			return true
		}
	}
	return false
}
