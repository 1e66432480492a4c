package checkout

import (
	"context"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/bistro-kart/internal/domain/cart"
	"github.com/xenking/bistro-kart/internal/domain/order"
)

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	svc, err := NewService(cfg, noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	return svc
}

func testLines() []cart.Line {
	return []cart.Line{{
		Ref:      1,
		EntryID:  "burger-3",
		Name:     "X-Tudo",
		Price:    decimal.RequireFromString("16.99"),
		Quantity: 2,
	}}
}

func validDelivery() order.DeliveryInfo {
	return order.DeliveryInfo{
		FullName:     " Maria Silva ",
		Phone:        "98 98207-4378",
		Address:      "Rua das Flores, 120",
		Neighborhood: "Centro",
		City:         "São Luís",
	}
}

func TestSubmit(t *testing.T) {
	svc := newTestService(t, Config{Channel: order.Channel{Phone: "5598982074378"}})

	res, err := svc.Submit(context.Background(), testLines(), SubmitRequest{
		Delivery: validDelivery(),
		Payment:  "cash",
	})
	require.NoError(t, err)

	assert.Equal(t, order.PaymentCash, res.Payment)
	assert.Equal(t, "33.98", res.Summary.Total.StringFixed(2))
	assert.Contains(t, res.Summary.Text, "👤 Name: Maria Silva\n")

	u, err := url.Parse(res.Link)
	require.NoError(t, err)
	assert.Equal(t, res.Summary.Text, u.Query().Get("text"))
}

func TestSubmit_EmptyCart(t *testing.T) {
	svc := newTestService(t, Config{})

	_, err := svc.Submit(context.Background(), nil, SubmitRequest{Delivery: validDelivery(), Payment: "card"})
	require.ErrorIs(t, err, ErrEmptyCart)
}

func TestSubmit_UnknownPayment(t *testing.T) {
	svc := newTestService(t, Config{})

	_, err := svc.Submit(context.Background(), testLines(), SubmitRequest{Delivery: validDelivery(), Payment: "cheque"})
	require.ErrorIs(t, err, order.ErrUnknownPaymentMethod)
}

func TestSubmit_MissingFields(t *testing.T) {
	tests := []struct {
		name     string
		required []string
		delivery order.DeliveryInfo
		want     []string
	}{
		{
			name:     "default fields, whitespace only counts as empty",
			delivery: order.DeliveryInfo{FullName: "Maria", Phone: "   ", City: "São Luís"},
			want:     []string{order.FieldPhone, order.FieldAddress, order.FieldNeighborhood},
		},
		{
			name:     "configured fields",
			required: []string{order.FieldEmail, order.FieldZipCode},
			delivery: validDelivery(),
			want:     []string{order.FieldEmail, order.FieldZipCode},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, Config{RequiredFields: tt.required})

			_, err := svc.Submit(context.Background(), testLines(), SubmitRequest{Delivery: tt.delivery, Payment: "pix"})

			var mfErr *MissingFieldsError
			require.ErrorAs(t, err, &mfErr)
			assert.Equal(t, tt.want, mfErr.Fields)
		})
	}
}

func TestSubmit_NoRequiredFields(t *testing.T) {
	svc := newTestService(t, Config{RequiredFields: []string{}})

	res, err := svc.Submit(context.Background(), testLines(), SubmitRequest{Payment: "card"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Link)
}

func TestNewService_UnknownField(t *testing.T) {
	_, err := NewService(Config{RequiredFields: []string{"country"}}, noop.NewMeterProvider().Meter("test"))
	require.Error(t, err)
}
