// Package checkout is the submission step: it validates delivery details,
// renders the order summary and builds the messaging link the page opens.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xenking/bistro-kart/internal/domain/cart"
	"github.com/xenking/bistro-kart/internal/domain/order"
)

// ErrEmptyCart is returned when submitting a cart without lines.
var ErrEmptyCart = errors.New("cart is empty")

// DefaultRequiredFields are the delivery fields that must be filled in
// unless configured otherwise.
var DefaultRequiredFields = []string{
	order.FieldFullName,
	order.FieldPhone,
	order.FieldAddress,
	order.FieldNeighborhood,
	order.FieldCity,
}

// MissingFieldsError lists required delivery fields left empty.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("missing required fields: %s", strings.Join(e.Fields, ", "))
}

// Config holds the checkout presentation and validation settings.
type Config struct {
	Formatter      order.Formatter
	Channel        order.Channel
	RequiredFields []string
}

// SubmitRequest holds the checkout form.
type SubmitRequest struct {
	Delivery order.DeliveryInfo
	Payment  string
}

// Result is a submitted order ready to be sent through the channel.
type Result struct {
	Summary order.Summary
	Payment order.PaymentMethod
	Link    string
}

// Service validates and formats order submissions.
type Service struct {
	formatter order.Formatter
	channel   order.Channel
	required  []string
	submitted metric.Int64Counter
}

// NewService creates a checkout Service. Unknown required field keys are
// rejected.
func NewService(cfg Config, meter metric.Meter) (*Service, error) {
	required := cfg.RequiredFields
	if required == nil {
		required = DefaultRequiredFields
	}
	for _, key := range required {
		if !order.IsField(key) {
			return nil, errors.Errorf("unknown delivery field %q", key)
		}
	}

	submitted, err := meter.Int64Counter("bistro.checkout.submitted",
		metric.WithDescription("Orders handed to the messaging channel"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create checkout counter")
	}

	return &Service{
		formatter: cfg.Formatter,
		channel:   cfg.Channel,
		required:  required,
		submitted: submitted,
	}, nil
}

// Submit formats lines into an order summary and link. The lines are a
// snapshot; the cart is left untouched.
func (s *Service) Submit(ctx context.Context, lines []cart.Line, req SubmitRequest) (*Result, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	method, err := order.ParsePaymentMethod(req.Payment)
	if err != nil {
		return nil, err
	}

	info := req.Delivery.Trimmed()
	if err := s.validate(info); err != nil {
		return nil, err
	}

	summary := s.formatter.Format(lines, info, method)
	link := s.channel.Link(summary.Text)

	s.submitted.Add(ctx, 1, metric.WithAttributes(attribute.String("payment", string(method))))
	zctx.From(ctx).Info("Order submitted",
		zap.Int("lines", len(lines)),
		zap.String("total", summary.Total.StringFixed(2)),
		zap.String("payment", string(method)),
	)

	return &Result{
		Summary: summary,
		Payment: method,
		Link:    link,
	}, nil
}

func (s *Service) validate(info order.DeliveryInfo) error {
	values := make(map[string]string)
	for _, f := range info.Fields() {
		values[f.Key] = f.Value
	}

	var missing []string
	for _, key := range s.required {
		if values[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}
