package cart

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-kart/internal/domain/menu"
)

type cartTestContext struct {
	entries map[string]*menu.Entry
	cart    *Cart
}

func (c *cartTestContext) reset() {
	c.entries = make(map[string]*menu.Entry)
	c.cart = New(nil)
}

func (c *cartTestContext) entry(id string) (*menu.Entry, error) {
	e, ok := c.entries[id]
	if !ok {
		return nil, fmt.Errorf("unknown entry %q", id)
	}
	return e, nil
}

func (c *cartTestContext) theMenuEntryNamedPriced(id, name, price string) error {
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	c.entries[id] = &menu.Entry{ID: id, Name: name, Price: p}
	return nil
}

func (c *cartTestContext) theEntryOffersExtraNamedPriced(entryID, id, name, price string) error {
	e, err := c.entry(entryID)
	if err != nil {
		return err
	}
	p, err := decimal.NewFromString(price)
	if err != nil {
		return err
	}
	e.Extras = append(e.Extras, menu.Extra{ID: id, Name: name, Price: p})
	return nil
}

func (c *cartTestContext) iAddTimes(id string, n int) error {
	e, err := c.entry(id)
	if err != nil {
		return err
	}
	for range n {
		c.cart.Add(Request{Entry: *e})
	}
	return nil
}

func (c *cartTestContext) iAddWithExtras(id, extras string) error {
	e, err := c.entry(id)
	if err != nil {
		return err
	}
	req := Request{Entry: *e}
	for _, xid := range strings.Split(extras, ",") {
		x, ok := e.Extra(strings.TrimSpace(xid))
		if !ok {
			return fmt.Errorf("entry %q has no extra %q", id, xid)
		}
		req.Extras = append(req.Extras, x)
	}
	c.cart.Add(req)
	return nil
}

func (c *cartTestContext) iAddWithNote(id, note string) error {
	e, err := c.entry(id)
	if err != nil {
		return err
	}
	c.cart.Add(Request{Entry: *e, Note: note})
	return nil
}

func (c *cartTestContext) line(n int) (Line, error) {
	lines := c.cart.Lines()
	if n < 1 || n > len(lines) {
		return Line{}, fmt.Errorf("cart has %d lines, no line %d", len(lines), n)
	}
	return lines[n-1], nil
}

func (c *cartTestContext) iSetTheQuantityOfLineTo(n, quantity int) error {
	l, err := c.line(n)
	if err != nil {
		return err
	}
	c.cart.SetQuantity(l.Ref, quantity)
	return nil
}

func (c *cartTestContext) iRemoveAnUnknownLine() error {
	c.cart.Remove(LineRef(1 << 40))
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.cart.Clear()
	return nil
}

func (c *cartTestContext) theCartHasLines(n int) error {
	if got := c.cart.Len(); got != n {
		return fmt.Errorf("expected %d lines, got %d", n, got)
	}
	return nil
}

func (c *cartTestContext) lineHasQuantityAndSubtotal(n, quantity int, subtotal string) error {
	l, err := c.line(n)
	if err != nil {
		return err
	}
	if l.Quantity != quantity {
		return fmt.Errorf("line %d: expected quantity %d, got %d", n, quantity, l.Quantity)
	}
	if got := l.Subtotal().StringFixed(2); got != subtotal {
		return fmt.Errorf("line %d: expected subtotal %s, got %s", n, subtotal, got)
	}
	return nil
}

func (c *cartTestContext) theCartTotalsAreItemsFor(count int, price string) error {
	t := c.cart.Totals()
	if t.Count != count {
		return fmt.Errorf("expected %d items, got %d", count, t.Count)
	}
	if got := t.Price.StringFixed(2); got != price {
		return fmt.Errorf("expected total %s, got %s", price, got)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^the menu entry "([^"]*)" named "([^"]*)" priced ([\d.]+)$`, tc.theMenuEntryNamedPriced)
	ctx.Step(`^the entry "([^"]*)" offers extra "([^"]*)" named "([^"]*)" priced ([\d.]+)$`, tc.theEntryOffersExtraNamedPriced)

	// When steps
	ctx.Step(`^I add "([^"]*)" (\d+) times$`, tc.iAddTimes)
	ctx.Step(`^I add "([^"]*)" with extras "([^"]*)"$`, tc.iAddWithExtras)
	ctx.Step(`^I add "([^"]*)" with note "([^"]*)"$`, tc.iAddWithNote)
	ctx.Step(`^I set the quantity of line (\d+) to (\d+)$`, tc.iSetTheQuantityOfLineTo)
	ctx.Step(`^I remove an unknown line$`, tc.iRemoveAnUnknownLine)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)

	// Then steps
	ctx.Step(`^the cart has (\d+) lines?$`, tc.theCartHasLines)
	ctx.Step(`^line (\d+) has quantity (\d+) and subtotal "([^"]*)"$`, tc.lineHasQuantityAndSubtotal)
	ctx.Step(`^the cart totals are (\d+) items for "([^"]*)"$`, tc.theCartTotalsAreItemsFor)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
