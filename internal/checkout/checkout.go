package checkout

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-checkout/internal/pricing"
)

// ErrNotFound indicates the item to unscan has no line in the checkout.
var ErrNotFound = errors.New("item not in checkout")

// CartLine is a single scanned unit and the price charged for it.
type CartLine struct {
	Item       pricing.StoreItem
	ActualCost decimal.Decimal
}

// Name mirrors the scanned item's name.
func (l CartLine) Name() string { return l.Item.Name }

// Discounted reports whether a pricing rule changed the charged price.
func (l CartLine) Discounted() bool { return !l.ActualCost.Equal(l.Item.BaseCost) }

func (l CartLine) String() string {
	if l.Discounted() {
		return fmt.Sprintf("%s (base %s, discounted %s)", l.Name(), l.Item.BaseCost, l.ActualCost)
	}
	return fmt.Sprintf("%s (%s)", l.Name(), l.ActualCost)
}

// Option configures a Checkout.
type Option func(*Checkout)

// WithLogger attaches a logger for scan events.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Checkout) { c.log = logger }
}

// Checkout is one register session. It is not safe for concurrent use.
type Checkout struct {
	rules []pricing.Rule
	lines []CartLine
	log   zerolog.Logger
}

// New starts a session priced by rules. Rule order is priority order.
func New(rules []pricing.Rule, opts ...Option) *Checkout {
	c := &Checkout{
		rules: append([]pricing.Rule(nil), rules...),
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Scan prices the next unit of item against the quantity scanned so far and
// appends it to the session.
func (c *Checkout) Scan(item pricing.StoreItem) CartLine {
	count := c.Count(item.Name) + 1
	line := CartLine{Item: item, ActualCost: pricing.Price(c.rules, item, count)}
	c.lines = append(c.lines, line)
	c.log.Debug().
		Str("item", item.Name).
		Int("count", count).
		Str("cost", line.ActualCost.String()).
		Bool("discounted", line.Discounted()).
		Msg("scan")
	return line
}

// Unscan removes the most recently scanned line for item. Prices already
// assigned to the remaining lines are left as they are.
func (c *Checkout) Unscan(item pricing.StoreItem) error {
	for i := len(c.lines) - 1; i >= 0; i-- {
		if c.lines[i].Name() != item.Name {
			continue
		}
		removed := c.lines[i]
		c.lines = append(c.lines[:i], c.lines[i+1:]...)
		c.log.Debug().
			Str("item", item.Name).
			Str("cost", removed.ActualCost.String()).
			Msg("unscan")
		return nil
	}
	return fmt.Errorf("unscan %q: %w", item.Name, ErrNotFound)
}

// TotalCost sums the charged price of every current line.
func (c *Checkout) TotalCost() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.ActualCost)
	}
	return total
}

// Count returns how many lines carry the given item name.
func (c *Checkout) Count(name string) int {
	n := 0
	for _, l := range c.lines {
		if l.Name() == name {
			n++
		}
	}
	return n
}

// Len returns the number of scanned lines.
func (c *Checkout) Len() int { return len(c.lines) }

// Lines returns a copy of the lines in scan order.
func (c *Checkout) Lines() []CartLine {
	return append([]CartLine(nil), c.lines...)
}

// Rules returns a copy of the session's pricing rules.
func (c *Checkout) Rules() []pricing.Rule {
	return append([]pricing.Rule(nil), c.rules...)
}
