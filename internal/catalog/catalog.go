package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/pos-checkout/internal/pricing"
)

// ErrUnknownItem is returned when a lookup names an item outside the catalog.
var ErrUnknownItem = errors.New("unknown catalog item")

// Catalog is the read-only set of store items and the pricing rules that
// apply to them.
type Catalog struct {
	items map[string]pricing.StoreItem
	order []string
	rules []pricing.Rule
}

type fileItem struct {
	Name     string  `koanf:"name" validate:"required"`
	BaseCost float64 `koanf:"base_cost"`
}

type fileRule struct {
	Frequency int     `koanf:"frequency"`
	Item      string  `koanf:"item"`
	Target    string  `koanf:"target"`
	NewCost   float64 `koanf:"new_cost"`
	Limit     *int    `koanf:"limit"`
}

type fileDoc struct {
	Items []fileItem `koanf:"items" validate:"required,dive"`
	Rules []fileRule `koanf:"rules"`
}

// Load reads a JSON catalog file.
func Load(path string) (*Catalog, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("%w: catalog path is required", pricing.ErrInvalidConfig)
	}
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), json.Parser()); err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	var doc fileDoc
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	if err := pricing.Validator().Struct(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", pricing.ErrInvalidConfig, err)
	}

	items := make([]pricing.StoreItem, 0, len(doc.Items))
	for _, it := range doc.Items {
		items = append(items, pricing.NewStoreItem(strings.TrimSpace(it.Name), decimal.NewFromFloat(it.BaseCost)))
	}
	rules := make([]pricing.Rule, 0, len(doc.Rules))
	var errs []error
	for i, r := range doc.Rules {
		limit := pricing.Unlimited()
		if r.Limit != nil {
			limit = pricing.LimitOf(*r.Limit)
		}
		target := strings.TrimSpace(r.Target)
		if target == "" {
			target = strings.TrimSpace(r.Item)
		}
		rule, err := pricing.NewRule(r.Frequency, strings.TrimSpace(r.Item), target, decimal.NewFromFloat(r.NewCost), limit)
		if err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		rules = append(rules, rule)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return New(items, rules)
}

// New builds a catalog in memory. Item names must be unique and every rule
// must reference a known item.
func New(items []pricing.StoreItem, rules []pricing.Rule) (*Catalog, error) {
	c := &Catalog{
		items: make(map[string]pricing.StoreItem, len(items)),
		order: make([]string, 0, len(items)),
	}
	var errs []error
	for _, it := range items {
		if it.Name == "" {
			errs = append(errs, errors.New("item name is required"))
			continue
		}
		if _, dup := c.items[it.Name]; dup {
			errs = append(errs, fmt.Errorf("duplicate item %q", it.Name))
			continue
		}
		c.items[it.Name] = it
		c.order = append(c.order, it.Name)
	}
	for i, r := range rules {
		if err := r.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("rule %d: %w", i, err))
			continue
		}
		if _, ok := c.items[r.ItemName]; !ok {
			errs = append(errs, fmt.Errorf("rule %d: item %q not in catalog", i, r.ItemName))
			continue
		}
		c.rules = append(c.rules, r)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", pricing.ErrInvalidConfig, errors.Join(errs...))
	}
	return c, nil
}

// Item looks up a store item by name.
func (c *Catalog) Item(name string) (pricing.StoreItem, error) {
	if c != nil {
		if it, ok := c.items[name]; ok {
			return it, nil
		}
	}
	return pricing.StoreItem{}, fmt.Errorf("%q: %w", name, ErrUnknownItem)
}

// Items returns the store items in catalog order.
func (c *Catalog) Items() []pricing.StoreItem {
	if c == nil {
		return nil
	}
	out := make([]pricing.StoreItem, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.items[name])
	}
	return out
}

// Rules returns a copy of the pricing rules in priority order.
func (c *Catalog) Rules() []pricing.Rule {
	if c == nil {
		return nil
	}
	return append([]pricing.Rule(nil), c.rules...)
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}
