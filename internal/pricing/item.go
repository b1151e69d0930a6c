package pricing

import "github.com/shopspring/decimal"

// StoreItem is an immutable catalog entry. Items are matched by Name only, so
// two StoreItem values with the same name are the same item to the rule engine.
type StoreItem struct {
	Name     string          `json:"name"`
	BaseCost decimal.Decimal `json:"baseCost"`
}

// NewStoreItem constructs a StoreItem. The cost is not validated.
func NewStoreItem(name string, baseCost decimal.Decimal) StoreItem {
	return StoreItem{Name: name, BaseCost: baseCost}
}
