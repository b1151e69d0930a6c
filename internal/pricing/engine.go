package pricing

import "github.com/shopspring/decimal"

// Match returns the index of the first rule that fires for the count-th unit
// of name. Rules are checked in order and only one rule applies per unit.
func Match(rules []Rule, name string, count int) (int, bool) {
	for i, r := range rules {
		if r.Applies(name, count) {
			return i, true
		}
	}
	return -1, false
}

// Price computes the charge for the count-th scanned unit of item.
func Price(rules []Rule, item StoreItem, count int) decimal.Decimal {
	if i, ok := Match(rules, item.Name, count); ok {
		return rules[i].NewCost
	}
	return item.BaseCost
}
