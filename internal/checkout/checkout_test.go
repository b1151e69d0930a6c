package checkout_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-checkout/internal/checkout"
	"github.com/noah-isme/pos-checkout/internal/pricing"
)

var (
	itemA = pricing.NewStoreItem("A", decimal.NewFromInt(50))
	itemB = pricing.NewStoreItem("B", decimal.NewFromInt(30))
	itemC = pricing.NewStoreItem("C", decimal.NewFromInt(20))
	itemD = pricing.NewStoreItem("D", decimal.NewFromInt(15))
)

func standardRules() []pricing.Rule {
	return []pricing.Rule{
		pricing.MustRule(3, "A", "A", decimal.NewFromInt(30), pricing.Unlimited()),
		pricing.MustRule(2, "B", "B", decimal.NewFromInt(15), pricing.Unlimited()),
	}
}

func price(t *testing.T, rules []pricing.Rule, goods string) decimal.Decimal {
	t.Helper()
	byName := map[rune]pricing.StoreItem{'A': itemA, 'B': itemB, 'C': itemC, 'D': itemD}
	co := checkout.New(rules)
	for _, r := range goods {
		item, ok := byName[r]
		require.True(t, ok, "unknown item %q", r)
		co.Scan(item)
	}
	return co.TotalCost()
}

func requireTotal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.NewFromInt(want)), "expected total %d, got %s", want, got)
}

func TestTotals(t *testing.T) {
	cases := []struct {
		goods string
		want  int64
	}{
		{"", 0},
		{"A", 50},
		{"AB", 80},
		{"CDBA", 115},
		{"AA", 100},
		{"AAA", 130},
		{"AAAA", 180},
		{"AAAAA", 230},
		{"AAAAAA", 260},
		{"AAAB", 160},
		{"AAABB", 175},
		{"AAABBD", 190},
		{"DABABA", 190},
		{"DBBAAA", 190},
	}
	for _, tc := range cases {
		t.Run(tc.goods, func(t *testing.T) {
			requireTotal(t, tc.want, price(t, standardRules(), tc.goods))
		})
	}
}

func TestTotalsWithoutRulesAreOrderInsensitive(t *testing.T) {
	for _, goods := range []string{"ABCD", "DCBA", "BADC", "CADB"} {
		requireTotal(t, 115, price(t, nil, goods))
	}
}

func TestIncremental(t *testing.T) {
	co := checkout.New(standardRules())
	requireTotal(t, 0, co.TotalCost())

	steps := []struct {
		item pricing.StoreItem
		want int64
	}{
		{itemA, 50},
		{itemB, 80},
		{itemA, 130},
		{itemA, 160},
		{itemB, 175},
	}
	for _, step := range steps {
		co.Scan(step.item)
		requireTotal(t, step.want, co.TotalCost())
	}
}

func TestScanReturnsChargedLine(t *testing.T) {
	co := checkout.New(standardRules())
	co.Scan(itemA)
	co.Scan(itemA)
	line := co.Scan(itemA)
	require.Equal(t, "A", line.Name())
	require.True(t, line.Discounted())
	require.True(t, line.ActualCost.Equal(decimal.NewFromInt(30)))
	require.Equal(t, 3, co.Count("A"))
	require.Equal(t, 3, co.Len())
}

func TestUnscan(t *testing.T) {
	co := checkout.New(standardRules())

	co.Scan(itemA)
	requireTotal(t, 50, co.TotalCost())
	require.NoError(t, co.Unscan(itemA))
	requireTotal(t, 0, co.TotalCost())

	co.Scan(itemA)
	co.Scan(itemB)
	co.Scan(itemA)
	require.NoError(t, co.Unscan(itemA))
	requireTotal(t, 80, co.TotalCost())

	lines := co.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, "A", lines[0].Name())
	require.Equal(t, "B", lines[1].Name())
}

func TestUnscanRemovesDiscountedLastLine(t *testing.T) {
	co := checkout.New(standardRules())
	co.Scan(itemA)
	co.Scan(itemA)
	co.Scan(itemA)
	requireTotal(t, 130, co.TotalCost())

	require.NoError(t, co.Unscan(itemA))
	requireTotal(t, 100, co.TotalCost())

	co.Scan(itemA)
	requireTotal(t, 130, co.TotalCost())
}

func TestUnscanKeepsEarlierPrices(t *testing.T) {
	co := checkout.New(standardRules())
	for i := 0; i < 4; i++ {
		co.Scan(itemA)
	}
	requireTotal(t, 180, co.TotalCost())
	require.NoError(t, co.Unscan(itemA))
	requireTotal(t, 130, co.TotalCost())
	require.True(t, co.Lines()[2].Discounted())
}

func TestUnscanError(t *testing.T) {
	co := checkout.New(standardRules())
	co.Scan(itemA)

	err := co.Unscan(itemC)
	require.Error(t, err)
	require.True(t, errors.Is(err, checkout.ErrNotFound))
	require.Contains(t, err.Error(), `"C"`)
	requireTotal(t, 50, co.TotalCost())
	require.Equal(t, 1, co.Len())
}

func TestUnscanMatchesByName(t *testing.T) {
	co := checkout.New(nil)
	co.Scan(itemA)
	require.NoError(t, co.Unscan(pricing.NewStoreItem("A", decimal.NewFromInt(999))))
	require.Zero(t, co.Len())
}

func TestDiscountLimits(t *testing.T) {
	limited := []pricing.Rule{
		pricing.MustRule(3, "A", "A", decimal.NewFromInt(30), pricing.LimitOf(1)),
		pricing.MustRule(2, "B", "B", decimal.NewFromInt(15), pricing.LimitOf(2)),
	}
	co := checkout.New(limited)

	for i := 0; i < 6; i++ {
		co.Scan(itemA)
	}
	requireTotal(t, 280, co.TotalCost())

	for i := 0; i < 6; i++ {
		co.Scan(itemB)
	}
	requireTotal(t, 430, co.TotalCost())
}

func TestTotalCostIsStable(t *testing.T) {
	co := checkout.New(standardRules())
	co.Scan(itemA)
	co.Scan(itemB)
	first := co.TotalCost()
	for i := 0; i < 3; i++ {
		require.True(t, first.Equal(co.TotalCost()))
	}
}

func TestRulesAreCopied(t *testing.T) {
	rules := standardRules()
	co := checkout.New(rules)
	rules[0] = pricing.MustRule(1, "A", "A", decimal.NewFromInt(1), pricing.Unlimited())
	co.Scan(itemA)
	requireTotal(t, 50, co.TotalCost())
	require.Len(t, co.Rules(), 2)
}
