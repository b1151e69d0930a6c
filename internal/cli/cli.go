// Package cli scans a string of goods against a catalog and prints the result.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/noah-isme/pos-checkout/internal/catalog"
	"github.com/noah-isme/pos-checkout/internal/checkout"
)

// Config holds the parsed command line.
type Config struct {
	CatalogPath string
	Summary     bool
	Goods       string
}

// ParseConfig parses flags into a Config. The first positional argument is the
// goods string.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := Config{CatalogPath: "config/catalog.json"}
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "path to the catalog JSON file")
	fs.BoolVar(&cfg.Summary, "summary", false, "print every line instead of only the total")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if fs.NArg() > 1 {
		return Config{}, fmt.Errorf("expected one goods argument, got %d", fs.NArg())
	}
	cfg.Goods = fs.Arg(0)
	return cfg, nil
}

// ParseGoods splits goods into item names. A comma-separated list yields its
// trimmed elements; otherwise every character is one item.
func ParseGoods(goods string) []string {
	goods = strings.TrimSpace(goods)
	if goods == "" {
		return nil
	}
	if strings.Contains(goods, ",") {
		var names []string
		for _, part := range strings.Split(goods, ",") {
			if name := strings.TrimSpace(part); name != "" {
				names = append(names, name)
			}
		}
		return names
	}
	names := make([]string, 0, len(goods))
	for _, r := range goods {
		names = append(names, string(r))
	}
	return names
}

// Run loads the catalog, scans the goods and writes the total or summary.
func Run(cfg Config, out io.Writer, logger zerolog.Logger) error {
	if out == nil {
		return errors.New("output is required")
	}
	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	co := checkout.New(cat.Rules(), checkout.WithLogger(logger))
	for _, name := range ParseGoods(cfg.Goods) {
		item, err := cat.Item(name)
		if err != nil {
			return err
		}
		co.Scan(item)
	}
	if cfg.Summary {
		return co.WriteSummary(out)
	}
	_, err = fmt.Fprintln(out, co.TotalCost().StringFixed(2))
	return err
}
