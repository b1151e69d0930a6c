package checkout

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/shopspring/decimal"
)

// LineSummary is the reporting view of a CartLine.
type LineSummary struct {
	Item       string          `json:"item"`
	BaseCost   decimal.Decimal `json:"baseCost"`
	ActualCost decimal.Decimal `json:"actualCost"`
	Discounted bool            `json:"discounted"`
}

// Summary lists the current lines and their total.
type Summary struct {
	Lines []LineSummary   `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// Summary snapshots the session for reporting.
func (c *Checkout) Summary() Summary {
	out := Summary{Lines: make([]LineSummary, 0, len(c.lines)), Total: c.TotalCost()}
	for _, l := range c.lines {
		out.Lines = append(out.Lines, LineSummary{
			Item:       l.Name(),
			BaseCost:   l.Item.BaseCost,
			ActualCost: l.ActualCost,
			Discounted: l.Discounted(),
		})
	}
	return out
}

// WriteSummary renders a receipt of the session to w.
func (c *Checkout) WriteSummary(w io.Writer) error {
	return c.Summary().Write(w)
}

// Write renders the summary as an aligned plain-text receipt.
func (s Summary) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, l := range s.Lines {
		note := ""
		if l.Discounted {
			note = "was " + l.BaseCost.StringFixed(2)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", l.Item, l.ActualCost.StringFixed(2), note); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(tw, "Total cost:\t%s\t\n", s.Total.StringFixed(2)); err != nil {
		return err
	}
	return tw.Flush()
}
