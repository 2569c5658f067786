package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"cafestock/pkg/stock"
)

// MaxQuantity caps every stored quantity so derived figures stay in range.
var MaxQuantity = decimal.NewFromInt(1_000_000_000)

// Item is one tracked material. Current, Threshold and DailyUse are never
// negative and never exceed MaxQuantity.
type Item struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Current   decimal.Decimal `json:"current"`
	Threshold decimal.Decimal `json:"threshold"`
	Unit      string          `json:"unit"`
	Supplier  string          `json:"supplier"`
	DailyUse  decimal.Decimal `json:"daily_use"`
	Note      string          `json:"note"`
	// Ordered is set once a reorder went out and cleared when stock recovers above the threshold.
	Ordered bool `json:"ordered"`
}

// Status is shorthand for classifying the item against its own threshold.
func (it Item) Status() stock.Status {
	return stock.Classify(it.Current, it.Threshold)
}

// Evaluate derives the status, badge and days of supply for the item.
func (it Item) Evaluate() stock.Evaluation {
	return stock.Evaluate(it.Current, it.Threshold, it.DailyUse)
}

// withCurrent sets a new stock level and clears the ordered flag once the
// item is back above its reorder point.
func (it Item) withCurrent(current decimal.Decimal) Item {
	it.Current = current
	if current.GreaterThan(it.Threshold) {
		it.Ordered = false
	}
	return it
}

func checkQuantity(what string, value decimal.Decimal) error {
	if value.IsNegative() {
		return newValidationError(what + " cannot be negative")
	}
	if value.GreaterThan(MaxQuantity) {
		return newValidationError(fmt.Sprintf("%s cannot exceed %s", what, MaxQuantity))
	}
	return nil
}

// Supplier is a directory entry describing how a vendor takes orders.
type Supplier struct {
	Name    string `json:"name"`
	Method  string `json:"method"`
	Contact string `json:"contact"`
}

// Summary counts items per status band.
type Summary struct {
	Alert   int `json:"alert"`
	Warning int `json:"warning"`
	OK      int `json:"ok"`
	Total   int `json:"total"`
}

// Summarize tallies items by status.
func Summarize(items []Item) Summary {
	var sum Summary
	for _, it := range items {
		switch it.Status() {
		case stock.Alert:
			sum.Alert++
		case stock.Warning:
			sum.Warning++
		default:
			sum.OK++
		}
	}
	sum.Total = len(items)
	return sum
}

// Filter keeps the items in the given band, preserving order.
func Filter(items []Item, status stock.Status) []Item {
	var out []Item
	for _, it := range items {
		if it.Status() == status {
			out = append(out, it)
		}
	}
	return out
}

// Categories lists the distinct categories in the order they first appear.
func Categories(items []Item) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	return out
}

// InCategory keeps the items of one category. An empty category keeps everything.
func InCategory(items []Item, category string) []Item {
	if category == "" {
		return items
	}
	var out []Item
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}
