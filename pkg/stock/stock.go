// Package stock derives reorder status, display badges and supply estimates from
// raw stock figures. Every function here is pure and total.
package stock

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Status is the band an item falls into relative to its reorder threshold.
type Status string

const (
	Alert   Status = "alert"
	Warning Status = "warning"
	OK      Status = "ok"
)

// warningFactor widens the threshold into the warning band.
var warningFactor = decimal.RequireFromString("1.5")

// Classify returns alert at or below the threshold, warning up to and including
// one and a half times the threshold, ok above that.
func Classify(current, threshold decimal.Decimal) Status {
	if current.LessThanOrEqual(threshold) {
		return Alert
	}
	if current.LessThanOrEqual(threshold.Mul(warningFactor)) {
		return Warning
	}
	return OK
}

// Badge is the presentation tuple the page renders next to an item.
type Badge struct {
	Background string `json:"bg"`
	Text       string `json:"text"`
	Label      string `json:"label"`
}

var badges = map[Status]Badge{
	Alert:   {Background: "bg-pink-100", Text: "text-pink-700", Label: "🔴 要発注"},
	Warning: {Background: "bg-amber-100", Text: "text-amber-700", Label: "⚠️ 注意"},
	OK:      {Background: "bg-cyan-100", Text: "text-cyan-700", Label: "✅ OK"},
}

// BadgeFor looks the status up in the fixed badge table. Unknown statuses get the ok badge.
func BadgeFor(status Status) Badge {
	if b, ok := badges[status]; ok {
		return b
	}
	return badges[OK]
}

// Color is the solid accent used for progress bars.
func Color(status Status) string {
	switch status {
	case Alert:
		return "bg-pink-500"
	case Warning:
		return "bg-amber-400"
	default:
		return "bg-cyan-500"
	}
}

// Days is an estimated supply duration. The zero value is zero days; use
// Unbounded for items that are not being consumed.
type Days struct {
	n         int64
	unbounded bool
}

// Unbounded is the sentinel for items with no recorded consumption.
func Unbounded() Days { return Days{unbounded: true} }

// DaysOf wraps a whole number of days.
func DaysOf(n int64) Days { return Days{n: n} }

// IsUnbounded reports whether d is the sentinel.
func (d Days) IsUnbounded() bool { return d.unbounded }

// Value returns the number of days and false for the sentinel.
func (d Days) Value() (int64, bool) {
	if d.unbounded {
		return 0, false
	}
	return d.n, true
}

func (d Days) String() string {
	if d.unbounded {
		return "∞"
	}
	return strconv.FormatInt(d.n, 10)
}

// MarshalJSON writes a number, or the string "unbounded" for the sentinel.
func (d Days) MarshalJSON() ([]byte, error) {
	if d.unbounded {
		return json.Marshal("unbounded")
	}
	return json.Marshal(d.n)
}

// maxDays is the largest finite estimate; longer supplies saturate to it.
var maxDays = decimal.NewFromInt(math.MaxInt64)

// DaysRemaining is floor(current / dailyUse), or Unbounded when dailyUse <= 0.
// Quotients beyond math.MaxInt64 saturate instead of wrapping.
func DaysRemaining(current, dailyUse decimal.Decimal) Days {
	if !dailyUse.IsPositive() {
		return Unbounded()
	}
	// QuoRem at precision 0 truncates toward zero, which is floor for non-negative stock.
	q, _ := current.QuoRem(dailyUse, 0)
	if q.GreaterThan(maxDays) {
		return DaysOf(math.MaxInt64)
	}
	return DaysOf(q.IntPart())
}

// Evaluation is everything the rendering layer needs for one item.
type Evaluation struct {
	Status        Status `json:"status"`
	Badge         Badge  `json:"badge"`
	Color         string `json:"color"`
	DaysRemaining Days   `json:"days_remaining"`
}

// Evaluate runs all three derivations at once.
func Evaluate(current, threshold, dailyUse decimal.Decimal) Evaluation {
	status := Classify(current, threshold)
	return Evaluation{
		Status:        status,
		Badge:         BadgeFor(status),
		Color:         Color(status),
		DaysRemaining: DaysRemaining(current, dailyUse),
	}
}
