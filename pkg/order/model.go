package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contact methods a supplier can take orders through.
const (
	MethodEmail = "email"
	MethodLine  = "line"
	MethodWeb   = "web"
)

// Line is one material on a purchase order.
type Line struct {
	ItemID   int64           `json:"item_id"`
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Unit     string          `json:"unit"`
	Note     string          `json:"note,omitempty"`
}

// Draft is a ready-to-send reorder for a single supplier.
type Draft struct {
	Supplier  string `json:"supplier"`
	Method    string `json:"method"`
	Contact   string `json:"contact"`
	Lines     []Line `json:"lines"`
	Message   string `json:"message"`
	MailtoURL string `json:"mailto_url,omitempty"`
}

// Order records a draft that was actually sent.
type Order struct {
	ID        int64     `json:"id"`
	Supplier  string    `json:"supplier"`
	Method    string    `json:"method"`
	Contact   string    `json:"contact"`
	Lines     []Line    `json:"lines"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
