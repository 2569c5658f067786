package order

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"cafestock/pkg/inventory"
	"cafestock/pkg/stock"
)

const (
	messageHeader = "【発注お願いします】"
	messageFooter = "よろしくお願いいたします。"
	mailSubject   = "発注のお願い"
)

// reorderMargin is added on top of the shortfall so the next delivery lands above the threshold.
var reorderMargin = decimal.NewFromInt(5)

// Candidates returns items at or below their threshold that have not been reordered yet.
func Candidates(items []inventory.Item) []inventory.Item {
	var out []inventory.Item
	for _, item := range items {
		if item.Ordered {
			continue
		}
		if item.Status() == stock.Alert {
			out = append(out, item)
		}
	}
	return out
}

// SuggestedQuantity is threshold - current + 5.
func SuggestedQuantity(item inventory.Item) decimal.Decimal {
	return item.Threshold.Sub(item.Current).Add(reorderMargin)
}

// Drafts groups the reorder candidates by supplier, in the order suppliers first
// appear, and renders the message for each group.
func Drafts(items []inventory.Item, directory []inventory.Supplier) []Draft {
	contacts := make(map[string]inventory.Supplier, len(directory))
	for _, sup := range directory {
		contacts[sup.Name] = sup
	}

	var drafts []Draft
	position := map[string]int{}
	for _, item := range Candidates(items) {
		i, ok := position[item.Supplier]
		if !ok {
			sup := contacts[item.Supplier]
			drafts = append(drafts, Draft{
				Supplier: item.Supplier,
				Method:   sup.Method,
				Contact:  sup.Contact,
			})
			i = len(drafts) - 1
			position[item.Supplier] = i
		}
		drafts[i].Lines = append(drafts[i].Lines, Line{
			ItemID:   item.ID,
			Name:     item.Name,
			Quantity: SuggestedQuantity(item),
			Unit:     item.Unit,
			Note:     item.Note,
		})
	}

	for i := range drafts {
		drafts[i].Message = Message(drafts[i].Lines)
		if drafts[i].Method == MethodEmail && drafts[i].Contact != "" {
			drafts[i].MailtoURL = MailtoURL(drafts[i].Contact, drafts[i].Message)
		}
	}
	return drafts
}

// Message renders the order text sent to a supplier.
func Message(lines []Line) string {
	var b strings.Builder
	b.WriteString(messageHeader)
	b.WriteString("\n\n")
	for _, line := range lines {
		b.WriteString("・")
		b.WriteString(line.Name)
		b.WriteString(": ")
		b.WriteString(line.Quantity.String())
		b.WriteString(" ")
		b.WriteString(line.Unit)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(messageFooter)
	return b.String()
}

// MailtoURL opens the operator's mail client with the order pre-filled.
func MailtoURL(address, body string) string {
	return "mailto:" + address + "?subject=" + escape(mailSubject) + "&body=" + escape(body)
}

// escape percent-encodes for mailto, where '+' is not a space.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
