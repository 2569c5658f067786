package order

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"cafestock/pkg/inventory"
)

func seededItems() []inventory.Item {
	items := inventory.DefaultSeed().Items
	for i := range items {
		items[i].ID = int64(i + 1)
	}
	return items
}

func TestCandidates(t *testing.T) {
	items := seededItems()
	items[3].Ordered = true

	got := Candidates(items)
	want := []string{"パンケーキ", "卵"}
	if len(got) != len(want) {
		t.Fatalf("Expected %d candidates, got %d", len(want), len(got))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("Expected %s at %d, got %s", name, i, got[i].Name)
		}
	}
}

func TestDraftsGroupBySupplier(t *testing.T) {
	items := seededItems()
	items = append(items, inventory.Item{
		ID:        6,
		Name:      "ホイップクリーム",
		Current:   decimal.RequireFromString("0.5"),
		Threshold: decimal.NewFromInt(2),
		Unit:      "本",
		Supplier:  "工場から",
	})
	directory := []inventory.Supplier{
		{Name: "工場から", Method: MethodEmail, Contact: "factory@example.com"},
		{Name: "スーパー", Method: MethodWeb, Contact: "https://super.example.com"},
	}

	drafts := Drafts(items, directory)
	if len(drafts) != 3 {
		t.Fatalf("Expected 3 drafts, got %d", len(drafts))
	}
	order := []string{"工場から", "スーパー", "仕入先B"}
	for i, supplier := range order {
		if drafts[i].Supplier != supplier {
			t.Errorf("Expected %s at %d, got %s", supplier, i, drafts[i].Supplier)
		}
	}

	factory := drafts[0]
	if len(factory.Lines) != 2 {
		t.Fatalf("Expected 2 lines for the factory, got %d", len(factory.Lines))
	}
	if got := factory.Lines[0].Quantity.String(); got != "10" {
		t.Errorf("Expected 10 pancakes, got %s", got)
	}
	if got := factory.Lines[1].Quantity.String(); got != "6.5" {
		t.Errorf("Expected 6.5 cream, got %s", got)
	}
	if factory.Lines[0].Note != "冷凍" || factory.Lines[1].Note != "" {
		t.Errorf("Expected material notes on the lines, got %q and %q", factory.Lines[0].Note, factory.Lines[1].Note)
	}
	if strings.Contains(factory.Message, "冷凍") {
		t.Error("notes are for the operator and stay out of the supplier message")
	}
	if factory.MailtoURL == "" {
		t.Error("email supplier should get a mailto link")
	}
	if drafts[1].MailtoURL != "" || drafts[2].MailtoURL != "" {
		t.Error("only email suppliers get a mailto link")
	}
	if drafts[2].Method != "" || drafts[2].Contact != "" {
		t.Errorf("supplier missing from the directory should have no contact, got %+v", drafts[2])
	}
}

func TestDraftsWithNothingLow(t *testing.T) {
	items := seededItems()
	for i := range items {
		items[i].Current = items[i].Threshold.Mul(decimal.NewFromInt(3))
	}
	if drafts := Drafts(items, nil); len(drafts) != 0 {
		t.Errorf("Expected no drafts, got %+v", drafts)
	}
}

func TestMessage(t *testing.T) {
	lines := []Line{
		{Name: "卵", Quantity: decimal.NewFromInt(6), Unit: "パック"},
		{Name: "オーツミルク", Quantity: decimal.NewFromInt(7), Unit: "本"},
	}
	want := "【発注お願いします】\n\n・卵: 6 パック\n・オーツミルク: 7 本\n\nよろしくお願いいたします。"
	if got := Message(lines); got != want {
		t.Errorf("unexpected message:\n%s", got)
	}
}

func TestMailtoURL(t *testing.T) {
	body := "・卵: 6 パック & more"
	link := MailtoURL("shop@example.com", body)
	if !strings.HasPrefix(link, "mailto:shop@example.com?subject=") {
		t.Fatalf("unexpected link %s", link)
	}
	if strings.Contains(link, "+") || strings.Contains(link, " ") {
		t.Errorf("spaces must be percent-encoded: %s", link)
	}

	query := strings.SplitN(link, "?", 2)[1]
	values, err := url.ParseQuery(query)
	if err != nil {
		t.Fatalf("parse query: %v", err)
	}
	if values.Get("subject") != "発注のお願い" {
		t.Errorf("unexpected subject %q", values.Get("subject"))
	}
	if values.Get("body") != body {
		t.Errorf("unexpected body %q", values.Get("body"))
	}
}
