package order

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"cafestock/pkg/inventory"
	"cafestock/pkg/storage"
)

type fixture struct {
	orders *Service
	stock  *inventory.Service
}

func newFixture(t *testing.T, backend string) fixture {
	t.Helper()
	opts := storage.Options{Type: backend}
	if backend == storage.TypeSQLite {
		opts.Path = filepath.Join(t.TempDir(), "cafestock.db")
	}
	db, cleanup, err := storage.Open(context.Background(), opts)
	if err != nil {
		t.Fatalf("open %s storage: %v", backend, err)
	}
	t.Cleanup(cleanup)

	seed := inventory.DefaultSeed()
	stock := inventory.NewService(inventory.NewRepository(db))
	t.Cleanup(stock.Close)
	if _, err := stock.Seed(context.Background(), seed.Items); err != nil {
		t.Fatalf("seed: %v", err)
	}
	orders := NewService(NewRepository(db), stock, seed.Suppliers)
	t.Cleanup(orders.Close)
	return fixture{orders: orders, stock: stock}
}

func TestCompleteMarksItemsOrdered(t *testing.T) {
	for _, backend := range []string{storage.TypeMemory, storage.TypeSQLite} {
		t.Run(backend, func(t *testing.T) {
			f := newFixture(t, backend)
			ctx := context.Background()

			drafts, err := f.orders.Drafts(ctx)
			if err != nil {
				t.Fatalf("drafts: %v", err)
			}
			if len(drafts) != 3 {
				t.Fatalf("Expected 3 drafts, got %d", len(drafts))
			}

			sent, err := f.orders.Complete(ctx, "スーパー")
			if err != nil {
				t.Fatalf("complete: %v", err)
			}
			if sent.ID == 0 || sent.CreatedAt.IsZero() {
				t.Errorf("stored order is missing id or timestamp: %+v", sent)
			}
			if len(sent.Lines) != 1 || sent.Lines[0].Name != "卵" || sent.Lines[0].Quantity.String() != "6" {
				t.Errorf("unexpected lines %+v", sent.Lines)
			}
			if sent.Lines[0].Note != "10個入り" {
				t.Errorf("Expected the material note on the line, got %q", sent.Lines[0].Note)
			}

			eggs, err := f.stock.Get(ctx, 3)
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !eggs.Ordered {
				t.Error("Expected eggs to be flagged as ordered")
			}

			drafts, err = f.orders.Drafts(ctx)
			if err != nil {
				t.Fatalf("drafts: %v", err)
			}
			for _, d := range drafts {
				if d.Supplier == "スーパー" {
					t.Error("completed supplier should drop out of the drafts")
				}
			}

			if _, err := f.orders.Complete(ctx, "スーパー"); !IsValidation(err) {
				t.Errorf("Expected validation error on repeat, got %v", err)
			}
		})
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	for _, backend := range []string{storage.TypeMemory, storage.TypeSQLite} {
		t.Run(backend, func(t *testing.T) {
			f := newFixture(t, backend)
			ctx := context.Background()

			for _, supplier := range []string{"工場から", "仕入先B"} {
				if _, err := f.orders.Complete(ctx, supplier); err != nil {
					t.Fatalf("complete %s: %v", supplier, err)
				}
			}
			history, err := f.orders.List(ctx)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(history) != 2 {
				t.Fatalf("Expected 2 orders, got %d", len(history))
			}
			if history[0].Supplier != "仕入先B" || history[1].Supplier != "工場から" {
				t.Errorf("unexpected order %s, %s", history[0].Supplier, history[1].Supplier)
			}
			if history[1].Lines[0].Quantity.String() != "10" || history[1].Lines[0].Note != "冷凍" {
				t.Errorf("lines did not round-trip: %+v", history[1].Lines)
			}
		})
	}
}

func TestCompleteRejectsBlankSupplier(t *testing.T) {
	f := newFixture(t, storage.TypeMemory)
	if _, err := f.orders.Complete(context.Background(), "  "); !IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

// failingStock lists real items but cannot flag them.
type failingStock struct {
	Stock
}

func (failingStock) MarkOrdered(context.Context, []int64) error {
	return errors.New("disk full")
}

func TestCompleteRecordsNothingWhenFlaggingFails(t *testing.T) {
	f := newFixture(t, storage.TypeMemory)
	ctx := context.Background()
	db, cleanup, err := storage.Open(ctx, storage.Options{})
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(cleanup)

	orders := NewService(NewRepository(db), failingStock{Stock: f.stock}, inventory.DefaultSeed().Suppliers)
	t.Cleanup(orders.Close)

	if _, err := orders.Complete(ctx, "スーパー"); err == nil {
		t.Fatal("Expected the flagging error to surface")
	}
	history, err := orders.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 0 {
		t.Errorf("no order should be recorded when items stay unflagged, got %d", len(history))
	}
	drafts, err := orders.Drafts(ctx)
	if err != nil {
		t.Fatalf("drafts: %v", err)
	}
	if len(drafts) != 3 {
		t.Errorf("Expected the draft to remain open, got %d drafts", len(drafts))
	}
}
