package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"cafestock/pkg/stock"
)

// command is one unit of work for the service goroutine.
type command struct {
	ctx    context.Context
	action string
	items  []Item
	counts map[int64]decimal.Decimal
	id     int64
	delta  decimal.Decimal
	ids    []int64
	reply  chan commandResult
}

type commandResult struct {
	items []Item
	item  Item
	err   error
}

// Service owns the item list through a single goroutine; callers never share it.
type Service struct {
	repo     *Repository
	commands chan command
	quit     chan struct{}
	timeout  time.Duration
}

// NewService starts the background goroutine immediately.
func NewService(repo *Repository) *Service {
	svc := &Service{
		repo:     repo,
		commands: make(chan command),
		quit:     make(chan struct{}),
		timeout:  2 * time.Second,
	}
	go svc.loop()
	return svc
}

func (s *Service) loop() {
	for {
		select {
		case cmd := <-s.commands:
			cmd.reply <- s.handle(cmd)
		case <-s.quit:
			return
		}
	}
}

func (s *Service) handle(cmd command) commandResult {
	ctx := cmd.ctx
	switch cmd.action {
	case "list":
		items, err := s.repo.List(ctx)
		return commandResult{items: items, err: err}
	case "get":
		item, err := s.find(ctx, cmd.id)
		return commandResult{item: item, err: err}
	case "seed":
		return s.seed(ctx, cmd.items)
	case "setCounts":
		return s.setCounts(ctx, cmd.counts)
	case "adjust":
		return s.adjust(ctx, cmd.id, cmd.delta)
	case "markOrdered":
		return commandResult{err: s.markOrdered(ctx, cmd.ids)}
	default:
		return commandResult{err: fmt.Errorf("unknown inventory action %s", cmd.action)}
	}
}

func (s *Service) find(ctx context.Context, id int64) (Item, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return Item{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return Item{}, ErrNotFound
}

func (s *Service) seed(ctx context.Context, seed []Item) commandResult {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return commandResult{err: err}
	}
	if len(existing) > 0 {
		return commandResult{items: existing}
	}
	for _, item := range seed {
		if err := validateItem(item); err != nil {
			return commandResult{err: err}
		}
	}
	stored := make([]Item, 0, len(seed))
	for _, item := range seed {
		saved, err := s.repo.Save(ctx, item)
		if err != nil {
			return commandResult{err: err}
		}
		stored = append(stored, saved)
	}
	return commandResult{items: stored}
}

// setCounts validates the whole batch before writing any of it.
func (s *Service) setCounts(ctx context.Context, counts map[int64]decimal.Decimal) commandResult {
	items, err := s.repo.List(ctx)
	if err != nil {
		return commandResult{err: err}
	}
	index := make(map[int64]int, len(items))
	for i, item := range items {
		index[item.ID] = i
	}
	for id, value := range counts {
		if _, ok := index[id]; !ok {
			return commandResult{err: fmt.Errorf("item %d: %w", id, ErrNotFound)}
		}
		if err := checkQuantity(fmt.Sprintf("quantity for item %d", id), value); err != nil {
			return commandResult{err: err}
		}
	}
	for id, value := range counts {
		i := index[id]
		if items[i].Current.Equal(value) {
			continue
		}
		updated := items[i].withCurrent(value)
		if err := s.repo.Update(ctx, updated); err != nil {
			return commandResult{err: err}
		}
		items[i] = updated
	}
	return commandResult{items: items}
}

func (s *Service) adjust(ctx context.Context, id int64, delta decimal.Decimal) commandResult {
	item, err := s.find(ctx, id)
	if err != nil {
		return commandResult{err: err}
	}
	next := item.Current.Add(delta)
	if next.IsNegative() {
		next = decimal.Zero
	}
	if err := checkQuantity("stock of "+item.Name, next); err != nil {
		return commandResult{err: err}
	}
	updated := item.withCurrent(next)
	if err := s.repo.Update(ctx, updated); err != nil {
		return commandResult{err: err}
	}
	return commandResult{item: updated}
}

func (s *Service) markOrdered(ctx context.Context, ids []int64) error {
	items, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	byID := make(map[int64]Item, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return fmt.Errorf("item %d: %w", id, ErrNotFound)
		}
	}
	for _, id := range ids {
		item := byID[id]
		// a count may have lifted the item out of alert since the draft was planned
		if item.Ordered || item.Status() != stock.Alert {
			continue
		}
		item.Ordered = true
		if err := s.repo.Update(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// do hands cmd to the goroutine and waits for the result, giving up when the
// queue stays busy or the caller's context ends.
func (s *Service) do(ctx context.Context, cmd command) (commandResult, error) {
	if err := ctx.Err(); err != nil {
		return commandResult{}, err
	}
	cmd.ctx = ctx
	cmd.reply = make(chan commandResult, 1)

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	case <-s.quit:
		return commandResult{}, errors.New("inventory service is closed")
	case <-time.After(s.timeout):
		return commandResult{}, errors.New("inventory queue is busy")
	}

	select {
	case res := <-cmd.reply:
		return res, res.err
	case <-ctx.Done():
		return commandResult{}, ctx.Err()
	case <-time.After(s.timeout):
		return commandResult{}, fmt.Errorf("inventory %s timed out", cmd.action)
	}
}

// List returns every item in display order.
func (s *Service) List(ctx context.Context) ([]Item, error) {
	res, err := s.do(ctx, command{action: "list"})
	return res.items, err
}

// Get returns a single item or ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (Item, error) {
	res, err := s.do(ctx, command{action: "get", id: id})
	return res.item, err
}

// Seed stores items only when nothing is stored yet and returns the resulting list.
func (s *Service) Seed(ctx context.Context, items []Item) ([]Item, error) {
	res, err := s.do(ctx, command{action: "seed", items: items})
	return res.items, err
}

// SetCounts applies the stock levels entered in the input form. Unknown ids or
// out-of-range values reject the whole batch.
func (s *Service) SetCounts(ctx context.Context, counts map[int64]decimal.Decimal) ([]Item, error) {
	res, err := s.do(ctx, command{action: "setCounts", counts: counts})
	return res.items, err
}

// Adjust bumps one item's stock by delta; the result never drops below zero.
func (s *Service) Adjust(ctx context.Context, id int64, delta decimal.Decimal) (Item, error) {
	res, err := s.do(ctx, command{action: "adjust", id: id, delta: delta})
	return res.item, err
}

// MarkOrdered flags the items as already reordered. Items no longer in the
// alert band are left alone.
func (s *Service) MarkOrdered(ctx context.Context, ids []int64) error {
	_, err := s.do(ctx, command{action: "markOrdered", ids: ids})
	return err
}

// Close stops the background goroutine.
func (s *Service) Close() {
	close(s.quit)
}

func validateItem(item Item) error {
	if strings.TrimSpace(item.Name) == "" {
		return newValidationError("name is required")
	}
	if err := checkQuantity(item.Name+": current stock", item.Current); err != nil {
		return err
	}
	if err := checkQuantity(item.Name+": threshold", item.Threshold); err != nil {
		return err
	}
	return checkQuantity(item.Name+": daily use", item.DailyUse)
}
