package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafestock/pkg/inventory"
)

// validationError communicates rule violations back to HTTP handlers.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(msg string) error {
	return validationError{message: msg}
}

// IsValidation helps callers distinguish between business and infrastructure failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}

// Stock is the slice of the inventory service the planner needs.
type Stock interface {
	List(ctx context.Context) ([]inventory.Item, error)
	MarkOrdered(ctx context.Context, ids []int64) error
}

// command asks the goroutine to complete the draft for one supplier.
type command struct {
	ctx      context.Context
	supplier string
	reply    chan commandResult
}

// query asks for either the open drafts or the order history.
type query struct {
	ctx     context.Context
	history bool
	reply   chan queryResult
}

type commandResult struct {
	order Order
	err   error
}

type queryResult struct {
	drafts []Draft
	orders []Order
	err    error
}

// Service serializes order completion so a draft is never sent twice.
type Service struct {
	repo          *Repository
	stock         Stock
	suppliers     []inventory.Supplier
	commands      chan command
	queries       chan query
	cancellations chan struct{}
	timeout       time.Duration
}

// NewService launches the coordinating goroutine immediately.
func NewService(repo *Repository, stock Stock, suppliers []inventory.Supplier) *Service {
	svc := &Service{
		repo:          repo,
		stock:         stock,
		suppliers:     suppliers,
		commands:      make(chan command),
		queries:       make(chan query),
		cancellations: make(chan struct{}),
		timeout:       2 * time.Second,
	}
	go svc.loop()
	return svc
}

func (s *Service) loop() {
	for {
		select {
		case cmd := <-s.commands:
			order, err := s.complete(cmd.ctx, cmd.supplier)
			cmd.reply <- commandResult{order: order, err: err}
		case q := <-s.queries:
			if q.history {
				orders, err := s.repo.List(q.ctx)
				q.reply <- queryResult{orders: orders, err: err}
				continue
			}
			drafts, err := s.drafts(q.ctx)
			q.reply <- queryResult{drafts: drafts, err: err}
		case <-s.cancellations:
			return
		}
	}
}

func (s *Service) drafts(ctx context.Context) ([]Draft, error) {
	items, err := s.stock.List(ctx)
	if err != nil {
		return nil, err
	}
	return Drafts(items, s.suppliers), nil
}

func (s *Service) complete(ctx context.Context, supplier string) (Order, error) {
	drafts, err := s.drafts(ctx)
	if err != nil {
		return Order{}, err
	}
	for _, draft := range drafts {
		if draft.Supplier != supplier {
			continue
		}
		ids := make([]int64, 0, len(draft.Lines))
		for _, line := range draft.Lines {
			ids = append(ids, line.ItemID)
		}
		// flag first: an unflagged item would show up in the next draft again
		if err := s.stock.MarkOrdered(ctx, ids); err != nil {
			return Order{}, fmt.Errorf("mark %s ordered: %w", supplier, err)
		}
		stored, err := s.repo.Save(ctx, Order{
			Supplier: draft.Supplier,
			Method:   draft.Method,
			Contact:  draft.Contact,
			Lines:    draft.Lines,
			Message:  draft.Message,
		})
		if err != nil {
			return Order{}, fmt.Errorf("record order to %s: %w", supplier, err)
		}
		return stored, nil
	}
	return Order{}, newValidationError(fmt.Sprintf("nothing to reorder from %s", supplier))
}

// Drafts plans the reorders for the current stock levels.
func (s *Service) Drafts(ctx context.Context) ([]Draft, error) {
	res, err := s.ask(ctx, query{})
	return res.drafts, err
}

// List returns sent orders, newest first.
func (s *Service) List(ctx context.Context) ([]Order, error) {
	res, err := s.ask(ctx, query{history: true})
	return res.orders, err
}

// Complete records the supplier's draft as sent and flags its items as ordered.
func (s *Service) Complete(ctx context.Context, supplier string) (Order, error) {
	supplier = strings.TrimSpace(supplier)
	if supplier == "" {
		return Order{}, newValidationError("supplier is required")
	}
	if err := ctx.Err(); err != nil {
		return Order{}, err
	}
	reply := make(chan commandResult, 1)
	cmd := command{ctx: ctx, supplier: supplier, reply: reply}

	select {
	case s.commands <- cmd:
	case <-ctx.Done():
		return Order{}, ctx.Err()
	case <-s.cancellations:
		return Order{}, errors.New("order service is closed")
	case <-time.After(s.timeout):
		return Order{}, errors.New("queue is busy processing other orders")
	}

	select {
	case res := <-reply:
		return res.order, res.err
	case <-ctx.Done():
		return Order{}, ctx.Err()
	case <-time.After(s.timeout):
		return Order{}, errors.New("order processing took too long")
	}
}

func (s *Service) ask(ctx context.Context, q query) (queryResult, error) {
	if err := ctx.Err(); err != nil {
		return queryResult{}, err
	}
	q.ctx = ctx
	q.reply = make(chan queryResult, 1)

	select {
	case s.queries <- q:
	case <-ctx.Done():
		return queryResult{}, ctx.Err()
	case <-s.cancellations:
		return queryResult{}, errors.New("order service is closed")
	case <-time.After(s.timeout):
		return queryResult{}, errors.New("queue is busy processing other orders")
	}

	select {
	case res := <-q.reply:
		return res, res.err
	case <-ctx.Done():
		return queryResult{}, ctx.Err()
	case <-time.After(s.timeout):
		return queryResult{}, errors.New("listing orders took too long")
	}
}

// Close stops the goroutine to allow graceful shutdown.
func (s *Service) Close() {
	close(s.cancellations)
}
