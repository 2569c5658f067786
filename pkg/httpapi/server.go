package httpapi

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"cafestock/pkg/inventory"
	"cafestock/pkg/order"
	"cafestock/pkg/stock"
)

// CategoryParam narrows the stock list to one category.
const CategoryParam = "category"

// uiFS packs the single page so deployments ship one binary.
//
//go:embed public_html/app.gohtml
var uiFS embed.FS

// Server wires HTTP endpoints to the inventory and order services.
type Server struct {
	inventory *inventory.Service
	orders    *order.Service
	page      *template.Template
	lang      language.Tag
	logger    *log.Logger
}

// New parses the page template once. lang is the fallback page language.
func New(inventoryService *inventory.Service, orderService *order.Service, lang language.Tag, logger *log.Logger) (*Server, error) {
	tmpl, err := template.ParseFS(uiFS, "public_html/app.gohtml")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(os.Stdout, "[cafestock] ", log.LstdFlags)
	}
	if lang == language.Und {
		lang = language.Japanese
	}
	return &Server{
		inventory: inventoryService,
		orders:    orderService,
		page:      tmpl,
		lang:      lang,
		logger:    logger,
	}, nil
}

// Handler exposes the page and the JSON API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", s.pageHandler())
	mux.Handle("/api/materials", s.materialsEndpoint())
	mux.Handle("/api/materials/adjust", http.HandlerFunc(s.adjustMaterial))
	mux.Handle("/api/summary", http.HandlerFunc(s.summary))
	mux.Handle("/api/orders", s.ordersEndpoint())
	mux.Handle("/api/orders/drafts", http.HandlerFunc(s.drafts))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	})
	return mux
}

// materialView is an item together with its evaluation, as the page and API show it.
type materialView struct {
	inventory.Item
	Status        stock.Status `json:"status"`
	StatusLabel   string       `json:"status_label"`
	Badge         stock.Badge  `json:"badge"`
	Color         string       `json:"color"`
	DaysRemaining stock.Days   `json:"days_remaining"`
	DaysLabel     string       `json:"days_label"`
}

func viewsOf(p *message.Printer, items []inventory.Item) []materialView {
	views := make([]materialView, 0, len(items))
	for _, item := range items {
		eval := item.Evaluate()
		views = append(views, materialView{
			Item:          item,
			Status:        eval.Status,
			StatusLabel:   statusLabel(p, eval.Status),
			Badge:         eval.Badge,
			Color:         eval.Color,
			DaysRemaining: eval.DaysRemaining,
			DaysLabel:     daysLabel(p, eval.DaysRemaining),
		})
	}
	return views
}

type draftView struct {
	order.Draft
	MethodLabel string `json:"method_label"`
}

type pageData struct {
	Lang       string
	T          map[string]string
	Caption    string
	Summary    inventory.Summary
	Alerts     []materialView
	Warnings   []materialView
	Category   string
	Categories []string
	Items      []materialView
	Drafts     []draftView
	History    []order.Order
}

func categoryOf(r *http.Request) string {
	return strings.TrimSpace(r.URL.Query().Get(CategoryParam))
}

func (s *Server) pageHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		items, err := s.inventory.List(ctx)
		if err != nil {
			s.logger.Printf("page render failed: list inventory: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		drafts, err := s.orders.Drafts(ctx)
		if err != nil {
			s.logger.Printf("page render failed: plan reorders: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		history, err := s.orders.List(ctx)
		if err != nil {
			s.logger.Printf("page render failed: list orders: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		tag := resolveTag(r, s.lang)
		p := message.NewPrinter(tag)
		sum := inventory.Summarize(items)
		category := categoryOf(r)
		data := pageData{
			Lang:       tag.String(),
			T:          texts(p, tag),
			Caption:    p.Sprintf("summary_caption", sum.Alert, sum.Warning, sum.OK),
			Summary:    sum,
			Alerts:     viewsOf(p, inventory.Filter(items, stock.Alert)),
			Warnings:   viewsOf(p, inventory.Filter(items, stock.Warning)),
			Category:   category,
			Categories: inventory.Categories(items),
			Items:      viewsOf(p, inventory.InCategory(items, category)),
			Drafts:     draftViews(p, drafts),
			History:    history,
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.page.Execute(w, data); err != nil {
			s.logger.Printf("page render failed: %v", err)
		}
	})
}

func draftViews(p *message.Printer, drafts []order.Draft) []draftView {
	views := make([]draftView, 0, len(drafts))
	for _, d := range drafts {
		views = append(views, draftView{Draft: d, MethodLabel: methodLabel(p, d.Method)})
	}
	return views
}

func (s *Server) materialsEndpoint() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.listMaterials(w, r)
		case http.MethodPut:
			s.setCounts(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) listMaterials(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := s.inventory.List(ctx)
	if err != nil {
		s.logger.Printf("material listing failed: %v", err)
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, viewsOf(s.printer(r), inventory.InCategory(items, categoryOf(r))))
}

// setCounts applies the input modal: {"counts": {"<id>": "<qty>"}}.
func (s *Server) setCounts(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Counts map[string]*decimal.Decimal `json:"counts"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Printf("stock count rejected: unable to decode payload: %v", err)
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if len(payload.Counts) == 0 {
		s.logger.Printf("stock count rejected: no counts")
		s.respondError(w, "counts are required", http.StatusBadRequest)
		return
	}
	counts := make(map[int64]decimal.Decimal, len(payload.Counts))
	for rawID, value := range payload.Counts {
		id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
		if err != nil {
			s.logger.Printf("stock count rejected: invalid id %q", rawID)
			s.respondError(w, "invalid id "+strconv.Quote(rawID), http.StatusBadRequest)
			return
		}
		if value == nil {
			s.logger.Printf("stock count rejected: no quantity for item %d", id)
			s.respondError(w, "quantity for item "+rawID+" is required", http.StatusBadRequest)
			return
		}
		counts[id] = *value
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := s.inventory.SetCounts(ctx, counts)
	if err != nil {
		s.logger.Printf("stock count failed for %d items: %v", len(counts), err)
		s.respondServiceError(w, err)
		return
	}
	s.logger.Printf("stock count saved for %d items", len(counts))
	s.respondJSON(w, viewsOf(s.printer(r), items))
}

// adjustMaterial backs the per-item − / + buttons.
func (s *Server) adjustMaterial(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rawID := r.URL.Query().Get("id")
	if rawID == "" {
		s.logger.Printf("stock adjust rejected: missing id")
		s.respondError(w, "id is required", http.StatusBadRequest)
		return
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		s.logger.Printf("stock adjust rejected: invalid id %s", rawID)
		s.respondError(w, "invalid id", http.StatusBadRequest)
		return
	}
	var payload struct {
		Delta *decimal.Decimal `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Printf("stock adjust rejected: unable to decode payload: %v", err)
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if payload.Delta == nil {
		s.logger.Printf("stock adjust rejected: missing delta for %d", id)
		s.respondError(w, "delta is required", http.StatusBadRequest)
		return
	}
	delta := *payload.Delta

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	item, err := s.inventory.Adjust(ctx, id, delta)
	if err != nil {
		s.logger.Printf("stock adjust failed for %d: %v", id, err)
		s.respondServiceError(w, err)
		return
	}
	s.logger.Printf("stock of %s adjusted by %s to %s", item.Name, delta, item.Current)
	s.respondJSON(w, viewsOf(s.printer(r), []inventory.Item{item})[0])
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	items, err := s.inventory.List(ctx)
	if err != nil {
		s.logger.Printf("summary failed: %v", err)
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, inventory.Summarize(items))
}

func (s *Server) drafts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	drafts, err := s.orders.Drafts(ctx)
	if err != nil {
		s.logger.Printf("reorder planning failed: %v", err)
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.respondJSON(w, draftViews(s.printer(r), drafts))
}

func (s *Server) ordersEndpoint() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			s.completeOrder(w, r)
		case http.MethodGet:
			s.listOrders(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
}

func (s *Server) completeOrder(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Supplier string `json:"supplier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Printf("order completion failed: unable to decode payload: %v", err)
		s.respondError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	stored, err := s.orders.Complete(ctx, payload.Supplier)
	if err != nil {
		s.logger.Printf("order completion failed for %s: %v", payload.Supplier, err)
		s.respondServiceError(w, err)
		return
	}
	s.logger.Printf("order %d to %s recorded with %d lines", stored.ID, stored.Supplier, len(stored.Lines))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(stored)
}

func (s *Server) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	orders, err := s.orders.List(ctx)
	if err != nil {
		s.logger.Printf("order listing failed: %v", err)
		s.respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if orders == nil {
		orders = []order.Order{}
	}
	s.respondJSON(w, orders)
}

func (s *Server) printer(r *http.Request) *message.Printer {
	return message.NewPrinter(resolveTag(r, s.lang))
}

func (s *Server) respondJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

// respondServiceError maps service failures onto status codes.
func (s *Server) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case inventory.IsValidation(err), order.IsValidation(err):
		s.respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, inventory.ErrNotFound):
		s.respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError keeps JSON formatting consistent across endpoints.
func (s *Server) respondError(w http.ResponseWriter, msg string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
