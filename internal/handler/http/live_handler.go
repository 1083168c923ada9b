package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/finance"
	"github.com/vasiliy-maslov/laundry-service/internal/inventory"
	"github.com/vasiliy-maslov/laundry-service/internal/live"
	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

const keepAliveInterval = 25 * time.Second

type LiveHandler struct {
	hub       *live.Hub
	orders    order.Service
	customers customer.Service
	inventory inventory.Service
	finance   finance.Service
}

func NewLiveHandler(hub *live.Hub, orders order.Service, customers customer.Service, items inventory.Service, fin finance.Service) *LiveHandler {
	return &LiveHandler{
		hub:       hub,
		orders:    orders,
		customers: customers,
		inventory: items,
		finance:   fin,
	}
}

func (h *LiveHandler) RegisterRoutes(router chi.Router) {
	router.Get("/live/dashboard", h.handleDashboard)
	router.Get("/live/customers", h.handleCustomers)
	router.Get("/live/inventory", h.handleInventory)
	router.Get("/live/finance/today", h.handleFinanceToday)
}

func (h *LiveHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	filter, search := r.URL.Query().Get("filter"), r.URL.Query().Get("search")
	stream(w, r, h.hub, live.Feed[[]order.DashboardOrder]{
		Name:   "dashboard",
		Tables: []string{live.TableDashboardOrders},
		Query: func(ctx context.Context, sess session.Session) ([]order.DashboardOrder, error) {
			return h.orders.Dashboard(ctx, sess, filter, search)
		},
	})
}

func (h *LiveHandler) handleCustomers(w http.ResponseWriter, r *http.Request) {
	search := r.URL.Query().Get("search")
	stream(w, r, h.hub, live.Feed[[]customer.Customer]{
		Name:   "customers",
		Tables: []string{live.TableCustomers},
		Query: func(ctx context.Context, sess session.Session) ([]customer.Customer, error) {
			return h.customers.List(ctx, sess, search)
		},
	})
}

func (h *LiveHandler) handleInventory(w http.ResponseWriter, r *http.Request) {
	stream(w, r, h.hub, live.Feed[[]inventory.Item]{
		Name:   "inventory",
		Tables: []string{live.TableInventory},
		Query:  h.inventory.List,
	})
}

func (h *LiveHandler) handleFinanceToday(w http.ResponseWriter, r *http.Request) {
	stream(w, r, h.hub, live.Feed[*finance.DailySummary]{
		Name:   "finance_today",
		Tables: []string{live.TableOrders, live.TableExpenses, live.TableIncomes},
		Query:  h.finance.Daily,
	})
}

// stream writes every snapshot of feed as a Server-Sent Event until the
// client goes away.
func stream[T any](w http.ResponseWriter, r *http.Request, hub *live.Hub, feed live.Feed[T]) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, http.StatusInternalServerError, "Streaming unsupported")
		return
	}

	// The server write timeout would otherwise cut long-lived streams.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		log.Debug().Err(err).Msg("Could not clear write deadline for stream")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	snapshots := feed.Watch(ctx, hub, sess)
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	log.Info().Str("feed", feed.Name).Stringer("owner_id", sess.OwnerID).Msg("Live stream opened")
	defer log.Info().Str("feed", feed.Name).Stringer("owner_id", sess.OwnerID).Msg("Live stream closed")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if err := writeEvent(w, snap); err != nil {
				log.Debug().Err(err).Str("feed", feed.Name).Msg("Live stream write failed")
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent[T any](w http.ResponseWriter, snap live.Snapshot[T]) error {
	event := "snapshot"
	var payload interface{} = snap.Value
	if snap.Err != nil {
		event = "error"
		payload = map[string]string{"error": "Failed to load data"}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
