package http

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/pricing"
	"github.com/vasiliy-maslov/laundry-service/internal/receipt"
)

type CreateOrderRequest struct {
	CustomerID uuid.UUID          `json:"customer_id"`
	InDate     *time.Time         `json:"in_date"`
	OutDate    *time.Time         `json:"out_date"`
	Lines      []order.LineInput  `json:"lines"`
	Goods      []order.GoodsInput `json:"goods"`
	Discount   pricing.Discount   `json:"discount"`
	Payment    string             `json:"payment" validate:"required,oneof=cash qris transfer deposit unpaid"`
	Note       string             `json:"note"`
}

func (req CreateOrderRequest) input() order.CreateInput {
	return order.CreateInput{
		CustomerID: req.CustomerID,
		InDate:     req.InDate,
		OutDate:    req.OutDate,
		Lines:      req.Lines,
		Goods:      req.Goods,
		Discount:   req.Discount,
		Payment:    pricing.PaymentMethod(req.Payment),
		Note:       req.Note,
	}
}

type ChangeStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in-progress ready-for-pickup picked-up"`
}

type ChangePaymentRequest struct {
	Payment string `json:"payment" validate:"required,oneof=cash qris transfer deposit unpaid"`
}

type OrderHandler struct {
	service  order.Service
	shop     receipt.Shop
	loc      *time.Location
	validate *validator.Validate
}

func NewOrderHandler(service order.Service, shop receipt.Shop, loc *time.Location) *OrderHandler {
	return &OrderHandler{
		service:  service,
		shop:     shop,
		loc:      loc,
		validate: validator.New(),
	}
}

func (h *OrderHandler) RegisterRoutes(router chi.Router) {
	router.Post("/orders/quote", h.handleQuote)
	router.Post("/orders", h.handleCreate)
	router.Get("/orders", h.handleHistory)
	router.Get("/orders/{id}", h.handleGet)
	router.Put("/orders/{id}/status", h.handleChangeStatus)
	router.Put("/orders/{id}/payment", h.handleChangePayment)
	router.Get("/orders/{id}/receipt", h.handleReceipt)
	router.Get("/dashboard", h.handleDashboard)
}

func (h *OrderHandler) handleQuote(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	quote, err := h.service.Quote(r.Context(), sess, req.input())
	if err != nil {
		respondWithServiceError(w, err, "Failed to price order")
		return
	}
	respondWithJSON(w, http.StatusOK, quote)
}

func (h *OrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req CreateOrderRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	o, err := h.service.Create(r.Context(), sess, req.input())
	if err != nil {
		respondWithServiceError(w, err, "Failed to create order")
		return
	}
	respondWithJSON(w, http.StatusCreated, o)
}

func (h *OrderHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	from, to, err := parseRange(r, h.loc, time.Now())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	orders, err := h.service.ListHistory(r.Context(), sess, from, to)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list orders")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), sess, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleChangeStatus(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req ChangeStatusRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if err := h.service.ChangeStatus(r.Context(), sess, id, order.Status(req.Status)); err != nil {
		respondWithServiceError(w, err, "Failed to change order status")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) handleChangePayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req ChangePaymentRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	o, err := h.service.ChangePayment(r.Context(), sess, id, pricing.PaymentMethod(req.Payment))
	if err != nil {
		respondWithServiceError(w, err, "Failed to change payment")
		return
	}
	respondWithJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) handleReceipt(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	o, err := h.service.Get(r.Context(), sess, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get order")
		return
	}

	switch format := r.URL.Query().Get("format"); format {
	case "", "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(receipt.Text(h.shop, o, h.loc)))
	case "html":
		var buf bytes.Buffer
		if err := receipt.HTML(&buf, h.shop, o, h.loc); err != nil {
			log.Error().Err(err).Stringer("order_id", id).Msg("Failed to render receipt")
			respondWithError(w, http.StatusInternalServerError, "Failed to render receipt")
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	default:
		respondWithError(w, http.StatusBadRequest, "format must be text or html")
	}
}

func (h *OrderHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	entries, err := h.service.Dashboard(r.Context(), sess, q.Get("filter"), q.Get("search"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to load dashboard")
		return
	}
	respondWithJSON(w, http.StatusOK, entries)
}

var errInvalidDate = errors.New("dates must be YYYY-MM-DD or RFC 3339")

// parseRange reads the from and to query parameters. Plain dates are taken
// in loc, and to is inclusive of its whole day. Missing bounds default to the
// current month.
func parseRange(r *http.Request, loc *time.Location, now time.Time) (time.Time, time.Time, error) {
	now = now.In(loc)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0)

	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, _, err := parseDate(raw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = t
	}
	if raw := q.Get("to"); raw != "" {
		t, dateOnly, err := parseDate(raw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		if dateOnly {
			t = t.AddDate(0, 0, 1)
		}
		to = t
	}
	return from, to, nil
}

func parseDate(raw string, loc *time.Location) (time.Time, bool, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, errInvalidDate
	}
	return t, false, nil
}
