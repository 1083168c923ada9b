package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid"
	"github.com/vasiliy-maslov/laundry-service/internal/customer"
	"github.com/vasiliy-maslov/laundry-service/internal/order"
	"github.com/vasiliy-maslov/laundry-service/internal/session"
)

type CreateCustomerRequest struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone" validate:"required"`
}

type UpdateCustomerRequest struct {
	Name           string `json:"name" validate:"required"`
	Phone          string `json:"phone" validate:"required"`
	IsMember       bool   `json:"is_member"`
	DepositBalance int64  `json:"deposit_balance" validate:"gte=0"`
}

type TopUpRequest struct {
	Amount int64 `json:"amount" validate:"required,gt=0"`
}

// HistoryReader lists a customer's past orders.
type HistoryReader interface {
	ListByCustomer(ctx context.Context, sess session.Session, customerID uuid.UUID) ([]order.Order, error)
}

type CustomerHandler struct {
	service  customer.Service
	history  HistoryReader
	validate *validator.Validate
}

func NewCustomerHandler(service customer.Service, history HistoryReader) *CustomerHandler {
	return &CustomerHandler{
		service:  service,
		history:  history,
		validate: validator.New(),
	}
}

func (h *CustomerHandler) RegisterRoutes(router chi.Router) {
	router.Get("/customers", h.handleList)
	router.Post("/customers", h.handleCreate)
	router.Get("/customers/lookup", h.handleLookup)
	router.Get("/customers/{id}", h.handleGet)
	router.Put("/customers/{id}", h.handleUpdate)
	router.Delete("/customers/{id}", h.handleDelete)
	router.Post("/customers/{id}/topup", h.handleTopUp)
	router.Get("/customers/{id}/history", h.handleHistory)
}

func (h *CustomerHandler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	customers, err := h.service.List(r.Context(), sess, r.URL.Query().Get("search"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to list customers")
		return
	}
	respondWithJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req CreateCustomerRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	c, err := h.service.Create(r.Context(), sess, req.Name, req.Phone)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create customer")
		return
	}
	respondWithJSON(w, http.StatusCreated, c)
}

func (h *CustomerHandler) handleLookup(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	customers, err := h.service.LookupByPhone(r.Context(), sess, r.URL.Query().Get("phone"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to look up customers")
		return
	}
	respondWithJSON(w, http.StatusOK, customers)
}

func (h *CustomerHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	c, err := h.service.Get(r.Context(), sess, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get customer")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateCustomerRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	c, err := h.service.Update(r.Context(), sess, id, customer.Update{
		Name:           req.Name,
		Phone:          req.Phone,
		IsMember:       req.IsMember,
		DepositBalance: req.DepositBalance,
	})
	if err != nil {
		respondWithServiceError(w, err, "Failed to update customer")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), sess, id); err != nil {
		respondWithServiceError(w, err, "Failed to delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CustomerHandler) handleTopUp(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req TopUpRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	c, err := h.service.TopUp(r.Context(), sess, id, req.Amount)
	if err != nil {
		respondWithServiceError(w, err, "Failed to top up deposit")
		return
	}
	respondWithJSON(w, http.StatusOK, c)
}

func (h *CustomerHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	orders, err := h.history.ListByCustomer(r.Context(), sess, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list customer history")
		return
	}
	respondWithJSON(w, http.StatusOK, orders)
}
