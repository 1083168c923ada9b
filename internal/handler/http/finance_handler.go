package http

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/finance"
)

type FinanceHandler struct {
	service  finance.Service
	shop     finance.ShopHeader
	validate *validator.Validate
	now      func() time.Time
}

func NewFinanceHandler(service finance.Service, shop finance.ShopHeader) *FinanceHandler {
	return &FinanceHandler{
		service:  service,
		shop:     shop,
		validate: validator.New(),
		now:      time.Now,
	}
}

func (h *FinanceHandler) RegisterRoutes(router chi.Router) {
	router.Get("/expenses", h.handleListExpenses)
	router.Post("/expenses", h.handleCreateExpense)
	router.Delete("/expenses/{id}", h.handleDeleteExpense)
	router.Get("/incomes", h.handleListIncomes)
	router.Post("/incomes", h.handleCreateIncome)
	router.Delete("/incomes/{id}", h.handleDeleteIncome)
	router.Get("/reports/daily", h.handleDaily)
	router.Get("/reports/period", h.handlePeriod)
	router.Get("/reports/period/export", h.handleExport)
}

func (h *FinanceHandler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	from, to, err := parseRange(r, h.service.Location(), h.now())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	expenses, err := h.service.ListExpenses(r.Context(), sess, from, to)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list expenses")
		return
	}
	respondWithJSON(w, http.StatusOK, expenses)
}

func (h *FinanceHandler) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req finance.ExpenseInput
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	e, err := h.service.CreateExpense(r.Context(), sess, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create expense")
		return
	}
	respondWithJSON(w, http.StatusCreated, e)
}

func (h *FinanceHandler) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteExpense(r.Context(), sess, id); err != nil {
		respondWithServiceError(w, err, "Failed to delete expense")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FinanceHandler) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	from, to, err := parseRange(r, h.service.Location(), h.now())
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	incomes, err := h.service.ListIncomes(r.Context(), sess, from, to)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list incomes")
		return
	}
	respondWithJSON(w, http.StatusOK, incomes)
}

func (h *FinanceHandler) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req finance.IncomeInput
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	in, err := h.service.CreateIncome(r.Context(), sess, req)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create income")
		return
	}
	respondWithJSON(w, http.StatusCreated, in)
}

func (h *FinanceHandler) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteIncome(r.Context(), sess, id); err != nil {
		respondWithServiceError(w, err, "Failed to delete income")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *FinanceHandler) handleDaily(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	summary, err := h.service.Daily(r.Context(), sess)
	if err != nil {
		respondWithServiceError(w, err, "Failed to build daily summary")
		return
	}
	respondWithJSON(w, http.StatusOK, summary)
}

// periodParams reads year (default: current year) and month (default: all).
func (h *FinanceHandler) periodParams(r *http.Request) (int, int, error) {
	q := r.URL.Query()
	year := h.now().In(h.service.Location()).Year()
	if raw := q.Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, finance.ErrInvalidPeriod
		}
		year = y
	}
	month := 0
	if raw := q.Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil {
			return 0, 0, finance.ErrInvalidPeriod
		}
		month = m
	}
	return year, month, nil
}

func (h *FinanceHandler) handlePeriod(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	year, month, err := h.periodParams(r)
	if err != nil {
		respondWithServiceError(w, err, "Invalid report period")
		return
	}
	report, err := h.service.Period(r.Context(), sess, year, month)
	if err != nil {
		respondWithServiceError(w, err, "Failed to build report")
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}

func (h *FinanceHandler) handleExport(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	year, month, err := h.periodParams(r)
	if err != nil {
		respondWithServiceError(w, err, "Invalid report period")
		return
	}
	report, err := h.service.Period(r.Context(), sess, year, month)
	if err != nil {
		respondWithServiceError(w, err, "Failed to build report")
		return
	}

	var buf bytes.Buffer
	if err := finance.RenderHTML(&buf, h.shop, report); err != nil {
		log.Error().Err(err).Str("period", report.Period).Msg("Failed to render report")
		respondWithError(w, http.StatusInternalServerError, "Failed to render report")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
