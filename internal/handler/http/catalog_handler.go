package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/vasiliy-maslov/laundry-service/internal/catalog"
)

type AddServiceNameRequest struct {
	Name string `json:"name" validate:"required"`
}

type CatalogHandler struct {
	service  catalog.Service
	validate *validator.Validate
}

func NewCatalogHandler(service catalog.Service) *CatalogHandler {
	return &CatalogHandler{service: service, validate: validator.New()}
}

func (h *CatalogHandler) RegisterRoutes(router chi.Router) {
	router.Get("/catalog", h.handleList)
	router.Post("/catalog", h.handleAdd)
	router.Get("/catalog/suggest", h.handleSuggest)
	router.Delete("/catalog/{name}", h.handleDelete)
}

func (h *CatalogHandler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	names, err := h.service.List(r.Context(), sess)
	if err != nil {
		respondWithServiceError(w, err, "Failed to list service names")
		return
	}
	respondWithJSON(w, http.StatusOK, names)
}

func (h *CatalogHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var req AddServiceNameRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}
	if err := h.service.Add(r.Context(), sess, req.Name); err != nil {
		respondWithServiceError(w, err, "Failed to add service name")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *CatalogHandler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	names, err := h.service.Suggest(r.Context(), sess, r.URL.Query().Get("q"))
	if err != nil {
		respondWithServiceError(w, err, "Failed to suggest service names")
		return
	}
	respondWithJSON(w, http.StatusOK, names)
}

func (h *CatalogHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), sess, chi.URLParam(r, "name")); err != nil {
		respondWithServiceError(w, err, "Failed to delete service name")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
