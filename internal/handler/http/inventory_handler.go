package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/laundry-service/internal/inventory"
)

type InventoryHandler struct {
	service inventory.Service
}

func NewInventoryHandler(service inventory.Service) *InventoryHandler {
	return &InventoryHandler{service: service}
}

func (h *InventoryHandler) RegisterRoutes(router chi.Router) {
	router.Get("/inventory", h.handleList)
	router.Post("/inventory", h.handleCreate)
	router.Get("/inventory/{id}", h.handleGet)
	router.Put("/inventory/{id}", h.handleUpdate)
	router.Delete("/inventory/{id}", h.handleDelete)
}

// itemForm reads the item fields from a multipart or urlencoded form. A
// blank price stays nil. The returned photo is nil when no file was sent;
// close is always safe to call.
func itemForm(w http.ResponseWriter, r *http.Request) (inventory.Input, io.Reader, func(), error) {
	noop := func() {}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return inventory.Input{}, nil, noop, err
	}

	input := inventory.Input{Name: r.FormValue("name")}
	if raw := strings.TrimSpace(r.FormValue("stock")); raw != "" {
		stock, err := strconv.Atoi(raw)
		if err != nil {
			return inventory.Input{}, nil, noop, errors.New("stock must be a whole number")
		}
		input.Stock = stock
	}
	if raw := strings.TrimSpace(r.FormValue("price")); raw != "" {
		price, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return inventory.Input{}, nil, noop, errors.New("price must be a whole number")
		}
		input.Price = &price
	}
	if raw := r.FormValue("is_sellable"); raw != "" {
		sellable, err := strconv.ParseBool(raw)
		if err != nil {
			return inventory.Input{}, nil, noop, errors.New("is_sellable must be true or false")
		}
		input.IsSellable = sellable
	}

	file, _, err := r.FormFile("photo")
	switch {
	case err == nil:
		return input, file, func() { _ = file.Close() }, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return input, nil, noop, nil
	default:
		return inventory.Input{}, nil, noop, err
	}
}

func (h *InventoryHandler) handleList(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	var (
		items []inventory.Item
		err   error
	)
	if sellable, _ := strconv.ParseBool(r.URL.Query().Get("sellable")); sellable {
		items, err = h.service.ListSellable(r.Context(), sess)
	} else {
		items, err = h.service.List(r.Context(), sess)
	}
	if err != nil {
		respondWithServiceError(w, err, "Failed to list inventory")
		return
	}
	respondWithJSON(w, http.StatusOK, items)
}

func (h *InventoryHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	input, photo, closePhoto, err := itemForm(w, r)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse inventory form")
		respondWithError(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}
	defer closePhoto()

	item, err := h.service.Create(r.Context(), sess, input, photo)
	if err != nil {
		respondWithServiceError(w, err, "Failed to create inventory item")
		return
	}
	respondWithJSON(w, http.StatusCreated, item)
}

func (h *InventoryHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	item, err := h.service.Get(r.Context(), sess, id)
	if err != nil {
		respondWithServiceError(w, err, "Failed to get inventory item")
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	input, photo, closePhoto, err := itemForm(w, r)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to parse inventory form")
		respondWithError(w, http.StatusBadRequest, "Invalid form: "+err.Error())
		return
	}
	defer closePhoto()

	item, err := h.service.Update(r.Context(), sess, id, input, photo)
	if err != nil {
		respondWithServiceError(w, err, "Failed to update inventory item")
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

func (h *InventoryHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), sess, id); err != nil {
		respondWithServiceError(w, err, "Failed to delete inventory item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
