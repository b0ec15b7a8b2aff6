package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"rostervet/internal/domain"
	"rostervet/internal/store"
)

const defaultListLimit = 100

// ProviderHandler exposes the read-only view over persisted provider records.
// It serves already-computed state only: status comes straight from the store
// and is never recomputed here, and no verification call is ever issued from
// this path.
type ProviderHandler struct {
	store domain.ProviderStore
}

func NewProviderHandler(store domain.ProviderStore) *ProviderHandler {
	return &ProviderHandler{store: store}
}

func (h *ProviderHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := domain.ListOpts{Limit: defaultListLimit}

	if s := r.URL.Query().Get("status"); s != "" {
		if !domain.ValidStatus(s) {
			writeError(w, http.StatusBadRequest, "invalid status (valid options: pending, review, validated)")
			return
		}
		status := domain.ValidationStatus(s)
		opts.Status = &status
	}
	opts.Specialty = r.URL.Query().Get("specialty")

	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		opts.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		opts.Offset = n
	}

	providers, err := h.store.List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list providers")
		return
	}
	if providers == nil {
		providers = []domain.Provider{}
	}

	type listResponse struct {
		Providers []domain.Provider `json:"providers"`
		Count     int               `json:"count"`
	}
	writeJSON(w, http.StatusOK, listResponse{Providers: providers, Count: len(providers)})
}

func (h *ProviderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid provider id")
		return
	}

	provider, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "provider not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get provider")
		return
	}

	writeJSON(w, http.StatusOK, provider)
}

func (h *ProviderHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summary(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute summary")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
