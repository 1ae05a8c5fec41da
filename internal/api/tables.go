package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yanizio/bistro/internal/auth"
)

func (h *handlers) list(w http.ResponseWriter, r *http.Request) {
	rows, err := h.gw.List(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "table"), r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *handlers) get(w http.ResponseWriter, r *http.Request) {
	row, err := h.gw.Get(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "table"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *handlers) create(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := h.gw.Create(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "table"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, row)
}

func (h *handlers) update(w http.ResponseWriter, r *http.Request) {
	body, err := decodeObject(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	row, err := h.gw.Update(r.Context(), auth.FromContext(r.Context()),
		chi.URLParam(r, "table"), chi.URLParam(r, "id"), body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *handlers) remove(w http.ResponseWriter, r *http.Request) {
	row, err := h.gw.Delete(r.Context(), auth.FromContext(r.Context()), chi.URLParam(r, "table"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *handlers) availability(w http.ResponseWriter, r *http.Request) {
	resp, err := h.agg.Availability(r.Context(), auth.FromContext(r.Context()), r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
