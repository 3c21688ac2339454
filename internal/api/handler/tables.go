package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleTablesList returns every table schema at the horizon.
func (h *Handler) HandleTablesList(w http.ResponseWriter, r *http.Request) {
	views, err := h.Projector.ListTables(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, views)
}

// HandleTableDetail returns one table's schema keyed by property name.
func (h *Handler) HandleTableDetail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	view, err := h.Projector.FetchTable(r.Context(), name)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}
