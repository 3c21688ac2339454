package handler

import (
	"net/http"

	"github.com/dgc-network/dgc-indexer/pkg/projection"
	"github.com/gorilla/mux"
)

// HandleRecordsList returns the projection of every record matching the
// query parameters. No matches returns an empty list.
func (h *Handler) HandleRecordsList(w http.ResponseWriter, r *http.Request) {
	filter := projection.RecordFilter{
		TableName: r.URL.Query().Get("table"),
		RecordID:  r.URL.Query().Get("recordId"),
	}

	views, err := h.Projector.ListRecords(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, views)
}

// HandleRecordDetail returns one record's full projection.
func (h *Handler) HandleRecordDetail(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["recordId"]

	view, err := h.Projector.FetchRecord(r.Context(), recordID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// HandlePropertyDetail returns one property of a record with its full
// decoded history.
func (h *Handler) HandlePropertyDetail(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	detail, err := h.Projector.FetchProperty(r.Context(), vars["recordId"], vars["name"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}
