package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// HandleParticipantsList returns the public profile of every
// participant.
func (h *Handler) HandleParticipantsList(w http.ResponseWriter, r *http.Request) {
	views, err := h.Projector.ListParticipants(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, views)
}

// HandleParticipantDetail returns one participant. Private account
// fields are included only when the bearer token proves the caller owns
// the requested key.
func (h *Handler) HandleParticipantDetail(w http.ResponseWriter, r *http.Request) {
	publicKey := mux.Vars(r)["publicKey"]
	authed := h.callerKey(r) == publicKey && publicKey != ""

	view, err := h.Projector.FetchParticipant(r.Context(), publicKey, authed)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}
