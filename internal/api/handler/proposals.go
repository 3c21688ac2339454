package handler

import (
	"net/http"

	"github.com/dgc-network/dgc-indexer/pkg/model"
	"github.com/dgc-network/dgc-indexer/pkg/projection"
	"github.com/gorilla/mux"
)

// HandleProposalsList returns proposals matching the query parameters,
// decorated with the issuer's record associations.
func (h *Handler) HandleProposalsList(w http.ResponseWriter, r *http.Request) {
	filter := projection.ProposalFilter{
		RecordID:     r.URL.Query().Get("recordId"),
		ReceivingKey: r.URL.Query().Get("receivingKey"),
		Status:       model.ProposalStatus(r.URL.Query().Get("status")),
	}

	entries, err := h.Projector.ListProposals(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entries)
}

// HandleProposalDetail returns one proposal by identifier.
func (h *Handler) HandleProposalDetail(w http.ResponseWriter, r *http.Request) {
	proposalID := mux.Vars(r)["proposalId"]

	entry, err := h.Projector.FetchProposal(r.Context(), proposalID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, entry)
}

// HandleExchangesList returns every matched exchange at the horizon.
func (h *Handler) HandleExchangesList(w http.ResponseWriter, r *http.Request) {
	exchanges, err := h.Projector.ListExchanges(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, exchanges)
}
