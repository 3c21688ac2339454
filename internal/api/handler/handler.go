package handler

import (
	"net/http"

	"github.com/dgc-network/dgc-indexer/pkg/projection"
	"github.com/dgc-network/dgc-indexer/pkg/storage"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Handler holds the dependencies for API handlers.
type Handler struct {
	Projector *projection.Projector
	Adapter   storage.Adapter
	Logger    *zap.Logger
	JWTSecret []byte
}

// NewHandler creates a new Handler instance.
func NewHandler(projector *projection.Projector, adapter storage.Adapter, logger *zap.Logger, jwtSecret []byte) *Handler {
	return &Handler{
		Projector: projector,
		Adapter:   adapter,
		Logger:    logger,
		JWTSecret: jwtSecret,
	}
}

// NewRouter creates and configures the HTTP router with all API routes.
func (h *Handler) NewRouter() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/health", h.HandleHealth).Methods(http.MethodGet)

	r.HandleFunc("/api/records", h.HandleRecordsList).Methods(http.MethodGet)
	r.HandleFunc("/api/records/{recordId}", h.HandleRecordDetail).Methods(http.MethodGet)
	r.HandleFunc("/api/records/{recordId}/property/{name}", h.HandlePropertyDetail).Methods(http.MethodGet)

	r.HandleFunc("/api/tables", h.HandleTablesList).Methods(http.MethodGet)
	r.HandleFunc("/api/tables/{name}", h.HandleTableDetail).Methods(http.MethodGet)

	r.HandleFunc("/api/participants", h.HandleParticipantsList).Methods(http.MethodGet)
	r.HandleFunc("/api/participants/{publicKey}", h.HandleParticipantDetail).Methods(http.MethodGet)

	r.HandleFunc("/api/proposals", h.HandleProposalsList).Methods(http.MethodGet)
	r.HandleFunc("/api/proposals/{proposalId}", h.HandleProposalDetail).Methods(http.MethodGet)
	r.HandleFunc("/api/exchanges", h.HandleExchangesList).Methods(http.MethodGet)

	return r
}

// HandleHealth returns a simple health check response.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
