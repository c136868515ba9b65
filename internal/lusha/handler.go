package lusha

import (
	"encoding/json"
	"net/http"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// Handler is the enrichment proxy endpoint. It exists so the browser never
// holds the Lusha key directly; the upstream status and body are relayed
// verbatim.
type Handler struct {
	client *Client
	logger *logging.Logger
}

func NewHandler(client *Client, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{client: client, logger: logger}
}

// Proxy handles POST /functions/lusha-enrich-proxy.
func (h *Handler) Proxy(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFromContext(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Params == (Params{}) {
		http.Error(w, "missing person parameters", http.StatusBadRequest)
		return
	}

	resp, err := h.client.Person(r.Context(), req)
	if err != nil {
		h.logger.Error("lusha proxy call failed", "error", err)
		http.Error(w, "enrichment call failed", http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	_, _ = w.Write(resp.Body)
}
