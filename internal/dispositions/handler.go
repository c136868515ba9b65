package dispositions

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// Handler exposes the disposition write and history endpoints.
type Handler struct {
	service *Service
	history *HistoryService
	logger  *logging.Logger
}

func NewHandler(service *Service, history *HistoryService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, history: history, logger: logger}
}

// Create handles POST /functions/create-disposition. The acting user comes
// from the authenticated session, never from the request body.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.service.CreatePrivileged(r.Context(), sess, &req)
	if err != nil {
		if isValidationError(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("disposition write failed", "error", err, "prospect_id", req.ProspectID)
		http.Error(w, "failed to create disposition", http.StatusInternalServerError)
		return
	}

	h.logger.Info("disposition created",
		"id", d.ID,
		"prospect_id", d.ProspectID,
		"disposition_type", string(d.Type),
	)
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(d)
}

// History handles GET /prospects/{prospectID}/dispositions.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	prospectID, err := strconv.ParseInt(chi.URLParam(r, "prospectID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid prospect id", http.StatusBadRequest)
		return
	}

	view, err := h.history.ForProspect(r.Context(), prospectID)
	if err != nil {
		h.logger.Error("history fetch failed", "error", err, "prospect_id", prospectID)
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(view)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrMissingType) ||
		errors.Is(err, ErrUnknownType) ||
		errors.Is(err, ErrMissingReason) ||
		errors.Is(err, ErrMissingProspect)
}
