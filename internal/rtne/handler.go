package rtne

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// Handler exposes the RTNE endpoints.
type Handler struct {
	service *Service
	jobs    *JobStore
	logger  *logging.Logger
}

func NewHandler(service *Service, jobs *JobStore, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, jobs: jobs, logger: logger}
}

// Lookup handles POST /functions/rtne-lookup.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req LookupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.service.Lookup(r.Context(), sess.UserID, req)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Create handles POST /functions/rtne-create: insert a master record the
// lookup could not find, linking it to the caller's project.
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

	res, err := h.service.Create(r.Context(), sess.UserID, req)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// adminOverrideRequest is the POST /functions/rtne-admin-override body.
type adminOverrideRequest struct {
	Action           string `json:"action"`
	MasterProspectID int64  `json:"master_prospect_id"`
	ToProjectID      string `json:"to_project_id"`
	Reason           string `json:"reason"`
}

// AdminOverride handles POST /functions/rtne-admin-override. Only the
// reassign_credit action exists; callers must hold the admin role.
func (h *Handler) AdminOverride(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	admin, err := h.service.IsAdmin(r.Context(), sess.UserID)
	if err != nil {
		h.logger.Error("role lookup failed", "error", err, "user_id", sess.UserID)
		http.Error(w, "role lookup failed", http.StatusInternalServerError)
		return
	}
	if !admin {
		http.Error(w, "admin role required", http.StatusForbidden)
		return
	}

	var req adminOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Action != "reassign_credit" {
		http.Error(w, "unknown action", http.StatusBadRequest)
		return
	}

	if err := h.service.ReassignCredit(r.Context(), sess.UserID, req.MasterProspectID, req.ToProjectID, req.Reason); err != nil {
		if errors.Is(err, ErrMissingProject) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("credit reassignment failed", "error", err, "master_id", req.MasterProspectID)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reassigned"})
}

// phoneDispositionRequest is the per-slot outcome body.
type phoneDispositionRequest struct {
	MasterProspectID int64  `json:"master_prospect_id"`
	Slot             int    `json:"slot"`
	Value            string `json:"value"`
}

// PhoneDisposition handles POST /functions/rtne-phone-disposition.
func (h *Handler) PhoneDisposition(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req phoneDispositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	d, err := h.service.SetPhoneDisposition(r.Context(), sess.UserID, req.MasterProspectID, req.Slot, req.Value)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSlot):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrRowNotSaved):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			h.logger.Error("phone disposition failed", "error", err, "master_id", req.MasterProspectID)
			http.Error(w, "failed to save disposition", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// Enrich handles POST /functions/rtne-enrich: queue an asynchronous
// enrichment run and return the job id for polling.
func (h *Handler) Enrich(w http.ResponseWriter, r *http.Request) {
	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		MasterProspectID int64 `json:"master_prospect_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	jobID, err := h.service.RequestEnrichment(r.Context(), sess.UserID, req.MasterProspectID)
	if err != nil {
		if errors.Is(err, ErrMasterNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to queue enrichment", "error", err, "master_id", req.MasterProspectID)
		http.Error(w, "failed to queue enrichment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID, "status": JobStatusProcessing})
}

// Job handles GET /functions/rtne-job?id=: poll an enrichment job.
func (h *Handler) Job(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.SessionFromContext(r.Context()); !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "missing job id", http.StatusBadRequest)
		return
	}
	job, err := h.jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrJobNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("job lookup failed", "error", err, "job_id", id)
		http.Error(w, "job lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *Handler) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPendingDisposition):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrMissingLinkedInURL), errors.Is(err, ErrMissingProject):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.logger.Error("rtne lookup failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
