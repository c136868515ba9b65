package prospects

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// Handler exposes prospect CRUD, search, and the LinkedIn lookup endpoint.
type Handler struct {
	repo   Repository
	lookup *Lookup
	logger *logging.Logger
}

func NewHandler(repo Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, lookup: NewLookup(repo), logger: logger}
}

// List handles GET /prospects?offset=&limit=.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	out, err := h.repo.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("prospect list failed", "error", err)
		http.Error(w, "failed to list prospects", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Search handles POST /prospects/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var q SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	out, err := h.repo.Search(r.Context(), q)
	if err != nil {
		h.logger.Error("prospect search failed", "error", err)
		http.Error(w, "search failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Get handles GET /prospects/{prospectID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "prospectID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid prospect id", http.StatusBadRequest)
		return
	}
	p, err := h.repo.Get(r.Context(), id)
	if errors.Is(err, ErrProspectNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("prospect fetch failed", "error", err, "prospect_id", id)
		http.Error(w, "failed to load prospect", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Create handles POST /prospects. Creation goes through the
// lookup-before-create path so duplicate LinkedIn URLs resolve to the
// existing record instead of writing a second one.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	p, created, err := h.lookup.FindOrCreate(r.Context(), &req)
	if err != nil {
		if errors.Is(err, ErrMissingName) || errors.Is(err, ErrTooManyPhones) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("prospect create failed", "error", err)
		http.Error(w, "failed to create prospect", http.StatusInternalServerError)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, p)
}

// Update handles PUT /prospects/{prospectID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "prospectID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid prospect id", http.StatusBadRequest)
		return
	}

	var req CreateProspectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p := req.toProspect()
	p.ID = id
	if err := h.repo.Update(r.Context(), p); err != nil {
		if errors.Is(err, ErrProspectNotFound) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		h.logger.Error("prospect update failed", "error", err, "prospect_id", id)
		http.Error(w, "failed to update prospect", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /prospects/{prospectID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "prospectID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid prospect id", http.StatusBadRequest)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("prospect delete failed", "error", err, "prospect_id", id)
		http.Error(w, "failed to delete prospect", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// LookupByLinkedIn handles POST /functions/rtne-lookup-style queries against
// the general prospect table: body {"linkedin_url": "..."}.
func (h *Handler) LookupByLinkedIn(w http.ResponseWriter, r *http.Request) {
	var body struct {
		LinkedInURL string `json:"linkedin_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	res, err := h.lookup.ByLinkedIn(r.Context(), body.LinkedInURL)
	if err != nil {
		if errors.Is(err, ErrMissingLinkedInURL) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("linkedin lookup failed", "error", err)
		http.Error(w, "lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
