package rtne

import (
	"context"
	"errors"
	"fmt"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/linkedin"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/observability/metrics"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/users"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// PendingTracker is the reveal bookkeeping the service depends on.
type PendingTracker interface {
	MarkRevealed(ctx context.Context, userID string, prospectID int64, phones ...string) error
	HasPending(ctx context.Context, userID string) (bool, error)
	Clear(ctx context.Context, userID string, prospectID int64) error
}

// RoleLookup resolves a user's role for the admin exemption and override
// checks.
type RoleLookup interface {
	GetRole(ctx context.Context, id string) (string, error)
}

// Service orchestrates the enrichment workflow: gated lookup, master
// creation, credit allocation, and admin reassignment.
type Service struct {
	store     *Store
	tracker   PendingTracker
	roles     RoleLookup
	publisher *Publisher
	metrics   *metrics.EnrichmentMetrics
	logger    *logging.Logger
}

func NewService(store *Store, tracker PendingTracker, roles RoleLookup, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, tracker: tracker, roles: roles, logger: logger}
}

// WithPublisher enables asynchronous enrichment requests.
func (s *Service) WithPublisher(p *Publisher) *Service {
	s.publisher = p
	return s
}

// WithMetrics attaches credit/job counters.
func (s *Service) WithMetrics(m *metrics.EnrichmentMetrics) *Service {
	s.metrics = m
	return s
}

// LookupRequest carries one gated lookup call.
type LookupRequest struct {
	LinkedInURL string `json:"linkedin_url"`
	ProjectID   string `json:"project_id"`
}

// Lookup resolves a LinkedIn URL against the master table, exact canonical
// match first and username substring second. A hit links the record to the
// caller's project (allocating a credit on first linkage) and marks the
// revealed phones as awaiting a disposition. Callers with an unresolved
// reveal are refused unless they are admins.
func (s *Service) Lookup(ctx context.Context, userID string, req LookupRequest) (*LookupResult, error) {
	if err := s.checkPendingGate(ctx, userID); err != nil {
		return nil, err
	}

	canonical, username := linkedin.Normalize(req.LinkedInURL)
	if canonical == "" {
		return nil, ErrMissingLinkedInURL
	}

	master, err := s.store.FindMasterByCanonicalURL(ctx, canonical)
	if errors.Is(err, ErrMasterNotFound) {
		master, err = s.store.FindMasterByUsername(ctx, username)
	}
	if errors.Is(err, ErrMasterNotFound) {
		return &LookupResult{Found: false}, nil
	}
	if err != nil {
		return nil, err
	}

	res := &LookupResult{Found: true, Master: master}
	if req.ProjectID != "" {
		allocated, err := s.store.EnsureMapping(ctx, master.ID, req.ProjectID, userID)
		if err != nil {
			return nil, err
		}
		res.Credit = allocated
		if allocated {
			s.metrics.ObserveCredit(CreditActionAllocate)
			s.logger.Info("credit allocated", "master_id", master.ID, "project_id", req.ProjectID, "actor", userID)
		}
	}

	if len(master.Phones) > 0 {
		if err := s.tracker.MarkRevealed(ctx, userID, master.ID, master.Phones...); err != nil {
			s.logger.Warn("failed to mark reveal", "error", err, "master_id", master.ID)
		}
	}
	return res, nil
}

// CreateRequest carries a create-and-link call for a record the lookup could
// not find.
type CreateRequest struct {
	FullName    string   `json:"full_name"`
	Company     string   `json:"company"`
	Designation string   `json:"designation"`
	Location    string   `json:"location"`
	Phones      []string `json:"phones"`
	Email       string   `json:"email"`
	LinkedInURL string   `json:"linkedin_url"`
	ProjectID   string   `json:"project_id"`
}

// Create inserts a master record and links it to the caller's project,
// allocating the introduction credit.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*LookupResult, error) {
	if err := s.checkPendingGate(ctx, userID); err != nil {
		return nil, err
	}
	if req.ProjectID == "" {
		return nil, ErrMissingProject
	}

	canonical, _ := linkedin.Normalize(req.LinkedInURL)
	master := &MasterProspect{
		FullName:     req.FullName,
		Company:      req.Company,
		Designation:  req.Designation,
		Location:     req.Location,
		Phones:       req.Phones,
		Email:        req.Email,
		LinkedInURL:  req.LinkedInURL,
		CanonicalURL: canonical,
	}
	if err := s.store.CreateMaster(ctx, master); err != nil {
		return nil, err
	}

	allocated, err := s.store.EnsureMapping(ctx, master.ID, req.ProjectID, userID)
	if err != nil {
		return nil, err
	}
	if allocated {
		s.metrics.ObserveCredit(CreditActionAllocate)
	}
	return &LookupResult{Found: true, Master: master, Credit: allocated}, nil
}

// ReassignCredit is the admin override. The caller's role must already be
// verified; this runs the clear/ensure/set/log sequence and surfaces any
// mid-sequence failure to the caller.
func (s *Service) ReassignCredit(ctx context.Context, actor string, masterID int64, toProjectID, reason string) error {
	if err := s.store.ReassignCredit(ctx, masterID, toProjectID, actor, reason); err != nil {
		return err
	}
	s.metrics.ObserveCredit(CreditActionReassign)
	s.logger.Info("credit reassigned", "master_id", masterID, "to_project_id", toProjectID, "actor", actor, "reason", reason)
	return nil
}

// SetPhoneDisposition records an outcome against one phone slot and clears
// the caller's pending reveal for that record.
func (s *Service) SetPhoneDisposition(ctx context.Context, userID string, masterID int64, slot int, value string) (*PhoneDisposition, error) {
	d, err := s.store.SetPhoneDisposition(ctx, masterID, slot, value, userID)
	if err != nil {
		return nil, err
	}
	if err := s.tracker.Clear(ctx, userID, masterID); err != nil {
		s.logger.Warn("failed to clear pending reveal", "error", err, "master_id", masterID)
	}
	return d, nil
}

// RequestEnrichment queues an asynchronous enrichment run for a master
// record and returns the job id.
func (s *Service) RequestEnrichment(ctx context.Context, userID string, masterID int64) (string, error) {
	if s.publisher == nil {
		return "", fmt.Errorf("rtne: enrichment queue not configured")
	}
	if _, err := s.store.GetMaster(ctx, masterID); err != nil {
		return "", err
	}
	return s.publisher.Enqueue(ctx, masterID, userID)
}

// IsAdmin resolves the caller's role.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	role, err := s.roles.GetRole(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	return role == users.RoleAdmin, nil
}

// checkPendingGate refuses the search entry points while the caller owes a
// disposition for a previously revealed number. Admins are exempt.
func (s *Service) checkPendingGate(ctx context.Context, userID string) error {
	admin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return err
	}
	if admin {
		return nil
	}
	pending, err := s.tracker.HasPending(ctx, userID)
	if err != nil {
		return err
	}
	if pending {
		return ErrPendingDisposition
	}
	return nil
}
