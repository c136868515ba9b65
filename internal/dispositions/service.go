package dispositions

import (
	"context"
	"errors"
	"fmt"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/observability/metrics"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/users"
	"github.com/prashantsingh432/prospect-pulse-searcher/pkg/logging"
)

// Snapshot fallbacks when no better name can be resolved.
const (
	UnknownUser    = "Unknown User"
	UnknownProject = "Unknown Project"
)

// ProfileSyncer performs the best-effort profile sync side call.
type ProfileSyncer interface {
	SyncProfile(ctx context.Context, sess auth.Session) users.SyncResult
}

// ProfileStore reads the stored application profile.
type ProfileStore interface {
	Get(ctx context.Context, id string) (*users.User, error)
}

// RevealClearer releases pending-disposition markers once an outcome is
// recorded for the prospect.
type RevealClearer interface {
	Clear(ctx context.Context, userID string, prospectID int64) error
}

// ChangePublisher announces the inserted row to realtime subscribers.
type ChangePublisher interface {
	PublishInsert(ctx context.Context, table string, row map[string]any) error
}

// Service implements both disposition write paths. The two paths persist the
// same fields; the privileged one additionally resolves and stores the
// denormalized user/project snapshot.
type Service struct {
	repo      Repository
	profiles  ProfileStore
	syncer    ProfileSyncer
	reveals   RevealClearer
	publisher ChangePublisher
	metrics   *metrics.DispositionMetrics
	logger    *logging.Logger
}

func NewService(repo Repository, profiles ProfileStore, syncer ProfileSyncer, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, profiles: profiles, syncer: syncer, logger: logger}
}

// WithRevealClearer attaches the pending-reveal tracker.
func (s *Service) WithRevealClearer(rc RevealClearer) *Service {
	s.reveals = rc
	return s
}

// WithPublisher attaches the realtime change publisher.
func (s *Service) WithPublisher(p ChangePublisher) *Service {
	s.publisher = p
	return s
}

// WithMetrics attaches disposition counters.
func (s *Service) WithMetrics(m *metrics.DispositionMetrics) *Service {
	s.metrics = m
	return s
}

// Create is the client-equivalent path: the acting user id is taken from the
// session as-is and no display-name snapshot is resolved.
func (s *Service) Create(ctx context.Context, sess auth.Session, req *CreateRequest) (*Disposition, error) {
	t, err := req.Validate()
	if err != nil {
		return nil, err
	}

	s.syncBestEffort(ctx, sess)

	d := &Disposition{
		ProspectID:   req.ProspectID,
		UserID:       sess.UserID,
		Type:         t,
		CustomReason: reasonFor(t, req.CustomReason),
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, err
	}
	s.afterInsert(ctx, sess, d, "client")
	return d, nil
}

// CreatePrivileged re-derives the acting user from the authenticated session
// and stores the resolved user_name/project_name snapshot alongside the row.
func (s *Service) CreatePrivileged(ctx context.Context, sess auth.Session, req *CreateRequest) (*Disposition, error) {
	t, err := req.Validate()
	if err != nil {
		return nil, err
	}

	s.syncBestEffort(ctx, sess)

	profile, err := s.profiles.Get(ctx, sess.UserID)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		return nil, fmt.Errorf("dispositions: load profile: %w", err)
	}

	userName, projectName := resolveSnapshot(profile, sess)
	d := &Disposition{
		ProspectID:   req.ProspectID,
		UserID:       sess.UserID,
		Type:         t,
		CustomReason: reasonFor(t, req.CustomReason),
		UserName:     userName,
		ProjectName:  projectName,
	}
	if err := s.repo.Insert(ctx, d); err != nil {
		return nil, err
	}
	s.afterInsert(ctx, sess, d, "privileged")
	return d, nil
}

// resolveSnapshot walks the ordered fallback chain for the denormalized
// display name and project name.
func resolveSnapshot(profile *users.User, sess auth.Session) (userName, projectName string) {
	userName = UnknownUser
	switch {
	case profile != nil && profile.Name != "":
		userName = profile.Name
	case sess.FullName != "":
		userName = sess.FullName
	case profile != nil && users.EmailLocalPart(profile.Email) != "":
		userName = users.EmailLocalPart(profile.Email)
	case users.EmailLocalPart(sess.Email) != "":
		userName = users.EmailLocalPart(sess.Email)
	}

	projectName = UnknownProject
	if profile != nil && profile.ProjectName != "" {
		projectName = profile.ProjectName
	}
	return userName, projectName
}

// syncBestEffort runs the profile sync side call. Failures are logged and
// swallowed; they never block the disposition write.
func (s *Service) syncBestEffort(ctx context.Context, sess auth.Session) {
	if s.syncer == nil {
		return
	}
	if res := s.syncer.SyncProfile(ctx, sess); res.Err != nil {
		s.logger.Warn("profile sync failed", "user_id", sess.UserID, "error", res.Err)
	}
}

func (s *Service) afterInsert(ctx context.Context, sess auth.Session, d *Disposition, path string) {
	s.metrics.ObserveCreated(string(d.Type), path)

	if s.reveals != nil {
		if err := s.reveals.Clear(ctx, sess.UserID, d.ProspectID); err != nil {
			s.logger.Warn("pending reveal clear failed", "user_id", sess.UserID, "prospect_id", d.ProspectID, "error", err)
		}
	}
	if s.publisher != nil {
		row := map[string]any{
			"id":               d.ID,
			"prospect_id":      d.ProspectID,
			"user_id":          d.UserID,
			"disposition_type": string(d.Type),
			"created_at":       d.CreatedAt,
		}
		if err := s.publisher.PublishInsert(ctx, "dispositions", row); err != nil {
			s.logger.Warn("disposition publish failed", "error", err)
		}
	}
}
