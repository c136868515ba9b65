package dispositions

import (
	"context"
	"errors"
	"testing"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/auth"
	"github.com/prashantsingh432/prospect-pulse-searcher/internal/users"
)

type failingSyncer struct{ calls int }

func (f *failingSyncer) SyncProfile(ctx context.Context, sess auth.Session) users.SyncResult {
	f.calls++
	return users.SyncResult{Err: errors.New("profile service down")}
}

func newTestService(t *testing.T) (*Service, *InMemoryRepository, *users.InMemoryRepository) {
	t.Helper()
	repo := NewInMemoryRepository()
	profiles := users.NewInMemoryRepository()
	svc := NewService(repo, profiles, users.NewSyncer(profiles), nil)
	return svc, repo, profiles
}

func TestCreateRejectsOthersWithoutReason(t *testing.T) {
	svc, repo, _ := newTestService(t)

	_, err := svc.Create(context.Background(), auth.Session{UserID: "u1"}, &CreateRequest{
		ProspectID: 42,
		Type:       "others",
	})
	if !errors.Is(err, ErrMissingReason) {
		t.Fatalf("expected ErrMissingReason, got %v", err)
	}

	rows, _ := repo.ListByProspect(context.Background(), 42)
	if len(rows) != 0 {
		t.Error("no write may happen on validation failure")
	}
}

func TestCreateRejectsMissingType(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.Create(context.Background(), auth.Session{UserID: "u1"}, &CreateRequest{ProspectID: 42})
	if !errors.Is(err, ErrMissingType) {
		t.Fatalf("expected ErrMissingType, got %v", err)
	}
}

func TestCreateDropsReasonForNonOthers(t *testing.T) {
	svc, repo, _ := newTestService(t)

	d, err := svc.Create(context.Background(), auth.Session{UserID: "u1"}, &CreateRequest{
		ProspectID:   42,
		Type:         "wrong_number",
		CustomReason: "typed by accident",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.CustomReason != nil {
		t.Errorf("custom_reason must be null for non-others, got %v", *d.CustomReason)
	}

	rows, _ := repo.ListByProspect(context.Background(), 42)
	if len(rows) != 1 || rows[0].CustomReason != nil {
		t.Error("persisted row must carry null custom_reason")
	}
}

func TestCreateStoresReasonForOthers(t *testing.T) {
	svc, _, _ := newTestService(t)

	d, err := svc.Create(context.Background(), auth.Session{UserID: "u1"}, &CreateRequest{
		ProspectID:   42,
		Type:         "others",
		CustomReason: "  asked to email instead  ",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.CustomReason == nil || *d.CustomReason != "asked to email instead" {
		t.Errorf("expected trimmed reason, got %v", d.CustomReason)
	}
}

func TestCreateAcceptsLegacyNotConnected(t *testing.T) {
	svc, _, _ := newTestService(t)

	d, err := svc.Create(context.Background(), auth.Session{UserID: "u1"}, &CreateRequest{
		ProspectID: 42,
		Type:       "not_connected",
	})
	if err != nil {
		t.Fatalf("legacy value must be tolerated: %v", err)
	}
	if d.Type != TypeNotConnected || !d.Type.Legacy() {
		t.Errorf("legacy value must be preserved as stored, got %s", d.Type)
	}
}

func TestCreateSurvivesFailedProfileSync(t *testing.T) {
	repo := NewInMemoryRepository()
	profiles := users.NewInMemoryRepository()
	syncer := &failingSyncer{}
	svc := NewService(repo, profiles, syncer, nil)

	_, err := svc.Create(context.Background(), auth.Session{UserID: "u1"}, &CreateRequest{
		ProspectID: 7,
		Type:       "dnc",
	})
	if err != nil {
		t.Fatalf("sync failure must not block the write: %v", err)
	}
	if syncer.calls != 1 {
		t.Errorf("expected one sync attempt, got %d", syncer.calls)
	}
}

func TestCreatePrivilegedSnapshotChain(t *testing.T) {
	tests := []struct {
		name        string
		profile     *users.User
		sess        auth.Session
		wantUser    string
		wantProject string
	}{
		{
			name:        "stored profile name wins",
			profile:     &users.User{ID: "u1", Name: "Stored Name", Email: "p@example.com", ProjectName: "Acme"},
			sess:        auth.Session{UserID: "u1", Email: "s@example.com", FullName: "Session Name"},
			wantUser:    "Stored Name",
			wantProject: "Acme",
		},
		{
			name:        "session full name next",
			profile:     &users.User{ID: "u1", Email: ""},
			sess:        auth.Session{UserID: "u1", Email: "s@example.com", FullName: "Session Name"},
			wantUser:    "Session Name",
			wantProject: UnknownProject,
		},
		{
			name:        "profile email local-part next",
			profile:     &users.User{ID: "u1", Email: "profilelocal@example.com"},
			sess:        auth.Session{UserID: "u1", Email: "sessionlocal@example.com"},
			wantUser:    "profilelocal",
			wantProject: UnknownProject,
		},
		{
			name:        "session email local-part next",
			sess:        auth.Session{UserID: "u1", Email: "sessionlocal@example.com"},
			wantUser:    "sessionlocal",
			wantProject: UnknownProject,
		},
		{
			name:        "unknown user last",
			sess:        auth.Session{UserID: "u1"},
			wantUser:    UnknownUser,
			wantProject: UnknownProject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewInMemoryRepository()
			profiles := users.NewInMemoryRepository()
			if tt.profile != nil {
				_ = profiles.Create(context.Background(), tt.profile)
			}
			svc := NewService(repo, profiles, nil, nil)

			d, err := svc.CreatePrivileged(context.Background(), tt.sess, &CreateRequest{
				ProspectID: 1,
				Type:       "not_interested",
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
			if d.UserName != tt.wantUser {
				t.Errorf("user_name = %q, want %q", d.UserName, tt.wantUser)
			}
			if d.ProjectName != tt.wantProject {
				t.Errorf("project_name = %q, want %q", d.ProjectName, tt.wantProject)
			}
		})
	}
}

type recordingClearer struct {
	userID     string
	prospectID int64
	calls      int
}

func (c *recordingClearer) Clear(ctx context.Context, userID string, prospectID int64) error {
	c.userID = userID
	c.prospectID = prospectID
	c.calls++
	return nil
}

func TestCreateClearsPendingReveal(t *testing.T) {
	svc, _, _ := newTestService(t)
	clearer := &recordingClearer{}
	svc.WithRevealClearer(clearer)

	_, err := svc.Create(context.Background(), auth.Session{UserID: "agent-9"}, &CreateRequest{
		ProspectID: 42,
		Type:       "dnc",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if clearer.calls != 1 || clearer.userID != "agent-9" || clearer.prospectID != 42 {
		t.Errorf("reveal clear not invoked correctly: %+v", clearer)
	}
}
