package dispositions

import (
	"context"
	"fmt"
	"time"
)

// UserDirectory batch-resolves display names for history rendering.
type UserDirectory interface {
	GetNames(ctx context.Context, ids []string) (map[string]string, error)
}

// DNCWarning flags a prospect that must not be called, citing the most
// recent dnc entry's author and date.
type DNCWarning struct {
	By string    `json:"by"`
	At time.Time `json:"at"`
}

// HistoryView is the aggregated read side for a prospect's dispositions.
type HistoryView struct {
	Entries []Disposition `json:"entries"`
	DNC     *DNCWarning   `json:"dnc_warning,omitempty"`
}

// HistoryService assembles the history view.
type HistoryService struct {
	repo      Repository
	directory UserDirectory
}

func NewHistoryService(repo Repository, directory UserDirectory) *HistoryService {
	return &HistoryService{repo: repo, directory: directory}
}

// ForProspect fetches all dispositions newest-first and resolves display
// names for the distinct set of referenced user ids. A DNC warning is
// derived whenever any dnc entry exists.
func (s *HistoryService) ForProspect(ctx context.Context, prospectID int64) (*HistoryView, error) {
	entries, err := s.repo.ListByProspect(ctx, prospectID)
	if err != nil {
		return nil, err
	}

	distinct := map[string]struct{}{}
	for _, d := range entries {
		if d.UserName == "" && d.UserID != "" {
			distinct[d.UserID] = struct{}{}
		}
	}
	if len(distinct) > 0 && s.directory != nil {
		ids := make([]string, 0, len(distinct))
		for id := range distinct {
			ids = append(ids, id)
		}
		names, err := s.directory.GetNames(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("dispositions: resolve names: %w", err)
		}
		for i := range entries {
			if entries[i].UserName == "" {
				entries[i].UserName = names[entries[i].UserID]
			}
		}
	}

	view := &HistoryView{Entries: entries}
	// Entries are newest first, so the first dnc hit is the most recent.
	for _, d := range entries {
		if d.Type == TypeDNC {
			by := d.UserName
			if by == "" {
				by = UnknownUser
			}
			view.DNC = &DNCWarning{By: by, At: d.CreatedAt}
			break
		}
	}
	return view, nil
}
