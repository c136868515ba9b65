package prospects

import (
	"context"
	"errors"
	"fmt"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/linkedin"
)

// LookupResult reports a LinkedIn lookup. Found is true when a stored record
// matched either the canonical URL exactly or the username as a substring.
type LookupResult struct {
	Found    bool      `json:"found"`
	Prospect *Prospect `json:"prospect,omitempty"`
}

// Lookup resolves LinkedIn URLs against stored prospects, exact match first
// and username substring second.
type Lookup struct {
	repo Repository
}

func NewLookup(repo Repository) *Lookup {
	return &Lookup{repo: repo}
}

// ByLinkedIn runs the two-stage match for one raw LinkedIn URL.
func (l *Lookup) ByLinkedIn(ctx context.Context, rawURL string) (*LookupResult, error) {
	canonical, username := linkedin.Normalize(rawURL)
	if canonical == "" {
		return nil, ErrMissingLinkedInURL
	}

	p, err := l.repo.GetByCanonicalURL(ctx, canonical)
	if err == nil {
		return &LookupResult{Found: true, Prospect: p}, nil
	}
	if !errors.Is(err, ErrProspectNotFound) {
		return nil, fmt.Errorf("prospects: lookup: %w", err)
	}

	matches, err := l.repo.SearchByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("prospects: lookup: %w", err)
	}
	if len(matches) > 0 {
		return &LookupResult{Found: true, Prospect: &matches[0]}, nil
	}
	return &LookupResult{Found: false}, nil
}

// FindOrCreate returns the stored record matching the request's LinkedIn URL,
// creating one only when no match exists. The bool reports whether a new row
// was written.
func (l *Lookup) FindOrCreate(ctx context.Context, req *CreateProspectRequest) (*Prospect, bool, error) {
	if err := req.Validate(); err != nil {
		return nil, false, err
	}

	if req.LinkedInURL != "" {
		res, err := l.ByLinkedIn(ctx, req.LinkedInURL)
		if err != nil && !errors.Is(err, ErrMissingLinkedInURL) {
			return nil, false, err
		}
		if res != nil && res.Found {
			return res.Prospect, false, nil
		}
	}

	p := req.toProspect()
	if err := l.repo.Create(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}
