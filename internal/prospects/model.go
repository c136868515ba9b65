package prospects

import (
	"strings"
	"time"

	"github.com/prashantsingh432/prospect-pulse-searcher/internal/linkedin"
)

// MaxPhones caps how many phone numbers a prospect record carries.
const MaxPhones = 4

// Prospect is one contact record. CanonicalURL is derived from LinkedInURL
// and is the deduplication key: two records describe the same contact when
// their canonical URLs (or extracted usernames) match.
type Prospect struct {
	ID           int64     `json:"id"`
	FullName     string    `json:"full_name"`
	Company      string    `json:"company"`
	Designation  string    `json:"designation"`
	Location     string    `json:"location"`
	Phones       []string  `json:"phones"`
	Email        string    `json:"email"`
	LinkedInURL  string    `json:"linkedin_url"`
	CanonicalURL string    `json:"canonical_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Username returns the LinkedIn username extracted from the stored URL.
func (p *Prospect) Username() string {
	return linkedin.Username(p.LinkedInURL)
}

// CreateProspectRequest is the write payload for new prospect records.
type CreateProspectRequest struct {
	FullName    string   `json:"full_name"`
	Company     string   `json:"company"`
	Designation string   `json:"designation"`
	Location    string   `json:"location"`
	Phones      []string `json:"phones"`
	Email       string   `json:"email"`
	LinkedInURL string   `json:"linkedin_url"`
}

// Validate checks required fields and the phone cap.
func (r *CreateProspectRequest) Validate() error {
	if strings.TrimSpace(r.FullName) == "" {
		return ErrMissingName
	}
	if len(r.Phones) > MaxPhones {
		return ErrTooManyPhones
	}
	return nil
}

// toProspect builds the record, deriving the canonical URL.
func (r *CreateProspectRequest) toProspect() *Prospect {
	canonical, _ := linkedin.Normalize(r.LinkedInURL)
	phones := r.Phones
	if phones == nil {
		phones = []string{}
	}
	return &Prospect{
		FullName:     strings.TrimSpace(r.FullName),
		Company:      r.Company,
		Designation:  r.Designation,
		Location:     r.Location,
		Phones:       phones,
		Email:        r.Email,
		LinkedInURL:  r.LinkedInURL,
		CanonicalURL: canonical,
	}
}

// SearchQuery filters prospects. Empty fields are ignored; set fields match
// as case-insensitive substrings.
type SearchQuery struct {
	Name     string `json:"name"`
	Company  string `json:"company"`
	Location string `json:"location"`
}

func (q SearchQuery) empty() bool {
	return q.Name == "" && q.Company == "" && q.Location == ""
}
