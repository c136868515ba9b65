package rtne

import "time"

// PhoneSlots is the number of phone columns a master record carries.
const PhoneSlots = 4

// MasterProspect is the enrichment-side contact record. A master record can
// be linked to many projects through ProjectMapping rows.
type MasterProspect struct {
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
}

// ProjectMapping links one master record to one project. CreditAllocated
// flips false to true at most once per (master, project) pair.
type ProjectMapping struct {
	ID               int64     `json:"id"`
	MasterProspectID int64     `json:"master_prospect_id"`
	ProjectID        string    `json:"project_id"`
	CreditAllocated  bool      `json:"credit_allocated"`
	CreatedAt        time.Time `json:"created_at"`
}

// Credit log actions.
const (
	CreditActionAllocate = "allocate"
	CreditActionReassign = "reassign"
)

// CreditLogEntry is one append-only audit row for a credit mutation.
type CreditLogEntry struct {
	ID               int64     `json:"id"`
	MasterProspectID int64     `json:"master_prospect_id"`
	ProjectID        string    `json:"project_id"`
	Action           string    `json:"action"`
	Actor            string    `json:"actor"`
	Reason           string    `json:"reason,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// PhoneDisposition records the outcome dialed against one phone slot.
type PhoneDisposition struct {
	MasterProspectID int64     `json:"master_prospect_id"`
	Slot             int       `json:"slot"`
	Value            string    `json:"value"`
	UpdatedBy        string    `json:"updated_by"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Enrichment job states. There is no failure state: an error during
// processing propagates to the caller and the job stays in processing.
const (
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
)

// EnrichmentResult is the payload produced by a completed enrichment run.
type EnrichmentResult struct {
	SuggestedEmails []string `json:"suggested_emails"`
	SuggestedPhones []string `json:"suggested_phones"`
}

// EnrichmentJob tracks one asynchronous enrichment attempt.
type EnrichmentJob struct {
	ID               string            `json:"id"`
	MasterProspectID int64             `json:"master_prospect_id"`
	RequestedBy      string            `json:"requested_by"`
	Status           string            `json:"status"`
	Result           *EnrichmentResult `json:"result,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

// LookupResult reports a master-record lookup.
type LookupResult struct {
	Found  bool            `json:"found"`
	Master *MasterProspect `json:"master,omitempty"`
	// Credit is true when this lookup allocated a new credit for the
	// caller's project.
	Credit bool `json:"credit_allocated"`
}
