package dispositions

import (
	"strings"
	"time"
)

// Type is the closed set of call outcomes an agent can record.
type Type string

const (
	TypeNotInterested Type = "not_interested"
	TypeWrongNumber   Type = "wrong_number"
	TypeDNC           Type = "dnc"
	TypeCallBackLater Type = "call_back_later"
	TypeNotRelevant   Type = "not_relevant"
	TypeOthers        Type = "others"

	// TypeNotConnected predates the current enumeration. Rows carrying it
	// still exist and older extension builds still submit it, so both reads
	// and writes tolerate the value. It is preserved as stored, never
	// rewritten to a current tag.
	TypeNotConnected Type = "not_connected"
)

// ParseType validates a wire value against the enumeration, legacy value
// included.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	switch t {
	case TypeNotInterested, TypeWrongNumber, TypeDNC, TypeCallBackLater, TypeNotRelevant, TypeOthers:
		return t, nil
	case TypeNotConnected:
		return t, nil
	case "":
		return "", ErrMissingType
	default:
		return "", ErrUnknownType
	}
}

// Legacy reports whether the value comes from the retired enumeration.
func (t Type) Legacy() bool {
	return t == TypeNotConnected
}

// Disposition is one append-only outcome record for a prospect. UserName and
// ProjectName are snapshots captured at write time so history stays readable
// if the user record changes later.
type Disposition struct {
	ID           string    `json:"id"`
	ProspectID   int64     `json:"prospect_id"`
	UserID       string    `json:"user_id"`
	Type         Type      `json:"disposition_type"`
	CustomReason *string   `json:"custom_reason,omitempty"`
	UserName     string    `json:"user_name,omitempty"`
	ProjectName  string    `json:"project_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// CreateRequest is the submission payload shared by both call paths.
type CreateRequest struct {
	ProspectID   int64  `json:"prospect_id"`
	Type         string `json:"disposition_type"`
	CustomReason string `json:"custom_reason,omitempty"`
}

// Validate checks the selection rules: a type must be chosen, and a reason
// is required exactly when the type is "others".
func (r *CreateRequest) Validate() (Type, error) {
	if r.ProspectID == 0 {
		return "", ErrMissingProspect
	}
	t, err := ParseType(r.Type)
	if err != nil {
		return "", err
	}
	if t == TypeOthers && strings.TrimSpace(r.CustomReason) == "" {
		return "", ErrMissingReason
	}
	return t, nil
}

// reasonFor returns the custom reason to persist: non-nil only for "others".
func reasonFor(t Type, raw string) *string {
	if t != TypeOthers {
		return nil
	}
	reason := strings.TrimSpace(raw)
	return &reason
}
