package prospects

import "errors"

var (
	ErrProspectNotFound   = errors.New("prospects: prospect not found")
	ErrMissingName        = errors.New("prospects: full name is required")
	ErrTooManyPhones      = errors.New("prospects: at most four phone numbers allowed")
	ErrMissingLinkedInURL = errors.New("prospects: linkedin url is required")
)
