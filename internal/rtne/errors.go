package rtne

import "errors"

var (
	ErrMasterNotFound     = errors.New("rtne: master prospect not found")
	ErrRowNotSaved        = errors.New("rtne: row not saved")
	ErrInvalidSlot        = errors.New("rtne: phone slot must be between 1 and 4")
	ErrMissingProject     = errors.New("rtne: project id is required")
	ErrMissingLinkedInURL = errors.New("rtne: linkedin url is required")
	ErrPendingDisposition = errors.New("rtne: a revealed number is awaiting a disposition")
	ErrJobNotFound        = errors.New("rtne: enrichment job not found")
)
