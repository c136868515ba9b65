package dispositions

import "errors"

var (
	// ErrMissingType is returned when no disposition type was selected.
	ErrMissingType = errors.New("disposition type is required")

	// ErrUnknownType is returned for values outside the enumeration.
	ErrUnknownType = errors.New("unknown disposition type")

	// ErrMissingReason is returned when type is "others" without a reason.
	ErrMissingReason = errors.New("a reason is required for the others disposition")

	// ErrMissingProspect is returned when no prospect id was supplied.
	ErrMissingProspect = errors.New("prospect id is required")
)
