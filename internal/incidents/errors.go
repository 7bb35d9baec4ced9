package incidents

import "errors"

// Storage errors. Only the repository returns these.
var (
	ErrRecordNotFound = errors.New("record not found")
)

// Service errors.
var (
	ErrNotFound = errors.New("incident not found")
)

// Request errors.
var (
	ErrIncidentIDMismatch = errors.New("incident_id in path and body differ")
)
