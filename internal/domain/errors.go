package domain

import "errors"

// Sentinel errors shared across the pipeline.
var (
	// ErrNotFound is returned when an entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned on unique-constraint conflicts.
	ErrAlreadyExists = errors.New("already exists")
	// ErrQuotaExhausted is returned when a source's call budget for the
	// current window is fully consumed. It is an expected condition and
	// triggers the fallback chain.
	ErrQuotaExhausted = errors.New("quota exhausted")
	// ErrUnauthorized marks 401-class source failures. Never retried.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrItemDropped is returned when a payload is missing required
	// fields (text, source) and cannot be normalized.
	ErrItemDropped = errors.New("item dropped: missing required fields")
	// ErrLowConfidence is returned by a classifier strategy when its
	// result is below the usable confidence floor.
	ErrLowConfidence = errors.New("classification confidence too low")
)
