package sentinel

import "errors"

// Sentinel errors for storage facts. Student stores and their cache decorators
// return these (optionally wrapped) so the service can translate them into
// domain errors without knowing which backend produced them.
//
//   - ErrNotFound: no record matches the lookup key
//   - ErrConflict: a unique key (id or matricula) is already taken
//   - ErrUnavailable: the backend cannot be reached right now
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
