package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Record stores and caches return
// these (optionally wrapped) so services can translate them into domain errors.
//
//   - ErrNotFound: no record stored under the requested lattice ID
//   - ErrUnavailable: backing store or cache temporarily unreachable
//
// For validation failures (bad entity, bad config), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
)
