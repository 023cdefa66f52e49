// Package service contains the business rules of the pose library API.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, scopes by owner, hydrates responses
//	Repository (data layer)  → memory or SQLite store
//
// OWNERSHIP:
// Repositories return records regardless of owner. Every id-addressed
// service method compares the record's UserID with the caller's and reports
// a record owned by someone else as apperror.NotFound, exactly like a
// missing one. Existence never leaks across users.
//
// HYDRATION:
// Fields derived from other collections (a pose's category_name, a
// sequence's duration_seconds) are computed here at response time and never
// stored.
package service

import (
	"errors"
	"time"

	"github.com/sakif/pose-mock/internal/apperror"
)

// Pagination defaults per list endpoint.
const (
	DefaultPoseLimit     = 100
	DefaultSequenceLimit = 20
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// SystemClock is the Clock used outside tests.
func SystemClock() time.Time {
	return time.Now().UTC()
}

func isNotFound(err error) bool {
	return errors.Is(err, apperror.ErrNotFound)
}

// pageBounds replaces negative values with the defaults.
func pageBounds(skip, limit, defaultLimit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit < 0 {
		limit = defaultLimit
	}
	return skip, limit
}
