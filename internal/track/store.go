// Package track persists per-user watch records for lesson activities.
package track

import (
	"context"
	"time"
)

// Record is one row of the watch ledger. A record is "live" while
// ResetDate is zero; a completion reset stamps ResetDate and the row
// becomes immutable history.
type Record struct {
	ID           int64
	ActivityID   int64
	CourseID     int64
	UserID       int64
	WatchedAll   bool
	TimeModified time.Time
	ResetDate    int64
}

// Live reports whether this record is authoritative for completion.
func (r Record) Live() bool { return r.ResetDate == 0 }

// Ledger defines persistence operations for watch records.
type Ledger interface {
	// LiveRecord returns the record with reset_date = 0 for this
	// activity/user. A missing record is a soft miss, not an error.
	LiveRecord(ctx context.Context, activityID, userID int64) (Record, bool, error)

	// UpsertWatchedAll updates the live record's watched_all in place, or
	// inserts a new live record when none exists. Idempotent: repeating the
	// same value leaves the ledger equivalent, only time_modified advances.
	UpsertWatchedAll(ctx context.Context, activityID, courseID, userID int64, watchedAll bool) (Record, error)

	// MarkReset stamps reset_date on every live record for the user across
	// the course in a single update statement, and returns the number of
	// rows stamped. History is append-only: stamped rows never change again
	// and nothing is deleted.
	MarkReset(ctx context.Context, courseID, userID, resetEpoch int64) (int64, error)

	// MaxWatchedAll reports whether any live record for the activity/user
	// has watched_all set. This is the completion-rule evaluation read.
	MaxWatchedAll(ctx context.Context, activityID, userID int64) (bool, error)

	// LatestResetDate returns the most recent reset epoch across all
	// records for the activity/user, 0 when never reset. Forwarded to the
	// platform so pre-reset watch data is excluded from aggregation.
	LatestResetDate(ctx context.Context, activityID, userID int64) (int64, error)
}
