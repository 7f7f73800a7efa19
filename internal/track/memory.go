package track

import (
	"context"
	"sync"
	"time"
)

// InMemoryLedger is a development-only in-memory implementation.
// State is lost on restart and does not work across instances.
type InMemoryLedger struct {
	mu      sync.Mutex
	nextID  int64
	records []*Record

	// now is swappable for tests.
	now func() time.Time
}

func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{now: time.Now}
}

func (l *InMemoryLedger) live(activityID, userID int64) *Record {
	for _, r := range l.records {
		if r.ActivityID == activityID && r.UserID == userID && r.ResetDate == 0 {
			return r
		}
	}
	return nil
}

func (l *InMemoryLedger) LiveRecord(_ context.Context, activityID, userID int64) (Record, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r := l.live(activityID, userID); r != nil {
		return *r, true, nil
	}
	return Record{}, false, nil
}

func (l *InMemoryLedger) UpsertWatchedAll(_ context.Context, activityID, courseID, userID int64, watchedAll bool) (Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if r := l.live(activityID, userID); r != nil {
		r.WatchedAll = watchedAll
		r.TimeModified = l.now().UTC()
		return *r, nil
	}

	l.nextID++
	r := &Record{
		ID:           l.nextID,
		ActivityID:   activityID,
		CourseID:     courseID,
		UserID:       userID,
		WatchedAll:   watchedAll,
		TimeModified: l.now().UTC(),
	}
	l.records = append(l.records, r)
	return *r, nil
}

func (l *InMemoryLedger) MarkReset(_ context.Context, courseID, userID, resetEpoch int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var stamped int64
	for _, r := range l.records {
		if r.CourseID == courseID && r.UserID == userID && r.ResetDate == 0 {
			r.ResetDate = resetEpoch
			stamped++
		}
	}
	return stamped, nil
}

func (l *InMemoryLedger) MaxWatchedAll(_ context.Context, activityID, userID int64) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if r := l.live(activityID, userID); r != nil {
		return r.WatchedAll, nil
	}
	return false, nil
}

func (l *InMemoryLedger) LatestResetDate(_ context.Context, activityID, userID int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var latest int64
	for _, r := range l.records {
		if r.ActivityID == activityID && r.UserID == userID && r.ResetDate > latest {
			latest = r.ResetDate
		}
	}
	return latest, nil
}

// History returns a copy of every record for an activity/user, resets
// included. Test helper.
func (l *InMemoryLedger) History(activityID, userID int64) []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Record
	for _, r := range l.records {
		if r.ActivityID == activityID && r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out
}
