package progress

import (
	"sync"

	"github.com/example/lessontrack/internal/resource"
)

// Session is the per-playback watch context for one video inside a
// resource. It replaces ambient page state with an explicit value passed
// through the reporting pipeline.
type Session struct {
	mu sync.Mutex

	ActivityID   int64
	CourseID     int64
	UserID       int64
	ResourceRef  string
	ResourceType resource.Type
	Page         PageContext

	externalRef    string
	status         Status
	currentSeconds float64
}

func NewSession(activityID, courseID, userID int64, resourceRef string, t resource.Type, page PageContext) *Session {
	return &Session{
		ActivityID:   activityID,
		CourseID:     courseID,
		UserID:       userID,
		ResourceRef:  resourceRef,
		ResourceType: t,
		Page:         page,
		status:       StatusUnwatched,
	}
}

// SetVideo switches the session to a new video, resetting per-video state.
func (s *Session) SetVideo(externalRef string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.externalRef = externalRef
	s.status = StatusUnwatched
	s.currentSeconds = 0
}

// Escalate raises the session status. Downgrades are ignored and reported
// as false: a late or duplicate report can never move status backward.
func (s *Session) Escalate(next Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !next.Valid() || !next.AtLeast(s.status) {
		return false
	}
	if next == s.status {
		return false
	}
	s.status = next
	return true
}

// Advance moves the playback position forward. Positions are monotonic
// non-decreasing within a session; rewinds keep the high-water mark.
func (s *Session) Advance(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seconds > s.currentSeconds {
		s.currentSeconds = seconds
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Event snapshots the session as a watch event ready to synchronize.
func (s *Session) Event() WatchEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return WatchEvent{
		ExternalRef:     s.externalRef,
		Status:          s.status,
		DurationSeconds: s.currentSeconds,
		ResourceRef:     s.ResourceRef,
		Page:            s.Page,
	}
}
