package progress

import "fmt"

// Status is the per-session view state of a single video. Within a
// playback session it only escalates, never regresses.
type Status string

const (
	StatusUnwatched  Status = "unwatched"
	StatusInProgress Status = "inprogress"
	StatusWatched    Status = "watched"
)

var statusRank = map[Status]int{
	StatusUnwatched:  0,
	StatusInProgress: 1,
	StatusWatched:    2,
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("progress: invalid status %q", s)
	}
	return st, nil
}

func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// AtLeast reports whether s is at or beyond other in the escalation order.
func (s Status) AtLeast(other Status) bool {
	return statusRank[s] >= statusRank[other]
}

// PageContext identifies which host page the watch event originated on.
type PageContext string

const (
	PageCourse   PageContext = "course"
	PageActivity PageContext = "activity"
)
