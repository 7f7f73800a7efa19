package completion

import (
	"context"
	"fmt"
	"sync"
)

type hostKey struct {
	activityID int64
	userID     int64
}

// InMemoryHost is a development and test implementation of the host port.
// MarkComplete flips the stored state so a subsequent CompletionState read
// observes the write, mirroring the host ledger's behaviour.
type InMemoryHost struct {
	mu     sync.Mutex
	states map[hostKey]State
	marks  map[hostKey]int
}

func NewInMemoryHost() *InMemoryHost {
	return &InMemoryHost{
		states: make(map[hostKey]State),
		marks:  make(map[hostKey]int),
	}
}

// SetState seeds the completion snapshot for an activity/user.
func (h *InMemoryHost) SetState(activityID, userID int64, s State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.states[hostKey{activityID, userID}] = s
}

func (h *InMemoryHost) CompletionState(_ context.Context, activityID, userID int64) (State, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.states[hostKey{activityID, userID}], nil
}

func (h *InMemoryHost) MarkComplete(_ context.Context, activityID, userID int64) (Fragment, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	k := hostKey{activityID, userID}
	h.marks[k]++
	s := h.states[k]
	s.AlreadyComplete = true
	h.states[k] = s

	return Fragment{
		HTML:        fmt.Sprintf(`<div class="activity" data-id="%d" data-complete="1"></div>`, activityID),
		PageContext: "course",
	}, nil
}

// MarkCompleteCalls returns how many times MarkComplete ran for the pair.
func (h *InMemoryHost) MarkCompleteCalls(activityID, userID int64) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.marks[hostKey{activityID, userID}]
}
