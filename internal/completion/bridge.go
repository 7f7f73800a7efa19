// Package completion pushes "activity complete" decisions into the host
// LMS's completion ledger. The push is one-way: this core never reads the
// ledger back except through the CompletionState snapshot.
package completion

import (
	"context"

	"go.uber.org/zap"
)

// State is the host's per-user completion snapshot for an activity.
type State struct {
	AlreadyComplete       bool
	TrackingEnabled       bool
	WatchedAllRuleEnabled bool
}

// Fragment is the opaque refreshed-UI descriptor the host returns after a
// completion write. This core guarantees determinism of the call and
// nothing else about its contents.
type Fragment struct {
	HTML        string `json:"html"`
	PageContext string `json:"page_context"`
}

// Host is the port to the host LMS's completion engine.
type Host interface {
	CompletionState(ctx context.Context, activityID, userID int64) (State, error)
	// MarkComplete writes the activity as complete. Idempotent on the host
	// side: re-marking a complete activity is a no-op.
	MarkComplete(ctx context.Context, activityID, userID int64) (Fragment, error)
}

// Bridge translates a mark-complete decision into the host ledger.
type Bridge struct {
	host Host
	log  *zap.Logger
}

func NewBridge(host Host, log *zap.Logger) *Bridge {
	return &Bridge{host: host, log: log}
}

func (b *Bridge) MarkComplete(ctx context.Context, activityID, userID int64) (Fragment, error) {
	frag, err := b.host.MarkComplete(ctx, activityID, userID)
	if err != nil {
		return Fragment{}, err
	}
	b.log.Info("activity marked complete",
		zap.Int64("activity_id", activityID),
		zap.Int64("user_id", userID))
	return frag, nil
}
