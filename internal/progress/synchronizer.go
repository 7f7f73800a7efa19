// Package progress decides, for each watch event, what to report to the
// external video platform, what to persist locally, and whether the host
// activity should be marked complete.
package progress

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/completion"
	"github.com/example/lessontrack/internal/resource"
	"github.com/example/lessontrack/internal/track"
	"github.com/example/lessontrack/internal/videoapi"
)

// ErrNotReady signals a transient host condition; callers may retry with
// a bounded poll before giving up silently.
var ErrNotReady = errors.New("progress: not ready")

// WatchEvent is one client-side progress report. Consumed exactly once.
type WatchEvent struct {
	ExternalRef     string
	Status          Status
	DurationSeconds float64
	ResourceRef     string
	Page            PageContext
	// KnownWatchedAll is the caller's last known resource-level watched
	// state, used only on the no-externalref reconciliation path.
	KnownWatchedAll bool
}

// Decision is the outcome of synchronizing one watch event. Derived,
// never stored.
type Decision struct {
	ReportedExternally   bool
	ResourceFullyWatched bool
	MarkedComplete       bool
	Fragment             completion.Fragment
}

type Synchronizer struct {
	Catalog resource.Catalog
	Ledger  track.Ledger
	Videos  videoapi.Provider
	Host    completion.Host
	Bridge  *completion.Bridge
	Log     *zap.Logger
}

func NewSynchronizer(cat resource.Catalog, ledger track.Ledger, videos videoapi.Provider, host completion.Host, bridge *completion.Bridge, log *zap.Logger) *Synchronizer {
	return &Synchronizer{Catalog: cat, Ledger: ledger, Videos: videos, Host: host, Bridge: bridge, Log: log}
}

// Sync runs the synchronization state machine for one watch event.
//
// The external report and the ledger write are sequenced so a platform
// failure leaves the ledger untouched, and a ledger or host failure after
// a successful report loses nothing: the watched fact is re-derivable on
// a later event through the reconciliation path.
func (s *Synchronizer) Sync(ctx context.Context, activityID, userID int64, ev WatchEvent) (Decision, error) {
	state, err := s.Host.CompletionState(ctx, activityID, userID)
	if err != nil {
		return Decision{}, err
	}

	// Already complete: nothing may run, not even the external report.
	// This is what makes completion marking at-most-once per epoch.
	if state.AlreadyComplete {
		return Decision{}, nil
	}

	res, err := s.Catalog.ResolveResource(ctx, activityID)
	if err != nil {
		return Decision{}, err
	}

	// Aggregation is only worth evaluating when its outcome can change
	// completion. Otherwise only per-video progress goes upstream.
	eligible := state.TrackingEnabled &&
		state.WatchedAllRuleEnabled &&
		res.WatchedAllEnabled &&
		ev.Status == StatusWatched
	resourceRef := ev.ResourceRef
	if !eligible {
		resourceRef = ""
	}

	rec, hasRec, err := s.Ledger.LiveRecord(ctx, activityID, userID)
	if err != nil {
		return Decision{}, err
	}

	// Reconciliation: the resource is already known fully watched (from
	// the live record or the caller's last platform read, e.g. videos
	// watched outside this course). Mark complete without a new report.
	knownWatchedAll := (hasRec && rec.WatchedAll) || ev.KnownWatchedAll
	if knownWatchedAll && eligible {
		return s.completeWithoutReport(ctx, activityID, res.CourseID, userID, hasRec && rec.WatchedAll)
	}

	// Progress on a resource already fully watched this epoch: nothing new
	// for the platform, and completion stays with the rule gating above.
	if hasRec && rec.WatchedAll {
		return Decision{ResourceFullyWatched: true}, nil
	}

	// Nothing to report and nothing known: no-op, no spurious rows.
	if ev.ExternalRef == "" {
		return Decision{}, nil
	}

	resetEpoch, err := s.Ledger.LatestResetDate(ctx, activityID, userID)
	if err != nil {
		return Decision{}, err
	}

	result, err := s.Videos.ReportProgress(ctx, videoapi.ProgressReport{
		ExternalRef:     ev.ExternalRef,
		DurationSeconds: int(math.Round(ev.DurationSeconds)),
		Status:          string(ev.Status),
		ResourceRef:     resourceRef,
		ResourceType:    string(res.Type),
		ResetEpoch:      resetEpoch,
	})
	if err != nil {
		// No ledger mutation on a failed report; the next natural event
		// carries the same facts again.
		return Decision{}, err
	}

	d := Decision{ReportedExternally: true}

	if result.CompletionStatus {
		if _, err := s.Ledger.UpsertWatchedAll(ctx, activityID, res.CourseID, userID, true); err != nil {
			return d, err
		}
		d.ResourceFullyWatched = true

		frag, err := s.Bridge.MarkComplete(ctx, activityID, userID)
		if err != nil {
			return d, err
		}
		d.MarkedComplete = true
		d.Fragment = frag
		return d, nil
	}

	// Not fully watched. Record the in-progress fact, but don't open a
	// row for a video that was never actually watched.
	if hasRec || ev.Status == StatusWatched {
		if _, err := s.Ledger.UpsertWatchedAll(ctx, activityID, res.CourseID, userID, false); err != nil {
			return d, err
		}
	}
	return d, nil
}

func (s *Synchronizer) completeWithoutReport(ctx context.Context, activityID, courseID, userID int64, recorded bool) (Decision, error) {
	if !recorded {
		if _, err := s.Ledger.UpsertWatchedAll(ctx, activityID, courseID, userID, true); err != nil {
			return Decision{}, err
		}
	}

	frag, err := s.Bridge.MarkComplete(ctx, activityID, userID)
	if err != nil {
		return Decision{ResourceFullyWatched: true}, err
	}
	s.Log.Debug("completion reconciled from known watched-all state",
		zap.Int64("activity_id", activityID),
		zap.Int64("user_id", userID))
	return Decision{ResourceFullyWatched: true, MarkedComplete: true, Fragment: frag}, nil
}
