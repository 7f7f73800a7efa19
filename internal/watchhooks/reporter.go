// Package watchhooks turns player events (play, time updates, ended,
// page unload, periodic ticks) into watch-event reports with explicit
// scheduling and cancellation.
package watchhooks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/progress"
)

// watchedThreshold is the watch ratio at which a video counts as watched.
const watchedThreshold = 0.90

// defaultFlushInterval matches the periodic progress ping of the player page.
const defaultFlushInterval = 30 * time.Minute

// Syncer is the downstream consumer of watch events.
type Syncer interface {
	Sync(ctx context.Context, activityID, userID int64, ev progress.WatchEvent) (progress.Decision, error)
}

// Reporter drives one playback session's reporting. Once a watched-status
// report has gone through, further hooks are no-ops until the session
// moves to another video.
type Reporter struct {
	mu       sync.Mutex
	session  *progress.Session
	syncer   Syncer
	log      *zap.Logger
	done     bool
	Interval time.Duration
}

func NewReporter(syncer Syncer, session *progress.Session, log *zap.Logger) *Reporter {
	return &Reporter{
		session:  session,
		syncer:   syncer,
		log:      log,
		Interval: defaultFlushInterval,
	}
}

// Play marks playback as started.
func (r *Reporter) Play() {
	r.session.Escalate(progress.StatusInProgress)
}

// TimeUpdate records the playhead position; crossing the watched
// threshold escalates and reports immediately.
func (r *Reporter) TimeUpdate(ctx context.Context, seconds, totalDuration float64) error {
	r.session.Advance(seconds)
	if totalDuration > 0 && seconds/totalDuration >= watchedThreshold {
		if r.session.Escalate(progress.StatusWatched) {
			return r.report(ctx)
		}
	}
	return nil
}

// VideoEnded escalates to watched and reports.
func (r *Reporter) VideoEnded(ctx context.Context) error {
	r.session.Escalate(progress.StatusWatched)
	return r.report(ctx)
}

// Flush reports the current session state. This is the page-unload hook
// and the body of the periodic tick; both are best-effort.
func (r *Reporter) Flush(ctx context.Context) error {
	return r.report(ctx)
}

// SwitchVideo flushes any pending progress and re-arms the reporter for
// the next video in the resource.
func (r *Reporter) SwitchVideo(ctx context.Context, externalRef string) error {
	err := r.report(ctx)
	r.session.SetVideo(externalRef)
	r.mu.Lock()
	r.done = false
	r.mu.Unlock()
	return err
}

// Start runs the periodic flush until ctx is cancelled.
func (r *Reporter) Start(ctx context.Context) {
	go func() {
		t := time.NewTicker(r.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := r.Flush(ctx); err != nil {
					r.log.Warn("periodic progress flush failed", zap.Error(err))
				}
			}
		}
	}()
}

func (r *Reporter) report(ctx context.Context) error {
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()

	ev := r.session.Event()
	if ev.ExternalRef == "" {
		return nil
	}

	_, err := r.syncer.Sync(ctx, r.session.ActivityID, r.session.UserID, ev)
	if err != nil {
		return err
	}
	if ev.Status == progress.StatusWatched {
		r.mu.Lock()
		r.done = true
		r.mu.Unlock()
	}
	return nil
}
