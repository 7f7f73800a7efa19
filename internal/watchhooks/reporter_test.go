package watchhooks

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/progress"
	"github.com/example/lessontrack/internal/resource"
)

type recordingSyncer struct {
	events []progress.WatchEvent
	err    error
}

func (s *recordingSyncer) Sync(_ context.Context, _, _ int64, ev progress.WatchEvent) (progress.Decision, error) {
	s.events = append(s.events, ev)
	return progress.Decision{}, s.err
}

func newTestReporter(syncer Syncer) *Reporter {
	sess := progress.NewSession(10, 2, 42, "playlist-1", resource.TypePlaylists, progress.PageActivity)
	sess.SetVideo("video-1")
	return NewReporter(syncer, sess, zap.NewNop())
}

func TestReporter_VideoEndedReportsWatched(t *testing.T) {
	syncer := &recordingSyncer{}
	r := newTestReporter(syncer)
	ctx := context.Background()

	r.Play()
	if err := r.VideoEnded(ctx); err != nil {
		t.Fatalf("video ended: %v", err)
	}

	if len(syncer.events) != 1 {
		t.Fatalf("expected one report, got %d", len(syncer.events))
	}
	if syncer.events[0].Status != progress.StatusWatched {
		t.Fatalf("expected watched report, got %q", syncer.events[0].Status)
	}
}

func TestReporter_ThresholdEscalatesOnce(t *testing.T) {
	syncer := &recordingSyncer{}
	r := newTestReporter(syncer)
	ctx := context.Background()

	r.Play()
	if err := r.TimeUpdate(ctx, 100, 300); err != nil {
		t.Fatalf("time update: %v", err)
	}
	if len(syncer.events) != 0 {
		t.Fatal("below threshold must not report")
	}

	// 90% of 300s crossed: exactly one watched report even across
	// repeated ticks.
	for _, pos := range []float64{271, 280, 295} {
		if err := r.TimeUpdate(ctx, pos, 300); err != nil {
			t.Fatalf("time update at %v: %v", pos, err)
		}
	}
	if len(syncer.events) != 1 {
		t.Fatalf("expected exactly one threshold report, got %d", len(syncer.events))
	}
	if syncer.events[0].Status != progress.StatusWatched {
		t.Fatalf("expected watched, got %q", syncer.events[0].Status)
	}
}

func TestReporter_LateDowngradeIgnored(t *testing.T) {
	syncer := &recordingSyncer{}
	r := newTestReporter(syncer)
	ctx := context.Background()

	if err := r.VideoEnded(ctx); err != nil {
		t.Fatalf("video ended: %v", err)
	}
	// A stale in-progress tick after the watched report.
	r.Play()
	if err := r.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if len(syncer.events) != 1 {
		t.Fatalf("expected no report after watched, got %d", len(syncer.events))
	}
	if syncer.events[0].Status != progress.StatusWatched {
		t.Fatalf("final recorded status must remain watched, got %q", syncer.events[0].Status)
	}
}

func TestReporter_FlushReportsInProgress(t *testing.T) {
	syncer := &recordingSyncer{}
	r := newTestReporter(syncer)
	ctx := context.Background()

	r.Play()
	if err := r.TimeUpdate(ctx, 42.4, 300); err != nil {
		t.Fatalf("time update: %v", err)
	}
	if err := r.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	if len(syncer.events) != 1 {
		t.Fatalf("expected one flush report, got %d", len(syncer.events))
	}
	ev := syncer.events[0]
	if ev.Status != progress.StatusInProgress {
		t.Fatalf("expected inprogress, got %q", ev.Status)
	}
	if ev.DurationSeconds != 42.4 {
		t.Fatalf("expected position 42.4, got %v", ev.DurationSeconds)
	}
}

func TestReporter_SwitchVideoRearms(t *testing.T) {
	syncer := &recordingSyncer{}
	r := newTestReporter(syncer)
	ctx := context.Background()

	if err := r.VideoEnded(ctx); err != nil {
		t.Fatalf("video ended: %v", err)
	}
	if err := r.SwitchVideo(ctx, "video-2"); err != nil {
		t.Fatalf("switch video: %v", err)
	}
	if err := r.VideoEnded(ctx); err != nil {
		t.Fatalf("second video ended: %v", err)
	}

	if len(syncer.events) != 2 {
		t.Fatalf("expected a report per video, got %d", len(syncer.events))
	}
	if syncer.events[1].ExternalRef != "video-2" {
		t.Fatalf("expected report for video-2, got %q", syncer.events[1].ExternalRef)
	}
}

func TestReporter_NoVideoNoReport(t *testing.T) {
	syncer := &recordingSyncer{}
	sess := progress.NewSession(10, 2, 42, "playlist-1", resource.TypePlaylists, progress.PageCourse)
	r := NewReporter(syncer, sess, zap.NewNop())

	if err := r.Flush(context.Background()); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if len(syncer.events) != 0 {
		t.Fatal("no report expected before a video is set")
	}
}
