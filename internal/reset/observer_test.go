package reset

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/track"
)

func TestOnCompletionReset_StampsLiveRecords(t *testing.T) {
	ledger := track.NewInMemoryLedger()
	ctx := context.Background()
	_, _ = ledger.UpsertWatchedAll(ctx, 10, 2, 42, true)
	_, _ = ledger.UpsertWatchedAll(ctx, 11, 2, 42, false)

	obs := NewObserver(ledger, true, zap.NewNop())
	const epoch = int64(1700006000)
	if err := obs.OnCompletionReset(ctx, 2, 42, epoch); err != nil {
		t.Fatalf("reset: %v", err)
	}

	for _, activityID := range []int64{10, 11} {
		if _, ok, _ := ledger.LiveRecord(ctx, activityID, 42); ok {
			t.Fatalf("activity %d: expected no live record after reset", activityID)
		}
		if latest, _ := ledger.LatestResetDate(ctx, activityID, 42); latest != epoch {
			t.Fatalf("activity %d: expected reset date %d, got %d", activityID, epoch, latest)
		}
	}
}

func TestOnCompletionReset_DisabledIsNoOp(t *testing.T) {
	ledger := track.NewInMemoryLedger()
	ctx := context.Background()
	_, _ = ledger.UpsertWatchedAll(ctx, 10, 2, 42, true)

	obs := NewObserver(ledger, false, zap.NewNop())
	if err := obs.OnCompletionReset(ctx, 2, 42, 1700006000); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if _, ok, _ := ledger.LiveRecord(ctx, 10, 42); !ok {
		t.Fatal("record must stay live when clearing is disabled")
	}
}

func TestOnCompletionReset_NoRecordsIsValid(t *testing.T) {
	obs := NewObserver(track.NewInMemoryLedger(), true, zap.NewNop())
	if err := obs.OnCompletionReset(context.Background(), 2, 42, 1700006000); err != nil {
		t.Fatalf("reset on untouched course must be a no-op, got %v", err)
	}
}

func TestOnCompletionReset_ZeroEpochDefaultsToNow(t *testing.T) {
	ledger := track.NewInMemoryLedger()
	ctx := context.Background()
	_, _ = ledger.UpsertWatchedAll(ctx, 10, 2, 42, true)

	obs := NewObserver(ledger, true, zap.NewNop())
	if err := obs.OnCompletionReset(ctx, 2, 42, 0); err != nil {
		t.Fatalf("reset: %v", err)
	}

	latest, _ := ledger.LatestResetDate(ctx, 10, 42)
	if latest <= 0 {
		t.Fatalf("expected a current epoch stamp, got %d", latest)
	}
}
