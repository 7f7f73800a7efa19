// Package reset reacts to the host's completion-reset lifecycle signal by
// invalidating live watch records without deleting history.
package reset

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/track"
)

type Observer struct {
	Ledger track.Ledger
	// ClearWatchedOnReset gates the whole observer. When false a reset
	// leaves watch records alone.
	ClearWatchedOnReset bool
	Log                 *zap.Logger
}

func NewObserver(ledger track.Ledger, clearWatched bool, log *zap.Logger) *Observer {
	return &Observer{Ledger: ledger, ClearWatchedOnReset: clearWatched, Log: log}
}

// OnCompletionReset stamps every live record for the user in the course.
// A reset on an untouched course is a valid no-op.
func (o *Observer) OnCompletionReset(ctx context.Context, courseID, userID, resetEpoch int64) error {
	if !o.ClearWatchedOnReset {
		o.Log.Debug("completion reset ignored, clearing disabled",
			zap.Int64("course_id", courseID),
			zap.Int64("user_id", userID))
		return nil
	}
	if resetEpoch <= 0 {
		resetEpoch = time.Now().Unix()
	}

	stamped, err := o.Ledger.MarkReset(ctx, courseID, userID, resetEpoch)
	if err != nil {
		return err
	}
	if stamped == 0 {
		o.Log.Debug("completion reset with no live records",
			zap.Int64("course_id", courseID),
			zap.Int64("user_id", userID))
		return nil
	}

	o.Log.Info("watch records reset",
		zap.Int64("course_id", courseID),
		zap.Int64("user_id", userID),
		zap.Int64("reset_epoch", resetEpoch),
		zap.Int64("records", stamped))
	return nil
}
