package track

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresLedger is the production Postgres-backed implementation.
// The lesson_track table carries a partial unique index on
// (activity_id, user_id) WHERE reset_date = 0, which is what makes the
// upsert idempotent per epoch.
type PostgresLedger struct {
	db *pgxpool.Pool
}

func NewPostgresLedger(db *pgxpool.Pool) *PostgresLedger {
	return &PostgresLedger{db: db}
}

func (l *PostgresLedger) LiveRecord(ctx context.Context, activityID, userID int64) (Record, bool, error) {
	const q = `SELECT id, activity_id, course_id, user_id, watched_all, time_modified, reset_date
	           FROM lesson_track
	           WHERE activity_id = $1 AND user_id = $2 AND reset_date = 0`

	var r Record
	err := l.db.QueryRow(ctx, q, activityID, userID).
		Scan(&r.ID, &r.ActivityID, &r.CourseID, &r.UserID, &r.WatchedAll, &r.TimeModified, &r.ResetDate)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("track: live record: %w", err)
	}
	return r, true, nil
}

func (l *PostgresLedger) UpsertWatchedAll(ctx context.Context, activityID, courseID, userID int64, watchedAll bool) (Record, error) {
	const q = `
INSERT INTO lesson_track (activity_id, course_id, user_id, watched_all, time_modified, reset_date)
VALUES ($1, $2, $3, $4, $5, 0)
ON CONFLICT (activity_id, user_id) WHERE reset_date = 0
DO UPDATE SET
  watched_all   = EXCLUDED.watched_all,
  time_modified = EXCLUDED.time_modified
RETURNING id, activity_id, course_id, user_id, watched_all, time_modified, reset_date`

	var r Record
	err := l.db.QueryRow(ctx, q, activityID, courseID, userID, watchedAll, time.Now().UTC()).
		Scan(&r.ID, &r.ActivityID, &r.CourseID, &r.UserID, &r.WatchedAll, &r.TimeModified, &r.ResetDate)
	if err != nil {
		return Record{}, fmt.Errorf("track: upsert: %w", err)
	}
	return r, nil
}

// MarkReset is deliberately a single UPDATE rather than read-then-write so
// a concurrent upsert cannot swallow the reset stamp.
func (l *PostgresLedger) MarkReset(ctx context.Context, courseID, userID, resetEpoch int64) (int64, error) {
	const q = `UPDATE lesson_track
	           SET reset_date = $3
	           WHERE course_id = $1 AND user_id = $2 AND reset_date = 0`

	tag, err := l.db.Exec(ctx, q, courseID, userID, resetEpoch)
	if err != nil {
		return 0, fmt.Errorf("track: mark reset: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (l *PostgresLedger) MaxWatchedAll(ctx context.Context, activityID, userID int64) (bool, error) {
	const q = `SELECT COALESCE(MAX(watched_all::int), 0)
	           FROM lesson_track
	           WHERE activity_id = $1 AND user_id = $2 AND reset_date = 0`

	var v int
	if err := l.db.QueryRow(ctx, q, activityID, userID).Scan(&v); err != nil {
		return false, fmt.Errorf("track: max watched_all: %w", err)
	}
	return v == 1, nil
}

func (l *PostgresLedger) LatestResetDate(ctx context.Context, activityID, userID int64) (int64, error) {
	const q = `SELECT COALESCE(MAX(reset_date), 0)
	           FROM lesson_track
	           WHERE activity_id = $1 AND user_id = $2`

	var v int64
	if err := l.db.QueryRow(ctx, q, activityID, userID).Scan(&v); err != nil {
		return 0, fmt.Errorf("track: latest reset date: %w", err)
	}
	return v, nil
}
