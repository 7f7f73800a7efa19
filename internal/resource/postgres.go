package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/lessontrack/internal/videoapi"
)

// PostgresCatalog is the production catalog backed by the lesson_resource table.
type PostgresCatalog struct {
	db     *pgxpool.Pool
	videos videoapi.Provider
}

func NewPostgresCatalog(db *pgxpool.Pool, videos videoapi.Provider) *PostgresCatalog {
	return &PostgresCatalog{db: db, videos: videos}
}

func (c *PostgresCatalog) ResolveResource(ctx context.Context, activityID int64) (Resource, error) {
	const q = `SELECT activity_id, course_id, name, external_ref, type, watched_all_enabled
	           FROM lesson_resource WHERE activity_id = $1`

	var r Resource
	var rawType string
	err := c.db.QueryRow(ctx, q, activityID).
		Scan(&r.ActivityID, &r.CourseID, &r.Name, &r.ExternalRef, &rawType, &r.WatchedAllEnabled)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Resource{}, fmt.Errorf("activity %d: %w", activityID, ErrNotFound)
		}
		return Resource{}, fmt.Errorf("resource: resolve activity %d: %w", activityID, err)
	}

	r.Type, err = ParseType(rawType)
	if err != nil {
		return Resource{}, fmt.Errorf("resource: activity %d: %w", activityID, err)
	}
	return r, nil
}

func (c *PostgresCatalog) VideoCounts(ctx context.Context, externalRef string, t Type) (videoapi.Counts, error) {
	return c.videos.VideoCounts(ctx, externalRef, string(t))
}
