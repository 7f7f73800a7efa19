package resource

import (
	"context"
	"fmt"
	"sync"

	"github.com/example/lessontrack/internal/videoapi"
)

// InMemoryCatalog is a development-only in-memory implementation.
type InMemoryCatalog struct {
	mu        sync.RWMutex
	resources map[int64]Resource
	videos    videoapi.Provider
}

func NewInMemoryCatalog(videos videoapi.Provider) *InMemoryCatalog {
	return &InMemoryCatalog{resources: make(map[int64]Resource), videos: videos}
}

// Put registers a resource for an activity.
func (c *InMemoryCatalog) Put(r Resource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resources[r.ActivityID] = r
}

func (c *InMemoryCatalog) ResolveResource(_ context.Context, activityID int64) (Resource, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.resources[activityID]
	if !ok {
		return Resource{}, fmt.Errorf("activity %d: %w", activityID, ErrNotFound)
	}
	return r, nil
}

func (c *InMemoryCatalog) VideoCounts(ctx context.Context, externalRef string, t Type) (videoapi.Counts, error) {
	return c.videos.VideoCounts(ctx, externalRef, string(t))
}
