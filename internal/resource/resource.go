// Package resource resolves the external video resource attached to a
// course activity and classifies resource types.
package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/lessontrack/internal/videoapi"
)

var ErrNotFound = errors.New("resource: not found")

// Type is the kind of external resource an activity embeds.
type Type string

const (
	TypePlay        Type = "play"
	TypeSpeakers    Type = "speakers"
	TypeTopics      Type = "topics"
	TypePlaylists   Type = "playlists"
	TypeSeries      Type = "series"
	TypeCollections Type = "collections"
)

// typeInfo describes what a resource type contains and how completion
// aggregates over it.
type typeInfo struct {
	// ItemType is the kind of child entry the resource lists.
	ItemType string
	// Composite resources aggregate watched state over multiple videos.
	Composite bool
}

var typeTable = map[Type]typeInfo{
	TypePlay:        {ItemType: "video", Composite: false},
	TypeSpeakers:    {ItemType: "video", Composite: true},
	TypeTopics:      {ItemType: "video", Composite: true},
	TypePlaylists:   {ItemType: "video", Composite: true},
	TypeSeries:      {ItemType: "playlists", Composite: true},
	TypeCollections: {ItemType: "series", Composite: true},
}

func ParseType(s string) (Type, error) {
	t := Type(s)
	if _, ok := typeTable[t]; !ok {
		return "", fmt.Errorf("resource: invalid type %q", s)
	}
	return t, nil
}

func (t Type) Valid() bool {
	_, ok := typeTable[t]
	return ok
}

// ItemType returns the kind of child entry this resource type lists.
func (t Type) ItemType() string { return typeTable[t].ItemType }

// Composite reports whether completion aggregates over multiple videos.
func (t Type) Composite() bool { return typeTable[t].Composite }

// Resource is the external video asset an activity embeds.
// Immutable during a watch session.
type Resource struct {
	ActivityID        int64
	CourseID          int64
	Name              string
	ExternalRef       string
	Type              Type
	WatchedAllEnabled bool
}

// Catalog resolves resources and reads resource-level video tallies.
type Catalog interface {
	// ResolveResource returns the resource row for an activity.
	// ErrNotFound when the activity has no resource; fatal to the caller.
	ResolveResource(ctx context.Context, activityID int64) (Resource, error)
	// VideoCounts is the reconciliation read against the platform: total vs
	// watched videos in a composite resource. Never cached; the platform is
	// the source of truth for per-video state.
	VideoCounts(ctx context.Context, externalRef string, t Type) (videoapi.Counts, error)
}
