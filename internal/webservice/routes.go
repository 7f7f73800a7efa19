// Package webservice exposes the progress webservice the host LMS's
// player pages call.
package webservice

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/platform/analytics"
	"github.com/example/lessontrack/internal/platform/auth"
	"github.com/example/lessontrack/internal/progress"
	"github.com/example/lessontrack/internal/track"
)

type Deps struct {
	Sync      *progress.Synchronizer
	Ledger    track.Ledger
	Analytics *analytics.Publisher
	Verifier  auth.JWTVerifier
	Log       *zap.Logger
}

// Mount attaches all webservice routes under /api/v1.
func Mount(r chi.Router, d Deps) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.RequireUser(d.Verifier))
		r.Post("/progress", UpdateProgress(d))
		r.Get("/activities/{activityID}/track", ActivityTrack(d))
	})
}
