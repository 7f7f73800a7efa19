package webservice

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/platform/analytics"
	"github.com/example/lessontrack/internal/platform/api"
	"github.com/example/lessontrack/internal/platform/auth"
	"github.com/example/lessontrack/internal/platform/httpserver"
	"github.com/example/lessontrack/internal/progress"
	"github.com/example/lessontrack/internal/resource"
	"github.com/example/lessontrack/internal/videoapi"
)

// progressRequest mirrors the player page's update call.
type progressRequest struct {
	ExternalRef string  `json:"externalref"`
	Status      string  `json:"status"`
	Duration    float64 `json:"duration"`
	CourseID    int64   `json:"courseid"`
	ActivityID  int64   `json:"cmid"`
	ResourceRef string  `json:"resourceref"`
	Type        string  `json:"type"`
	PageType    string  `json:"pagetype"`
	WatchedAll  bool    `json:"watchedall"`
}

type progressResponse struct {
	Success      bool   `json:"success"`
	ActivityHTML string `json:"activityhtml"`
}

func UpdateProgress(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		var req progressRequest
		if err := api.DecodeJSON(r, &req, 1<<20); err != nil {
			api.BadRequest(w, "INVALID_BODY", "Malformed request body", rid, nil)
			return
		}
		if req.ActivityID <= 0 {
			api.BadRequest(w, "INVALID_CMID", "cmid is required", rid, nil)
			return
		}
		status, err := progress.ParseStatus(strings.TrimSpace(req.Status))
		if err != nil {
			api.BadRequest(w, "INVALID_STATUS", "Unknown view status", rid, map[string]any{"status": req.Status})
			return
		}
		// The client echoes the resource type it was rendered with; the
		// catalog stays authoritative, but a bogus value is still rejected.
		if t := strings.TrimSpace(req.Type); t != "" {
			if _, err := resource.ParseType(t); err != nil {
				api.BadRequest(w, "INVALID_TYPE", "Unknown resource type", rid, map[string]any{"type": req.Type})
				return
			}
		}

		ev := progress.WatchEvent{
			ExternalRef:     strings.TrimSpace(req.ExternalRef),
			Status:          status,
			DurationSeconds: req.Duration,
			ResourceRef:     strings.TrimSpace(req.ResourceRef),
			Page:            progress.PageContext(strings.TrimSpace(req.PageType)),
			KnownWatchedAll: req.WatchedAll,
		}

		decision, err := d.Sync.Sync(r.Context(), req.ActivityID, userID, ev)
		if err != nil {
			writeSyncError(w, rid, err, d.Log)
			return
		}

		if decision.ReportedExternally || decision.MarkedComplete {
			subject := analytics.SubjectLessonProgress
			name := "lesson_progress"
			if decision.MarkedComplete {
				subject = analytics.SubjectLessonCompleted
				name = "lesson_completed"
			}
			d.Analytics.Publish(subject, name, strconv.FormatInt(userID, 10), map[string]any{
				"activity_id": req.ActivityID,
				"course_id":   req.CourseID,
				"status":      string(status),
			})
		}

		api.WriteJSON(w, http.StatusOK, progressResponse{
			Success:      true,
			ActivityHTML: decision.Fragment.HTML,
		})
	}
}

type trackResponse struct {
	WatchedAll   bool  `json:"watchedall"`
	TimeModified int64 `json:"timemodified"`
	ResetDate    int64 `json:"resetdate"`
}

// ActivityTrack returns the live watch record view used by player pages
// to seed their watched-all state.
func ActivityTrack(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rid := httpserver.RequestIDFromContext(r.Context())
		userID, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			api.Unauthorized(w, "AUTH_MISSING", "Missing auth", rid)
			return
		}

		activityID, err := strconv.ParseInt(chi.URLParam(r, "activityID"), 10, 64)
		if err != nil || activityID <= 0 {
			api.BadRequest(w, "INVALID_CMID", "Invalid activity id", rid, nil)
			return
		}

		resp := trackResponse{}
		rec, found, err := d.Ledger.LiveRecord(r.Context(), activityID, userID)
		if err != nil {
			d.Log.Error("track read failed", zap.Int64("activity_id", activityID), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		if found {
			resp.WatchedAll = rec.WatchedAll
			resp.TimeModified = rec.TimeModified.Unix()
		}

		resetDate, err := d.Ledger.LatestResetDate(r.Context(), activityID, userID)
		if err != nil {
			d.Log.Error("reset date read failed", zap.Int64("activity_id", activityID), zap.Error(err))
			api.Internal(w, rid)
			return
		}
		resp.ResetDate = resetDate

		api.WriteJSON(w, http.StatusOK, resp)
	}
}

func writeSyncError(w http.ResponseWriter, rid string, err error, log *zap.Logger) {
	var se *videoapi.ServiceError
	switch {
	case errors.Is(err, resource.ErrNotFound):
		api.NotFound(w, "RESOURCE_NOT_FOUND", "Activity has no resource", rid)
	case errors.As(err, &se):
		log.Warn("platform report failed", zap.Error(err))
		api.BadGateway(w, "PLATFORM_UNAVAILABLE", "Video platform unavailable", rid)
	case errors.Is(err, progress.ErrNotReady):
		api.WriteError(w, http.StatusServiceUnavailable, "NOT_READY", "Not ready, retry shortly", rid, nil)
	default:
		log.Error("progress sync failed", zap.Error(err))
		api.Internal(w, rid)
	}
}
