package webservice

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/example/lessontrack/internal/completion"
	"github.com/example/lessontrack/internal/platform/auth"
	"github.com/example/lessontrack/internal/progress"
	"github.com/example/lessontrack/internal/resource"
	"github.com/example/lessontrack/internal/track"
	"github.com/example/lessontrack/internal/videoapi"
)

var testSecret = []byte("webservice-test-secret")

type fakeVideos struct {
	result videoapi.ProgressResult
	err    error
	calls  int
}

func (f *fakeVideos) ReportProgress(_ context.Context, _ videoapi.ProgressReport) (videoapi.ProgressResult, error) {
	f.calls++
	if f.err != nil {
		return videoapi.ProgressResult{}, f.err
	}
	return f.result, nil
}

func (f *fakeVideos) VideoCounts(_ context.Context, _, _ string) (videoapi.Counts, error) {
	return videoapi.Counts{}, f.err
}

type fixture struct {
	router *chi.Mux
	ledger *track.InMemoryLedger
	host   *completion.InMemoryHost
	videos *fakeVideos
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zap.NewNop()

	videos := &fakeVideos{}
	ledger := track.NewInMemoryLedger()
	host := completion.NewInMemoryHost()
	catalog := resource.NewInMemoryCatalog(videos)
	catalog.Put(resource.Resource{
		ActivityID:        77,
		CourseID:          5,
		Name:              "Intro lesson",
		ExternalRef:       "vid-1",
		Type:              resource.TypePlay,
		WatchedAllEnabled: true,
	})
	host.SetState(77, 9, completion.State{TrackingEnabled: true, WatchedAllRuleEnabled: true})

	sync := progress.NewSynchronizer(catalog, ledger, videos, host, completion.NewBridge(host, log), log)

	r := chi.NewRouter()
	Mount(r, Deps{
		Sync:     sync,
		Ledger:   ledger,
		Verifier: auth.JWTVerifier{Secret: testSecret},
		Log:      log,
	})
	return &fixture{router: r, ledger: ledger, host: host, videos: videos}
}

func signToken(t *testing.T, userID int64) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, f *fixture, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestUpdateProgressCompletes(t *testing.T) {
	f := newFixture(t)
	f.videos.result = videoapi.ProgressResult{CompletionStatus: true}
	token := signToken(t, 9)

	rec := doJSON(t, f, http.MethodPost, "/api/v1/progress", token, map[string]any{
		"externalref": "vid-1",
		"status":      "watched",
		"duration":    299.6,
		"courseid":    5,
		"cmid":        77,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success      bool   `json:"success"`
		ActivityHTML string `json:"activityhtml"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("success = false, want true")
	}
	if resp.ActivityHTML == "" {
		t.Error("activityhtml empty, want rendered fragment")
	}
	if got := f.host.MarkCompleteCalls(77, 9); got != 1 {
		t.Errorf("MarkComplete calls = %d, want 1", got)
	}
	rec2, found, err := f.ledger.LiveRecord(context.Background(), 77, 9)
	if err != nil || !found {
		t.Fatalf("LiveRecord found=%v err=%v", found, err)
	}
	if !rec2.WatchedAll {
		t.Error("ledger record not marked watched-all")
	}
}

func TestUpdateProgressRequiresAuth(t *testing.T) {
	f := newFixture(t)

	rec := doJSON(t, f, http.MethodPost, "/api/v1/progress", "", map[string]any{
		"externalref": "vid-1", "status": "watched", "cmid": 77,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if f.videos.calls != 0 {
		t.Errorf("platform called %d times without auth", f.videos.calls)
	}
}

func TestUpdateProgressRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, 9)

	cases := []struct {
		name string
		body map[string]any
	}{
		{"unknown status", map[string]any{"externalref": "vid-1", "status": "paused", "cmid": 77}},
		{"missing cmid", map[string]any{"externalref": "vid-1", "status": "watched"}},
		{"unknown resource type", map[string]any{"externalref": "vid-1", "status": "watched", "cmid": 77, "type": "album"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, f, http.MethodPost, "/api/v1/progress", token, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUpdateProgressPlatformDown(t *testing.T) {
	f := newFixture(t)
	f.videos.err = &videoapi.ServiceError{Op: "update_progress", StatusCode: http.StatusBadGateway}
	token := signToken(t, 9)

	rec := doJSON(t, f, http.MethodPost, "/api/v1/progress", token, map[string]any{
		"externalref": "vid-1", "status": "watched", "cmid": 77, "courseid": 5,
	})
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Error.Code != "PLATFORM_UNAVAILABLE" {
		t.Errorf("error code = %q, want PLATFORM_UNAVAILABLE", resp.Error.Code)
	}
	// A failed report must not leave a ledger row behind.
	if _, found, _ := f.ledger.LiveRecord(context.Background(), 77, 9); found {
		t.Error("ledger row created despite platform failure")
	}
}

func TestUpdateProgressUnknownActivity(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, 9)
	f.host.SetState(404, 9, completion.State{TrackingEnabled: true})

	rec := doJSON(t, f, http.MethodPost, "/api/v1/progress", token, map[string]any{
		"externalref": "vid-1", "status": "watched", "cmid": 404,
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestActivityTrack(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, 9)

	// No record yet: zero-valued view, not an error.
	rec := doJSON(t, f, http.MethodGet, "/api/v1/activities/77/track", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var view trackResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if view.WatchedAll || view.ResetDate != 0 {
		t.Errorf("empty view = %+v, want zero values", view)
	}

	if _, err := f.ledger.UpsertWatchedAll(context.Background(), 77, 5, 9, true); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	rec = doJSON(t, f, http.MethodGet, "/api/v1/activities/77/track", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !view.WatchedAll {
		t.Error("watchedall = false, want true after upsert")
	}
	if view.TimeModified == 0 {
		t.Error("timemodified = 0, want set")
	}
}

func TestActivityTrackBadID(t *testing.T) {
	f := newFixture(t)
	token := signToken(t, 9)

	rec := doJSON(t, f, http.MethodGet, "/api/v1/activities/abc/track", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
