package completion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func TestInMemoryHost_MarkCompleteFlipsState(t *testing.T) {
	host := NewInMemoryHost()
	ctx := context.Background()
	host.SetState(10, 42, State{TrackingEnabled: true, WatchedAllRuleEnabled: true})

	bridge := NewBridge(host, zap.NewNop())
	frag, err := bridge.MarkComplete(ctx, 10, 42)
	if err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if frag.HTML == "" {
		t.Fatal("expected a UI fragment descriptor")
	}

	state, err := host.CompletionState(ctx, 10, 42)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if !state.AlreadyComplete {
		t.Fatal("expected host state to observe the completion write")
	}
	if host.MarkCompleteCalls(10, 42) != 1 {
		t.Fatalf("expected 1 mark call, got %d", host.MarkCompleteCalls(10, 42))
	}
}

func TestHTTPHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer host-token" {
			t.Errorf("missing host token")
		}
		switch r.URL.Path {
		case "/completion/state":
			_, _ = w.Write([]byte(`{"alreadycomplete":false,"completiontracking":true,"watchedallrule":true}`))
		case "/completion/complete":
			_, _ = w.Write([]byte(`{"html":"<div></div>","page_context":"activity"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	host := NewHTTPHost(srv.URL, "host-token")
	ctx := context.Background()

	state, err := host.CompletionState(ctx, 10, 42)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.AlreadyComplete || !state.TrackingEnabled || !state.WatchedAllRuleEnabled {
		t.Fatalf("unexpected state: %+v", state)
	}

	frag, err := host.MarkComplete(ctx, 10, 42)
	if err != nil {
		t.Fatalf("mark complete: %v", err)
	}
	if frag.HTML != "<div></div>" || frag.PageContext != "activity" {
		t.Fatalf("unexpected fragment: %+v", frag)
	}
}

func TestHostInterface(t *testing.T) {
	var _ Host = (*InMemoryHost)(nil)
	var _ Host = (*HTTPHost)(nil)
}
