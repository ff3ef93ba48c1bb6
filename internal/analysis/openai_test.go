package analysis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/insight-engine/internal/httputil"
)

func serveCompletions(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	old := completionsURL
	completionsURL = server.URL
	t.Cleanup(func() { completionsURL = old })
}

func TestOpenAIBackendComplete(t *testing.T) {
	serveCompletions(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "the completion"}}]}`)
	})

	b := &OpenAIBackend{APIKey: "test-key", Model: "gpt-3.5-turbo"}
	got, err := b.Complete(context.Background(), "system", "user", 100, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if got != "the completion" {
		t.Errorf("Complete() = %q, want %q", got, "the completion")
	}
}

func TestOpenAIBackendRetriesOn429(t *testing.T) {
	oldDelay := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	t.Cleanup(func() { httputil.RetryBaseDelay = oldDelay })

	calls := 0
	serveCompletions(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "after retry"}}]}`)
	})

	b := &OpenAIBackend{APIKey: "test-key", Model: "gpt-3.5-turbo"}
	got, err := b.Complete(context.Background(), "system", "user", 100, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	if got != "after retry" {
		t.Errorf("Complete() = %q, want %q", got, "after retry")
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestOpenAIBackendErrorStatus(t *testing.T) {
	serveCompletions(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	})

	b := &OpenAIBackend{APIKey: "wrong", Model: "gpt-3.5-turbo"}
	_, err := b.Complete(context.Background(), "system", "user", 100, 0.7)
	if err == nil {
		t.Fatal("err = nil, want 401 failure")
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("err = %v, want status code mentioned", err)
	}
}

func TestOpenAIBackendNoChoices(t *testing.T) {
	serveCompletions(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices": []}`)
	})

	b := &OpenAIBackend{APIKey: "test-key", Model: "gpt-3.5-turbo"}
	_, err := b.Complete(context.Background(), "system", "user", 100, 0.7)
	if err == nil {
		t.Fatal("err = nil, want no-choices failure")
	}
}
