package integrations

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pipinfo/pkg/observability"
)

type recordingHooks struct {
	observability.NoopHTTPHooks
	mu     sync.Mutex
	events []string
}

func (h *recordingHooks) record(e string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, e)
}

func (h *recordingHooks) OnCacheHit(_ context.Context, keyType string)  { h.record("hit:" + keyType) }
func (h *recordingHooks) OnCacheMiss(_ context.Context, keyType string) { h.record("miss:" + keyType) }
func (h *recordingHooks) OnCacheSet(_ context.Context, keyType string)  { h.record("set:" + keyType) }

func (h *recordingHooks) OnResponse(_ context.Context, method, _, path string, status int, _ time.Duration) {
	h.record(method + " " + path)
}

func TestClientHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetCacheHooks(hooks)
	observability.SetHTTPHooks(hooks)
	defer observability.Reset()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"version":"1.0"}`))
	}))
	defer server.Close()

	client := NewClient(newTestCache(t), nil)
	ctx := context.Background()
	fetch := func(v *map[string]string) func() error {
		return func() error { return client.Get(ctx, server.URL+"/pkg/json", v) }
	}

	for range 2 {
		var v map[string]string
		if err := client.Cached(ctx, "latest:pkg", false, &v, fetch(&v)); err != nil {
			t.Fatalf("Cached() error: %v", err)
		}
	}

	want := []string{"miss:latest", "GET /pkg/json", "set:latest", "hit:latest"}
	if len(hooks.events) != len(want) {
		t.Fatalf("events = %v, want %v", hooks.events, want)
	}
	for i := range want {
		if hooks.events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, hooks.events[i], want[i])
		}
	}
}
