package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/ussm/internal/domain"
)

func TestCheckStatusMapping(t *testing.T) {
	tests := []struct {
		name string
		code int
		want domain.Status
	}{
		{"ok", http.StatusOK, domain.StatusOperational},
		{"server error", http.StatusInternalServerError, domain.StatusDown},
		{"no content", http.StatusNoContent, domain.StatusDown},
		{"redirect", http.StatusFound, domain.StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.code == http.StatusFound {
					w.Header().Set("Location", "/elsewhere")
				}
				w.WriteHeader(tt.code)
			}))
			defer srv.Close()

			c := NewChecker(srv.URL, time.Second)
			assert.Equal(t, tt.want, c.Check(context.Background()))
		})
	}
}

func TestCheckUnreachableIsDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewChecker(url, time.Second)
	assert.Equal(t, domain.StatusDown, c.Check(context.Background()))
}

func TestCheckTimeoutIsDown(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewChecker(srv.URL, 100*time.Millisecond)
	start := time.Now()
	assert.Equal(t, domain.StatusDown, c.Check(context.Background()))
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestConcurrentChecksShareOneRequest(t *testing.T) {
	var hits atomic.Int32
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-gate
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewChecker(srv.URL, 2*time.Second)

	var wg sync.WaitGroup
	results := make([]domain.Status, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Check(context.Background())
		}(i)
	}

	assert.Eventually(t, func() bool { return hits.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(gate)
	wg.Wait()

	assert.Equal(t, int32(1), hits.Load())
	for _, st := range results {
		assert.Equal(t, domain.StatusOperational, st)
	}
}

func TestCheckCallerCancelled(t *testing.T) {
	gate := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-gate
	}))
	defer srv.Close()
	defer close(gate)

	c := NewChecker(srv.URL, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, domain.StatusDown, c.Check(ctx))
}
