package reviews

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchDisabled(t *testing.T) {
	c := NewClient("")
	got := c.Fetch(context.Background())
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestFetchAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"author":"J. D.","rating":5,"content":"Settled 60% off"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got := c.Fetch(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "J. D.", got[0].Author)
	assert.Equal(t, 5, got[0].Rating)

	// Within the TTL the cache short-circuits the request.
	_ = c.Fetch(context.Background())
	_ = c.Fetch(context.Background())
	assert.EqualValues(t, 1, hits.Load())
}

func TestFetchServesStaleCacheOnFailure(t *testing.T) {
	var fail atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"author":"M. K.","rating":4,"content":"Great advisors"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	require.Len(t, c.Fetch(context.Background()), 1)

	// Expire the cache, then break the upstream.
	c.mu.Lock()
	c.fetchedAt = c.fetchedAt.Add(-2 * cacheTTL)
	c.mu.Unlock()
	fail.Store(true)

	got := c.Fetch(context.Background())
	require.Len(t, got, 1, "stale cache still served")
	assert.Equal(t, "M. K.", got[0].Author)
}

func TestFetchDegradesToEmptyWithoutCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	got := c.Fetch(context.Background())
	assert.Empty(t, got)
	assert.NotNil(t, got)
}
