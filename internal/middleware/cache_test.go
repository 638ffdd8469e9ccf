package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/pkg/cache"
)

func newCachedRouter(t *testing.T, store *cache.MemoryStore, calls *int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ResponseCache(store, nil, zap.NewNop()))
	router.GET("/api/v1/packages", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"data": []string{"goa", "kerala"}, "calls": *calls})
	})
	router.POST("/api/v1/packages", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusOK, gin.H{"created": true})
	})
	router.GET("/api/v1/missing", func(c *gin.Context) {
		*calls++
		c.JSON(http.StatusNotFound, gin.H{"error": "nope"})
	})
	return router
}

func performRequest(router *gin.Engine, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestResponseCacheServesIdenticalBytes(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute, time.Minute, zap.NewNop())
	calls := 0
	router := newCachedRouter(t, store, &calls)

	first := performRequest(router, http.MethodGet, "/api/v1/packages")
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, "MISS", first.Header().Get(CacheHeader))

	second := performRequest(router, http.MethodGet, "/api/v1/packages")
	require.Equal(t, http.StatusOK, second.Code)
	require.Equal(t, "HIT", second.Header().Get(CacheHeader))
	require.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	require.Equal(t, 1, calls, "handler must not run on a cache hit")
}

func TestResponseCacheDistinctQueryStrings(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute, time.Minute, zap.NewNop())
	calls := 0
	router := newCachedRouter(t, store, &calls)

	performRequest(router, http.MethodGet, "/api/v1/packages?featured=true")
	performRequest(router, http.MethodGet, "/api/v1/packages?featured=false")
	require.Equal(t, 2, calls)
	require.Equal(t, 2, store.Len())

	// Same key again hits.
	performRequest(router, http.MethodGet, "/api/v1/packages?featured=true")
	require.Equal(t, 2, calls)
}

func TestResponseCacheSkipsNonGet(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute, time.Minute, zap.NewNop())
	calls := 0
	router := newCachedRouter(t, store, &calls)

	performRequest(router, http.MethodPost, "/api/v1/packages")
	performRequest(router, http.MethodPost, "/api/v1/packages")
	require.Equal(t, 2, calls)
	require.Equal(t, 0, store.Len())
}

func TestResponseCacheSkipsNon200(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute, time.Minute, zap.NewNop())
	calls := 0
	router := newCachedRouter(t, store, &calls)

	performRequest(router, http.MethodGet, "/api/v1/missing")
	performRequest(router, http.MethodGet, "/api/v1/missing")
	require.Equal(t, 2, calls)
	require.Equal(t, 0, store.Len())
}

func TestResponseCacheFlushForcesRecompute(t *testing.T) {
	store := cache.NewMemoryStore(time.Minute, time.Minute, zap.NewNop())
	calls := 0
	router := newCachedRouter(t, store, &calls)

	performRequest(router, http.MethodGet, "/api/v1/packages")
	performRequest(router, http.MethodGet, "/api/v1/packages")
	require.Equal(t, 1, calls)

	store.Flush()

	third := performRequest(router, http.MethodGet, "/api/v1/packages")
	require.Equal(t, "MISS", third.Header().Get(CacheHeader))
	require.Equal(t, 2, calls)
}

func TestResponseCacheNilStorePassesThrough(t *testing.T) {
	calls := 0
	router := newCachedRouter(t, nil, &calls)

	resp := performRequest(router, http.MethodGet, "/api/v1/packages")
	require.Equal(t, http.StatusOK, resp.Code)
	require.Empty(t, resp.Header().Get(CacheHeader))
	require.Equal(t, 1, calls)
}
