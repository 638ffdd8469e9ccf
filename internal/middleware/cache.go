package middleware

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tripwise-in/tripwise-api/internal/service"
	"github.com/tripwise-in/tripwise-api/pkg/cache"
)

// CacheHeader reports whether a response was served from the cache.
const CacheHeader = "X-Cache"

type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// ResponseCache serves repeated GET requests from the in-memory store. The
// cache key is the exact request path plus raw query string, so distinct
// query strings are distinct entries. Hits replay the stored bytes
// unchanged; misses capture the serialized response body on the way out and
// store it when the handler answered 200. Everything else passes through
// untouched, so a cache problem can only ever cost a recomputation.
func ResponseCache(store *cache.MemoryStore, metrics *service.MetricsService, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			key += "?" + raw
		}

		start := time.Now()
		entry, ok := store.Get(key)
		if metrics != nil {
			metrics.RecordCacheOperation(ok, time.Since(start))
		}
		if ok {
			logger.Debug("response cache hit", zap.String("key", key))
			c.Header(CacheHeader, "HIT")
			contentType := entry.ContentType
			if contentType == "" {
				contentType = "application/json; charset=utf-8"
			}
			c.Data(http.StatusOK, contentType, entry.Body)
			c.Abort()
			return
		}

		logger.Debug("response cache miss", zap.String("key", key))
		c.Header(CacheHeader, "MISS")
		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()
		c.Writer = writer.ResponseWriter

		if writer.Status() != http.StatusOK || writer.body.Len() == 0 {
			return
		}
		contentType := writer.Header().Get("Content-Type")
		if !strings.HasPrefix(contentType, "application/json") {
			return
		}

		writeStart := time.Now()
		store.Set(key, writer.body.Bytes(), contentType, 0)
		if metrics != nil {
			metrics.ObserveCacheWrite(time.Since(writeStart))
		}
	}
}
