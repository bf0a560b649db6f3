package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	responseMetaKey = "response_meta"
	cacheHitKey     = "cache_hit"
	processingKey   = "processing_time_ms"
)

// WithResponseMeta attaches a metadata map to the request context that
// handlers enrich and replies carry in the envelope's meta field.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Set(responseMetaKey, map[string]interface{}{})

		c.Next()

		meta := metaFor(c)
		if _, set := meta[processingKey]; !set {
			meta[processingKey] = time.Since(start).Milliseconds()
		}
	}
}

// SetCacheHit records whether the response was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaFor(c)[cacheHitKey] = hit
}

// ExtractMeta returns the metadata map stored on the context, or nil when
// WithResponseMeta is not installed.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if v, exists := c.Get(responseMetaKey); exists {
		if meta, ok := v.(map[string]interface{}); ok {
			return meta
		}
	}
	return nil
}

func metaFor(c *gin.Context) map[string]interface{} {
	if meta := ExtractMeta(c); meta != nil {
		return meta
	}
	meta := map[string]interface{}{}
	if c != nil {
		c.Set(responseMetaKey, meta)
	}
	return meta
}
