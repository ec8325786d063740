package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/stockflow/product-service/internal/platform/logger"
	"github.com/stockflow/product-service/internal/tenant"
)

const tenantKey = "tenant"

// TenantRequired resolves the acting user and branch from the gateway
// headers and rejects requests missing either one.
func TenantRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := tenant.Context{
			UserID:   c.GetHeader("X-User-ID"),
			BranchID: c.GetHeader("X-Branch-ID"),
		}
		if !t.Valid() {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "X-User-ID and X-Branch-ID headers are required"})
			c.Abort()
			return
		}
		c.Set(tenantKey, t)
		c.Next()
	}
}

func tenantFrom(c *gin.Context) tenant.Context {
	if v, ok := c.Get(tenantKey); ok {
		if t, ok := v.(tenant.Context); ok {
			return t
		}
	}
	return tenant.Context{}
}

// RequestLogger logs one line per request with latency and status.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
