package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LoggerMiddleware tags every request with an X-Request-ID and logs one
// line per request including the tenant it resolved to, so a disputed
// refund can be traced from the access log alone.
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		c.Next()

		// Tenant is resolved downstream of this middleware, so it is only
		// available here after c.Next()
		tenant := "-"
		if tenantID, ok := c.Get("tenant_id"); ok {
			if id, ok := tenantID.(uuid.UUID); ok && id != uuid.Nil {
				tenant = id.String()[:8]
			}
		}

		log.Printf("[%s] %s | %d | %v | %s | %s | tenant=%s",
			requestID[:8],
			c.Request.Method,
			c.Writer.Status(),
			time.Since(start),
			c.ClientIP(),
			path,
			tenant,
		)

		for _, e := range c.Errors {
			log.Printf("[%s] Error: %v", requestID[:8], e.Err)
		}
	}
}
