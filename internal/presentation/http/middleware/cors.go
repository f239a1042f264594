package middleware

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sangkips/refundify-api/internal/config"
)

// CORSMiddleware creates a CORS middleware with the provided configuration.
// Idempotency-Key and X-Tenant are always allowed: browser clients must be
// able to send both or the refund endpoints are unusable cross-origin.
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "X-Request-ID", "X-Idempotency-Replayed"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// If no origins are configured, allow common development origins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{
			"http://localhost:3000",
			"http://localhost:3001",
			"http://127.0.0.1:3000",
		}
	}

	// If no methods are configured, use defaults
	if len(corsConfig.AllowMethods) == 0 {
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}

	// If no headers are configured, use defaults
	if len(corsConfig.AllowHeaders) == 0 {
		corsConfig.AllowHeaders = []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-CSRF-Token",
			"X-Request-ID",
			"Origin",
		}
	}
	corsConfig.AllowHeaders = ensureHeaders(corsConfig.AllowHeaders, IdempotencyKeyHeader, TenantHeader)

	return cors.New(corsConfig)
}

func ensureHeaders(headers []string, required ...string) []string {
	for _, want := range required {
		found := false
		for _, h := range headers {
			if h == want {
				found = true
				break
			}
		}
		if !found {
			headers = append(headers, want)
		}
	}
	return headers
}
