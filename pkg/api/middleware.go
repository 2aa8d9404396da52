package api

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/james-see/fractune/internal/config"
	"github.com/james-see/fractune/internal/logger"
)

const (
	sentryFlushTimeout = 2 * time.Second

	// AnonymousOwner owns every composition saved without a gateway identity
	AnonymousOwner = "anonymous"
)

// RequestTracking adds a request ID and logs every request
func RequestTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := uuid.New().String()
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		logger.LogAPIRequest(c, time.Since(start), c.Writer.Status(), nil)
	}
}

// SentryMiddleware returns the Sentry middleware with custom configuration
func SentryMiddleware() gin.HandlerFunc {
	return sentrygin.New(sentrygin.Options{
		Repanic:         true,
		WaitForDelivery: false,
		Timeout:         sentryFlushTimeout,
	})
}

// RecoverWithSentry recovers from panics and sends them to Sentry
func RecoverWithSentry() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				if hub := sentrygin.GetHubFromContext(c); hub != nil {
					hub.WithScope(func(scope *sentry.Scope) {
						scope.SetRequest(c.Request)
						scope.SetContext("request", map[string]interface{}{
							"request_id": c.GetString("request_id"),
							"method":     c.Request.Method,
							"path":       c.Request.URL.Path,
						})
						if owner := c.GetString("owner_id"); owner != "" {
							scope.SetUser(sentry.User{ID: owner})
						}
						hub.RecoverWithContext(c.Request.Context(), err)
					})
				}

				logger.Error("Panic recovered", nil, logger.Fields{
					"request_id": c.GetString("request_id"),
					"error":      err,
					"path":       c.Request.URL.Path,
				})

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":      "Internal server error",
					"request_id": c.GetString("request_id"),
				})
			}
		}()
		c.Next()
	}
}

// Identity resolves the owner of the request. Behind a gateway the owner is
// taken from X-User-ID when present; otherwise every request is anonymous.
func Identity(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := AnonymousOwner
		if cfg.IsGatewayMode() {
			if id := c.GetHeader("X-User-ID"); id != "" {
				owner = id
				c.Set("user_email", c.GetHeader("X-User-Email"))
			}
		}
		c.Set("owner_id", owner)
		c.Next()
	}
}

// OwnerID returns the owner resolved by Identity
func OwnerID(c *gin.Context) string {
	if owner := c.GetString("owner_id"); owner != "" {
		return owner
	}
	return AnonymousOwner
}
