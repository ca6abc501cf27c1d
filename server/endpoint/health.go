// Package endpoint holds the placeholder HTTP handlers.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/memeforanyone/component"
	apperrors "github.com/kbukum/memeforanyone/errors"
)

// Greeting is the body served at "/".
const Greeting = "Hello, MemeforAnyone!"

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []component.Health

// Root returns the greeting handler.
func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.String(http.StatusOK, Greeting)
	}
}

// Health reports service health including component statuses.
// Degraded still answers 200. Unhealthy answers 503 with the standard error
// body, the status and components carried in its details.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := []component.Health{}
		if checker != nil {
			components = checker(c.Request.Context())
		}
		status := component.Overall(components)

		if status == component.StatusUnhealthy {
			appErr := apperrors.ServiceUnavailable(serviceName).
				WithDetail("status", status).
				WithDetail("components", components)
			c.JSON(appErr.HTTPStatus, appErr.ToResponse())
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}
