// Package middleware holds the Gin middleware used by the HTTP server.
package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/memeforanyone/errors"
	"github.com/kbukum/memeforanyone/logger"
)

// Recovery returns a Gin middleware that recovers from panics and logs the stack.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered", map[string]interface{}{
					"error":               fmt.Sprintf("%v", err),
					"stack":               string(debug.Stack()),
					"path":                c.Request.URL.Path,
					"method":              c.Request.Method,
					logger.FieldRequestID: c.GetString(RequestIDKey),
				})
				appErr := apperrors.Internal(fmt.Errorf("panic: %v", err))
				c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
			}
		}()
		c.Next()
	}
}
