package errors

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"anime-character-catalog/backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Envelope is the body of every error response.
type Envelope struct {
	Error *AppError `json:"error"`
}

// ErrorHandler returns a middleware that renders the first error attached
// with c.Error as the error envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		appErr := FromError(c.Errors[0].Err)
		log := logger.FromContext(c)

		if appErr.StatusCode >= http.StatusInternalServerError {
			cause := appErr.Error()
			if appErr.Cause != nil {
				cause = appErr.Cause.Error()
			}
			log.Error("Request failed",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"status_code", appErr.StatusCode,
				"error", cause,
			)
		} else {
			log.Debug("Request rejected",
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"status_code", appErr.StatusCode,
				"error_code", appErr.Code,
				"details", appErr.Details,
			)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(appErr.StatusCode, Envelope{Error: appErr})
	}
}

// RecoveryWithLogger returns a middleware that recovers from any panics,
// logs them with the stack and answers with the opaque 500 envelope.
func RecoveryWithLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(c).Error("Panic recovered",
					"error", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
					Error: NewInternalServerError(fmt.Errorf("panic: %v", r)),
				})
			}
		}()

		c.Next()
	}
}
