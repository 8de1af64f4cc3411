package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khoahotran/academic-records/pkg/apperror"
	"github.com/khoahotran/academic-records/pkg/logger"
)

// ErrorMiddleware renders the last error a handler attached with c.Error and
// turns panics into a 500. The underlying cause is only exposed when
// exposeCause is set.
func ErrorMiddleware(log logger.Logger, exposeCause bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err := fmt.Errorf("panic: %v", r)
				log.Error("Recovered from panic", err,
					zap.String("path", c.Request.URL.Path),
					zap.String("request_id", c.GetString(GinContextKeyRequestID)),
					zap.Stack("stack"),
				)
				appErr := apperror.NewInternal("unexpected failure while handling the request", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, appErr.ToJSON(exposeCause))
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.NewInternal("unexpected error", err)
		}
		status := apperror.ToHTTPStatus(appErr)

		if status >= http.StatusInternalServerError {
			log.Error("Request failed", err,
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", c.GetString(GinContextKeyRequestID)),
			)
		} else {
			log.Debug("Request rejected",
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.String("reason", appErr.Error()),
			)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(status, appErr.ToJSON(exposeCause))
	}
}
