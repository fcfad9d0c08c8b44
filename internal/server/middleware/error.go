package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/image-router-api/internal/core/domain"
	"github.com/nulzo/image-router-api/pkg/api"
	"go.uber.org/zap"
)

// ErrorHandler converts errors attached to the context into JSON
// responses. Handlers call c.Error and return; this runs after them.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		// RFC 9457 problems carry their own status and serialize at
		// the response root.
		if problem, ok := err.(*domain.Problem); ok {
			if problem.Log != nil {
				logger.Error("Request failed",
					zap.Int("status", problem.Status),
					zap.String("title", problem.Title),
					zap.Error(problem.Log),
				)
			}
			c.JSON(problem.Status, problem)
			c.Abort()
			return
		}

		if domErr, ok := err.(*domain.Error); ok {
			if domErr.Log != nil {
				logger.Error("Request failed",
					zap.Int("status", domErr.Code),
					zap.String("message", domErr.Message),
					zap.Error(domErr.Log),
				)
			}
			c.JSON(domErr.Code, api.ErrorResponse{Message: domErr.Message})
			c.Abort()
			return
		}

		logger.Error("Unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: "An unexpected error occurred."})
		c.Abort()
	}
}
