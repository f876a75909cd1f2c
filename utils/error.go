package utils

import (
	"net/http"

	"appointly/apperror"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Envelope is the shape of every JSON response.
type Envelope struct {
	Success bool        `json:"success"`
	Payload interface{} `json:"payload"`
}

// ErrorPayload is the payload of a failed response.
type ErrorPayload struct {
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// ErrorHandler recovers panics into a 500 envelope.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic",
					zap.Any("error", err), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
					Payload: ErrorPayload{Message: "internal server error"},
				})
			}
		}()
		c.Next()
	}
}

// JSON writes a successful envelope.
func JSON(c *gin.Context, status int, payload interface{}) {
	c.JSON(status, Envelope{Success: true, Payload: payload})
}

// JSONError writes a failed envelope with an explicit status.
func JSONError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Payload: ErrorPayload{Message: message}})
}

// RespondError maps err to its HTTP status. Unclassified errors are logged and
// reported with a generic message.
func RespondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperror.HTTPStatus(err)
	kind := apperror.KindOf(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	} else {
		logger.Debug("Request rejected", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.AbortWithStatusJSON(status, Envelope{
		Payload: ErrorPayload{Kind: string(kind), Message: apperror.PublicMessage(err)},
	})
}
