package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerContextKey holds the request-scoped *zap.Logger set by the logging middleware.
const LoggerContextKey = "logger"

// Envelope is the body of every successful response. Pagination is only
// present on list endpoints.
type Envelope struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message,omitempty"`
	Data       interface{} `json:"data"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// RespondWithError aborts the request with the JSON error envelope. Errors
// that are not an *APIError become a 500; their text is only exposed in debug mode.
func RespondWithError(c *gin.Context, err error) {
	apiErr, ok := IsAPIError(err)
	if !ok {
		if logger, ok := c.Value(LoggerContextKey).(*zap.Logger); ok {
			logger.Error("Unhandled internal error", zap.Error(err), zap.String("path", c.FullPath()))
		}
		apiErr = ErrInternalServer
		if gin.Mode() == gin.DebugMode {
			apiErr = ErrInternalServer.WithDetails(err.Error())
		}
	}
	body := *apiErr
	body.Success = false
	c.AbortWithStatusJSON(apiErr.StatusCode, body)
}

func RespondSuccess(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Envelope{Success: true, Message: message, Data: data})
}

func RespondOK(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusOK, message, data)
}

func RespondCreated(c *gin.Context, message string, data interface{}) {
	RespondSuccess(c, http.StatusCreated, message, data)
}

// RespondPaginated sends one page of a list with its pagination block.
func RespondPaginated(c *gin.Context, message string, data interface{}, pagination *Pagination) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Pagination: pagination})
}
