package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Body is the common JSON envelope for API responses.
type Body struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Body{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func Fail(c *gin.Context, message string, data interface{}) {
	FailWithStatus(c, http.StatusBadRequest, message, data)
}

func FailWithStatus(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Body{
		Success:   false,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
