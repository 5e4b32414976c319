package utils

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the single failure shape returned by every JSON endpoint.
type ErrorBody struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

type DataBody struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func SuccessResponse(c *gin.Context, code int, data interface{}) {
	c.JSON(code, DataBody{
		Success: true,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, code int, message string) {
	c.JSON(code, ErrorBody{
		Error:   message,
		Success: false,
	})
}

// AbortWithError writes the failure shape and stops the middleware chain.
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, ErrorBody{
		Error:   message,
		Success: false,
	})
}
