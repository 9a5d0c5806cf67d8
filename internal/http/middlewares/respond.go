package middlewares

import "github.com/gin-gonic/gin"

// ErrorBody is the failure half of the response envelope, as written by middlewares.
// Its JSON field names match handlers.Envelope.
type ErrorBody struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Error      string `json:"error,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, ErrorBody{Message: message})
}
