package middlewares

import "github.com/gin-gonic/gin"

// gin context keys
const (
	CtxRequestID = "request_id"
	CtxUserID    = "auth.userID"
)

func RequestIDFromContext(c *gin.Context) string {
	v, ok := c.Get(CtxRequestID)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
