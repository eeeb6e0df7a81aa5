package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RequireContentType rejects bodies on POST/PUT/PATCH whose media type does
// not start with mediaType, e.g. "application/json; charset=utf-8" passes for
// "application/json".
func RequireContentType(mediaType string) gin.HandlerFunc {
	mediaType = strings.ToLower(mediaType)

	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			ct := strings.ToLower(c.GetHeader("Content-Type"))
			if !strings.HasPrefix(ct, mediaType) {
				c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{
					"error": gin.H{
						"code":      "unsupported_media_type",
						"message":   "Content-Type must be " + mediaType,
						"requestId": RequestIDFromContext(c),
					},
				})
				return
			}
		}
		c.Next()
	}
}

func RequireJSON() gin.HandlerFunc {
	return RequireContentType("application/json")
}

func RequireMultipart() gin.HandlerFunc {
	return RequireContentType("multipart/form-data")
}
