package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// NoStore keeps student attendance out of browser and proxy caches.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Header("Pragma", "no-cache")
		c.Next()
	}
}

// PrivateMaxAge lets the browser reuse a response for a short while, for data
// such as class lists that rarely change during a session.
func PrivateMaxAge(seconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", fmt.Sprintf("private, max-age=%d", seconds))
		c.Writer.Header().Del("Pragma")
		c.Next()
	}
}
