package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Smalik1203/Classbridge-V1-sub001/internal/response"
)

// RequireSchool rejects tokens issued for a school other than the one this
// deployment serves. An empty schoolCode disables the check.
func RequireSchool(schoolCode string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if schoolCode == "" {
			c.Next()
			return
		}
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		if claims.SchoolCode != schoolCode {
			response.AbortFail(c, http.StatusForbidden, response.ErrWrongSchool)
			return
		}
		c.Next()
	}
}
