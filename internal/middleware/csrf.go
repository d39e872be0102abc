package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
	"github.com/noah-isme/school-records-api/pkg/response"
)

// CSRFHeader carries the double-submit token.
const CSRFHeader = "X-CSRF-Token"

// CSRF requires unsafe requests to echo the csrf cookie in CSRFHeader.
// Bearer-authenticated requests are exempt.
func CSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != "" {
			c.Next()
			return
		}
		cookie, err := c.Cookie(CSRFCookie)
		header := c.GetHeader(CSRFHeader)
		if err != nil || cookie == "" || header == "" || subtle.ConstantTimeCompare([]byte(cookie), []byte(header)) != 1 {
			response.Error(c, appErrors.ErrInvalidCSRF)
			c.Abort()
			return
		}
		c.Next()
	}
}
