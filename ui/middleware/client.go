package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"disputelens/domain/core"
)

const (
	// ClientCookie keeps the client key across page loads, the way the
	// browser keeps the session id in local storage
	ClientCookie = "disputelens_client"

	clientKey    = "clientKey"
	requestIDKey = "requestID"
)

// EnsureClient attaches a client key to every request, issuing a cookie on
// first visit.
func EnsureClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := core.ClientKey("")
		if cookie, err := c.Cookie(ClientCookie); err == nil && strings.TrimSpace(cookie) != "" {
			key = core.ClientKey(cookie)
		}

		if key.IsEmpty() {
			key = core.NewClientKey()
			log.Printf("[EnsureClient] issued client key %s", key)
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(ClientCookie, key.String(), 30*24*3600, "/", "", false, true)
		}

		c.Set(clientKey, key)
		c.Next()
	}
}

// RequestID tags each request with an X-Request-ID, reusing an inbound one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = core.NewRequestID()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)
		c.Next()
	}
}

// Client returns the client key set by EnsureClient.
func Client(c *gin.Context) core.ClientKey {
	if v, ok := c.Get(clientKey); ok {
		if key, ok := v.(core.ClientKey); ok {
			return key
		}
	}
	return ""
}

// RequestIDFrom returns the request id set by RequestID.
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
