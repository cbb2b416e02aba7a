package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

// UserIDKey is the gin context key under which RequireUser stores the
// authenticated user's id.
const UserIDKey = "userID"

// SessionUserID is the session value key carrying the logged-in user id.
const SessionUserID = "user_id"

// RequireUser ensures the incoming request belongs to an authenticated
// session. Unauthenticated requests get a JSON 401 response.
func RequireUser(store sessions.Store, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, err := store.Get(c.Request, cookieName)
		if err == nil {
			if userID, ok := session.Values[SessionUserID].(int64); ok && userID > 0 {
				c.Set(UserIDKey, userID)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"status":  "error",
			"message": "authentication required",
		})
	}
}

// CurrentUserID extracts the authenticated user id placed in the context by
// RequireUser.
func CurrentUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(UserIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}
