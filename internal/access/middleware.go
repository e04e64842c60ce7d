package access

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"propertyhub/web/internal/models"
	"propertyhub/web/internal/session"
)

// LoginPath is where unauthenticated visitors are sent when they hit a gated
// route.
const LoginPath = "/login"

// Require gates a route group on the given requirement, reading the session
// snapshot at request time so a logout takes effect immediately.
func Require(sessions *session.Store, req Requirement) gin.HandlerFunc {
	return func(c *gin.Context) {
		snapshot := sessions.Snapshot()

		var user *models.User
		if snapshot.IsAuthenticated() {
			user = snapshot.User
		}

		switch CanAccess(req, user) {
		case Granted:
			c.Next()
		case LoginRequired:
			c.Redirect(http.StatusFound, LoginPath)
			c.Abort()
		case Denied:
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			c.Abort()
		}
	}
}
