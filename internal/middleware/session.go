package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todo-manager/internal/models"
	"todo-manager/internal/services"
)

const (
	currentUserKey  = "current_user"
	sessionTokenKey = "session_token"

	// EntryPath is where requests without a session are sent.
	EntryPath = "/"
)

// BearerToken returns the token from the Authorization header, or "".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// LoadSession resolves the bearer token, when there is one, and stores the
// user on the context. Requests without a valid session pass through
// anonymously.
func LoadSession(sessions services.SessionService, logger *log.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			c.Next()
			return
		}
		c.Set(sessionTokenKey, token)

		user, err := sessions.Resolve(c.Request.Context(), token)
		switch {
		case err == nil:
			c.Set(currentUserKey, user)
		case errors.Is(err, services.ErrNoSession):
		default:
			logger.Error("session lookup failed", "path", c.Request.URL.Path, "err", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Next()
	}
}

// RequireSession sends anonymous requests to the entry point with 303.
func RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); !ok {
			c.Redirect(http.StatusSeeOther, EntryPath)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RedirectIfAuthenticated sends signed-in requests to target with 303.
func RedirectIfAuthenticated(target string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := CurrentUser(c); ok {
			c.Redirect(http.StatusSeeOther, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok && user != nil
}

// SessionToken returns the raw token seen by LoadSession, valid or not.
func SessionToken(c *gin.Context) string {
	return c.GetString(sessionTokenKey)
}

// SetCurrentUser is used by tests and by handlers that sign a user in.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(currentUserKey, user)
}
