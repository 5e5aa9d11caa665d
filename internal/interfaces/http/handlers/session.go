// internal/interfaces/http/handlers/session.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/your-org/jewelry-storefront/internal/domain/cart"
	"github.com/your-org/jewelry-storefront/internal/domain/identity"
	"github.com/your-org/jewelry-storefront/internal/interfaces/http/middleware"
)

const sessionCookieName = "session_id"

// getOrCreateSessionID gets the session ID from the cookie or creates
// a new one.
func getOrCreateSessionID(c *gin.Context) string {
	sessionID, err := c.Cookie(sessionCookieName)
	if err != nil || sessionID == "" {
		sessionID = uuid.New().String()

		// Session cookie (24 hours)
		c.SetCookie(sessionCookieName, sessionID, 86400, "/", "", false, true)
	}

	return sessionID
}

// resolveSession returns the cart session for the request and keeps
// its identity provider in step with the request's authentication.
// Mode is a pure function of identity presence: a token appearing
// flips the session to authenticated (running the one-shot merge), a
// token disappearing flips it back to anonymous.
func resolveSession(c *gin.Context, registry *cart.Registry) *cart.Session {
	sess := registry.Session(getOrCreateSessionID(c))

	userID, authed := middleware.GetUserIDFromContext(c)
	current := sess.Identity.Current()

	switch {
	case authed && (current == nil || current.UserID != userID):
		email, _ := middleware.GetUserEmailFromContext(c)
		sess.Identity.Set(&identity.Identity{UserID: userID, Email: email})
	case !authed && current != nil:
		sess.Identity.Clear()
	}

	return sess
}
