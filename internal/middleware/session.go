package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// ContextKeySession is where the visitor's opaque session token lands
// in the echo context.
const ContextKeySession = "session_token"

// VisitorSession assigns each visitor an opaque session token in a
// cookie and exposes it to handlers via the context. The token is the
// key for the session ticket guard; it carries no identity.
func VisitorSession(cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var token string
			if cookie, err := c.Cookie(cookieName); err == nil && cookie.Value != "" {
				token = cookie.Value
			} else {
				token = uuid.New().String()
				c.SetCookie(&http.Cookie{
					Name:     cookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			c.Set(ContextKeySession, token)
			return next(c)
		}
	}
}

// SessionToken reads the token set by VisitorSession.
func SessionToken(c echo.Context) string {
	if v, ok := c.Get(ContextKeySession).(string); ok {
		return v
	}
	return ""
}
