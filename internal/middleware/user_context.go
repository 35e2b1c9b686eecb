package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"tms-portal/internal/auth"
	"tms-portal/internal/logging"
)

const (
	SessionUsernameKey = "username"
	currentUserKey     = "CurrentUser"
)

// IdentityLookup re-reads a known user from the credential store.
type IdentityLookup interface {
	Lookup(ctx context.Context, username string) (auth.SessionIdentity, error)
}

// Remember describes the remember-me cookie.
type Remember struct {
	Cookie string
	Secret []byte
}

// InjectUser resolves who is behind the request: first from the session,
// then from the remember-me cookie. Role and name always come from the
// store, so a deleted or demoted user loses access on the next request.
// If the store is down the request is refused with 503.
func InjectUser(users IdentityLookup, rm Remember, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		ctx := c.Request.Context()

		username, _ := sess.Get(SessionUsernameKey).(string)
		fromCookie := false
		if username == "" {
			if tok, err := c.Cookie(rm.Cookie); err == nil && tok != "" {
				if name, err := auth.ParseToken(rm.Secret, tok); err == nil {
					username, fromCookie = name, true
				} else {
					log.Debug(ctx, "ignoring remember-me cookie", "error", err)
				}
			}
		}

		ident := auth.SessionIdentity{}
		if username != "" {
			var err error
			ident, err = users.Lookup(ctx, username)
			switch {
			case errors.Is(err, auth.ErrSourceUnavailable):
				c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "credential store unavailable"})
				return
			case err != nil:
				// the user was removed from the store
				ident = auth.SessionIdentity{}
				sess.Clear()
				_ = sess.Save()
			case fromCookie:
				sess.Set(SessionUsernameKey, ident.Username)
				_ = sess.Save()
			}
		}

		c.Set(currentUserKey, ident)
		c.Next()
	}
}

// CurrentUser returns the identity placed by InjectUser, or an anonymous one.
func CurrentUser(c *gin.Context) auth.SessionIdentity {
	if v, ok := c.Get(currentUserKey); ok {
		if ident, ok := v.(auth.SessionIdentity); ok {
			return ident
		}
	}
	return auth.SessionIdentity{}
}
