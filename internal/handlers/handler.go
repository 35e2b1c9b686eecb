package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tms-portal/internal/activity"
	"tms-portal/internal/auth"
	"tms-portal/internal/credstore"
	"tms-portal/internal/filestore"
	"tms-portal/internal/logging"
	"tms-portal/internal/middleware"
	"tms-portal/internal/users"
)

// Authenticator checks a username/password pair against the credential store.
type Authenticator interface {
	Authenticate(ctx context.Context, username, secret string) (auth.SessionIdentity, error)
}

type Options struct {
	Remember    middleware.Remember
	RememberTTL time.Duration
	// SecureCookies marks cookies Secure; off for plain-http development.
	SecureCookies bool
}

type Handler struct {
	auth     Authenticator
	users    *users.Service
	files    *filestore.Store
	activity activity.Log
	opts     Options
	log      logging.Logger
}

func New(a Authenticator, us *users.Service, fs *filestore.Store, act activity.Log, opts Options, log logging.Logger) *Handler {
	return &Handler{auth: a, users: us, files: fs, activity: act, opts: opts, log: log}
}

const msgInvalidCredential = "Username or password is incorrect."

// fail maps domain errors to an HTTP status and a JSON body.
func (h *Handler) fail(c *gin.Context, err error) {
	status, msg := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, auth.ErrSourceUnavailable):
		status, msg = http.StatusServiceUnavailable, "credential store unavailable"
	case errors.Is(err, auth.ErrInvalidCredential):
		status, msg = http.StatusUnauthorized, msgInvalidCredential
	case errors.Is(err, users.ErrInvalidInput):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, credstore.ErrUserExists):
		status, msg = http.StatusConflict, "user already exists"
	case errors.Is(err, credstore.ErrUserNotFound):
		status, msg = http.StatusNotFound, "user not found"
	case errors.Is(err, filestore.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, filestore.ErrExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, filestore.ErrInvalidName),
		errors.Is(err, filestore.ErrUnknownFolder):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, filestore.ErrUnsupportedType):
		status, msg = http.StatusUnsupportedMediaType, err.Error()
	}

	if status == http.StatusInternalServerError {
		h.log.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// record writes an admin action to the activity log. A failure is only logged.
func (h *Handler) record(c *gin.Context, action string) {
	ctx := c.Request.Context()
	actor := middleware.CurrentUser(c).Username
	if err := h.activity.Record(ctx, actor, action); err != nil {
		h.log.Error(ctx, "cannot write activity log", "action", action, "error", err)
	}
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
