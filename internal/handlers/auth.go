package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"tms-portal/internal/auth"
	"tms-portal/internal/middleware"
)

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Remember bool   `form:"remember" json:"remember"`
}

func (h *Handler) Login(c *gin.Context) {
	var form loginForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "invalid request")
		return
	}
	form.Username = strings.TrimSpace(form.Username)

	ctx := c.Request.Context()
	ident, err := h.auth.Authenticate(ctx, form.Username, form.Password)
	if err != nil {
		h.log.Info(ctx, "login failed", "username", form.Username, "error", err)
		h.fail(c, err)
		return
	}

	sess := sessions.Default(c)
	sess.Set(middleware.SessionUsernameKey, ident.Username)
	if err := sess.Save(); err != nil {
		h.fail(c, err)
		return
	}

	if form.Remember {
		tok, err := auth.IssueToken(h.opts.Remember.Secret, ident.Username, h.opts.RememberTTL)
		if err != nil {
			h.fail(c, err)
			return
		}
		h.setRememberCookie(c, tok, int(h.opts.RememberTTL.Seconds()))
	}

	h.log.Info(ctx, "login", "username", ident.Username, "role", ident.Role)
	c.JSON(http.StatusOK, ident)
}

func (h *Handler) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = sess.Save()

	h.setRememberCookie(c, "", -1)
	c.JSON(http.StatusOK, auth.SessionIdentity{})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

func (h *Handler) setRememberCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.opts.Remember.Cookie, value, maxAge, "/", "", h.opts.SecureCookies, true)
}
