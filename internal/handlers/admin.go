package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tms-portal/internal/activity"
	"tms-portal/internal/middleware"
	"tms-portal/internal/users"
)

//
// АДМИН-ПАНЕЛЬ
//

func (h *Handler) ListUsers(c *gin.Context) {
	list, err := h.users.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": list})
}

func (h *Handler) CreateUser(c *gin.Context) {
	var form users.NewUser
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "invalid request")
		return
	}

	actor := middleware.CurrentUser(c).Username
	u, err := h.users.Create(c.Request.Context(), actor, form)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	actor := middleware.CurrentUser(c).Username
	if err := h.users.Delete(c.Request.Context(), actor, c.Param("username")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /admin/logs?limit=
func (h *Handler) ListLogs(c *gin.Context) {
	limit := activity.RecentLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive number")
			return
		}
		limit = n
	}

	entries, err := h.activity.Recent(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": entries})
}
