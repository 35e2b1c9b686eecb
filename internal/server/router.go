package server

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"tms-portal/internal/handlers"
	"tms-portal/internal/logging"
	"tms-portal/internal/middleware"
	"tms-portal/internal/models"
)

const sessionName = "tms_session"

type Deps struct {
	Handler       *handlers.Handler
	Users         middleware.IdentityLookup
	Remember      middleware.Remember
	SessionSecret []byte
	SecureCookies bool
	Log           logging.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())

	store := cookie.NewStore(d.SessionSecret)
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   d.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	h := d.Handler

	// HEALTHCHECK
	r.GET("/health", handlers.Health)

	// AUTH
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	auth := r.Group("/")
	auth.Use(middleware.InjectUser(d.Users, d.Remember, d.Log))
	auth.Use(middleware.RequireAuth())

	auth.GET("/me", h.Me)

	// ОБЩИЕ ФАЙЛЫ
	auth.GET("/files", h.ListFiles)
	auth.POST("/files", h.UploadFile)
	auth.GET("/files/:name", h.DownloadFile)

	// ПРОЕКТЫ
	auth.GET("/projects", h.ListProjects)
	auth.POST("/projects", h.CreateProject)
	auth.GET("/projects/:name", h.ShowProject)
	auth.POST("/projects/:name/:folder", h.UploadProjectFile)
	auth.GET("/projects/:name/:folder/:file", h.DownloadProjectFile)

	// удаление: только админ
	admin := middleware.RequireRole(models.RoleAdmin)
	auth.DELETE("/files/:name", admin, h.DeleteFile)
	auth.DELETE("/projects/:name", admin, h.DeleteProject)
	auth.DELETE("/projects/:name/:folder/:file", admin, h.DeleteProjectFile)

	// АДМИН-ПАНЕЛЬ
	panel := auth.Group("/admin", admin)
	panel.GET("/users", h.ListUsers)
	panel.POST("/users", h.CreateUser)
	panel.DELETE("/users/:username", h.DeleteUser)
	panel.GET("/logs", h.ListLogs)

	return r
}
