package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

//
// ПРОЕКТЫ
//

// GET /projects?search=
func (h *Handler) ListProjects(c *gin.Context) {
	projects, err := h.files.ListProjects(c.Query("search"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

type projectForm struct {
	Name string `form:"name" json:"name"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	var form projectForm
	if err := c.ShouldBind(&form); err != nil {
		badRequest(c, "invalid request")
		return
	}

	p, err := h.files.CreateProject(form.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handler) ShowProject(c *gin.Context) {
	p, err := h.files.Project(c.Param("name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) DeleteProject(c *gin.Context) {
	name := c.Param("name")
	if err := h.files.DeleteProject(name); err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, "Deleted project: "+name)
	c.Status(http.StatusNoContent)
}

//
// ФАЙЛЫ ПРОЕКТА
//

// POST /projects/:name/:folder (multipart, поле file)
func (h *Handler) UploadProjectFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	fi, err := h.files.SaveProjectFile(c.Param("name"), c.Param("folder"), fh.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fi)
}

func (h *Handler) DownloadProjectFile(c *gin.Context) {
	name := c.Param("file")
	path, err := h.files.ProjectFilePath(c.Param("name"), c.Param("folder"), name)
	if err != nil {
		h.fail(c, err)
		return
	}
	serve(c, path, name)
}

func (h *Handler) DeleteProjectFile(c *gin.Context) {
	project, name := c.Param("name"), c.Param("file")
	if err := h.files.DeleteProjectFile(project, c.Param("folder"), name); err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, fmt.Sprintf("Deleted file: %s in project %s", name, project))
	c.Status(http.StatusNoContent)
}
