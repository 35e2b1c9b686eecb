package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tms-portal/internal/filestore"
)

//
// ОБЩИЕ ФАЙЛЫ
//

// GET /files?search=&type=&sort=
func (h *Handler) ListFiles(c *gin.Context) {
	typ, err := filestore.ParseTypeFilter(c.Query("type"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	by, err := filestore.ParseSort(c.Query("sort"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	files, err := h.files.ListUploads(filestore.Filter{
		Search: c.Query("search"),
		Type:   typ,
		Sort:   by,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

// POST /files (multipart, поле file)
func (h *Handler) UploadFile(c *gin.Context) {
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

	fi, err := h.files.SaveUpload(fh.Filename, f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, fi)
}

// GET /files/:name, ?inline=1 для предпросмотра
func (h *Handler) DownloadFile(c *gin.Context) {
	name := c.Param("name")
	path, err := h.files.UploadPath(name)
	if err != nil {
		h.fail(c, err)
		return
	}
	serve(c, path, name)
}

func (h *Handler) DeleteFile(c *gin.Context) {
	name := c.Param("name")
	if err := h.files.DeleteUpload(name); err != nil {
		h.fail(c, err)
		return
	}
	h.record(c, "Deleted uploaded file: "+name)
	c.Status(http.StatusNoContent)
}

func serve(c *gin.Context, path, name string) {
	if c.Query("inline") == "1" {
		c.File(path)
		return
	}
	c.FileAttachment(path, name)
}
