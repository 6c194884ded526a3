package handlers

import (
	"errors"
	"strconv"

	"github.com/dimitrije/unity-admin/internal/services"
	"github.com/m1z23r/drift/pkg/drift"
)

type FilesHandler struct {
	blobs BlobServiceInterface
}

func NewFilesHandler(blobs BlobServiceInterface) *FilesHandler {
	return &FilesHandler{blobs: blobs}
}

// Download serves a committed blob. Keys are "<folder>/<name>".
func (h *FilesHandler) Download(c *drift.Context) {
	folder, name := c.Param("folder"), c.Param("name")
	if folder == "" || name == "" {
		c.NotFound("file not found")
		return
	}

	blob, err := h.blobs.Get(c.Request.Context(), folder+"/"+name)
	if err != nil {
		if errors.Is(err, services.ErrBlobNotFound) {
			c.NotFound("file not found")
			return
		}
		c.InternalServerError("failed to load file")
		return
	}

	c.Response.Header().Set("Content-Type", blob.ContentType)
	c.Response.Header().Set("Content-Length", strconv.Itoa(len(blob.Data)))
	c.Response.Header().Set("Cache-Control", "public, max-age=86400")
	c.Response.Header().Set("X-Content-Type-Options", "nosniff")
	c.Response.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	c.Response.WriteHeader(200)
	_, _ = c.Response.Write(blob.Data)
	c.Abort()
}
