package handlers

import (
	"net/http"
	"path"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/connectsphere/backend/internal/apperrors"
	"github.com/connectsphere/backend/pkg/firebase"
	"github.com/connectsphere/backend/pkg/response"
)

const maxUploadSize = 5 << 20

var allowedImageExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

// UploadHandler handles media upload HTTP requests
type UploadHandler struct {
	uploader firebase.Uploader
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(uploader firebase.Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// RegisterUploadRoutes registers upload routes
func (h *UploadHandler) RegisterUploadRoutes(g *echo.Group) {
	g.POST("", h.Upload)
}

// Upload accepts a multipart image and returns its public URL.
func (h *UploadHandler) Upload(c echo.Context) error {
	if h.uploader == nil {
		return apperrors.Internal("media storage is not configured", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return apperrors.Validation("file is required")
	}
	if fileHeader.Size > maxUploadSize {
		return apperrors.Validation("file exceeds the 5MB limit")
	}

	ext := strings.ToLower(path.Ext(fileHeader.Filename))
	if !allowedImageExtensions[ext] {
		return apperrors.Validation("only jpeg, jpg, png and gif images are allowed")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return apperrors.Internal("failed to open uploaded file", err)
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	url, err := h.uploader.Upload(c.Request().Context(), fileHeader.Filename, contentType, file)
	if err != nil {
		return apperrors.Internal("failed to store uploaded file", err)
	}

	return response.Success(c, http.StatusOK, echo.Map{"url": url})
}
