// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"codeberg.org/oliverandrich/chatroom-api/internal/auth"
	"codeberg.org/oliverandrich/chatroom-api/internal/models"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/media"
	"github.com/labstack/echo/v4"
)

// MediaHandlers serves the media upload endpoint.
type MediaHandlers struct {
	media *media.Service
}

// NewMedia creates the media handlers.
func NewMedia(svc *media.Service) *MediaHandlers {
	return &MediaHandlers{media: svc}
}

// Upload handles POST /media/upload. The multipart form carries a
// media_type field and the file itself.
func (h *MediaHandlers) Upload(c echo.Context) error {
	mediaType := models.MediaType(c.FormValue("media_type"))
	if !mediaType.Valid() {
		return fieldError(c, "media_type", "The media type must be one of avatar, image, video, audio or document")
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return fieldError(c, "file", "The file field is required")
	}
	if fh.Size > media.MaxUploadSize {
		return fieldError(c, "file", "The file may not be greater than 20480 kilobytes")
	}

	src, err := fh.Open()
	if err != nil {
		return serverError(c, err)
	}
	defer src.Close()

	user := auth.GetUser(c.Request().Context())
	filePath, fileURL, err := h.media.Store(mediaType, user.Name, filepath.Ext(fh.Filename), src)
	switch {
	case errors.Is(err, media.ErrUnsupportedExtension):
		return fieldError(c, "file", "The file must be a file of type: jpeg, jpg, png, gif, svg, wav, mp4, mp3")
	case err != nil:
		return serverError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"data": map[string]string{
			"file_path": filePath,
			"file_url":  fileURL,
		},
	})
}
