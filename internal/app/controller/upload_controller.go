package controller

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/savoryhq/savory-backend/config"
	"github.com/savoryhq/savory-backend/internal/errors"
	"github.com/savoryhq/savory-backend/internal/middleware"
	"github.com/savoryhq/savory-backend/internal/storage"
)

type UploadController struct {
	store storage.Storage
	cfg   *config.UploadConfig
}

func NewUploadController(store storage.Storage, cfg *config.UploadConfig) *UploadController {
	return &UploadController{store: store, cfg: cfg}
}

// UploadPhoto handles POST /api/v1/upload/photo. The photo is optional:
// a request without one succeeds with an empty URL. Anything that is
// not an image is rejected. Accepted photos are resized to a fixed
// width and stored under a generated name that keeps the original
// extension.
func (ctrl *UploadController) UploadPhoto(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	file, err := c.FormFile("photo")
	if err != nil {
		if err == http.ErrMissingFile {
			c.JSON(http.StatusOK, gin.H{"photo": ""})
			return
		}
		errors.BadRequest(c, errors.UploadFailed, "Could not read the uploaded file")
		return
	}

	if file.Size > ctrl.cfg.MaxSize {
		errors.BadRequest(c, errors.UploadFileTooLarge, "That file is too large")
		return
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		errors.BadRequest(c, errors.UploadInvalidFileType, "That filetype isn't allowed!")
		return
	}

	src, err := file.Open()
	if err != nil {
		errors.InternalError(c, "")
		return
	}
	defer src.Close()

	img, err := imaging.Decode(src)
	if err != nil {
		log.Warn("Failed to decode uploaded image", map[string]interface{}{
			"filename":     file.Filename,
			"content_type": contentType,
			"error":        err.Error(),
		})
		errors.BadRequest(c, errors.UploadInvalidFileType, "That filetype isn't allowed!")
		return
	}

	// Width is fixed, height follows the aspect ratio
	resized := imaging.Resize(img, ctrl.cfg.ResizeWidth, 0, imaging.Lanczos)

	ext := extensionFor(contentType)
	key := uuid.NewString() + ext

	format, err := imaging.FormatFromExtension(ext)
	if err != nil {
		format = imaging.JPEG
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, format); err != nil {
		log.Error("Failed to encode resized image", err)
		errors.InternalError(c, "")
		return
	}

	url, err := ctrl.store.Save(c.Request.Context(), key, contentType, &buf)
	if err != nil {
		log.Error("Failed to store uploaded photo", err, map[string]interface{}{
			"key": key,
		})
		errors.InternalError(c, "")
		return
	}

	log.Info("Photo uploaded", map[string]interface{}{
		"key":  key,
		"size": file.Size,
	})
	c.JSON(http.StatusOK, gin.H{"photo": url})
}

// extensionFor derives the file extension from the MIME subtype
func extensionFor(contentType string) string {
	parts := strings.SplitN(contentType, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return ".jpeg"
	}
	return "." + parts[1]
}
