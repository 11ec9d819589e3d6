package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gronit/club-portal/backend-club/internal/dto"
	"github.com/gronit/club-portal/backend-club/internal/service"
	"github.com/gronit/club-portal/pkg/media"
	"github.com/gronit/club-portal/pkg/middleware"
	"github.com/gronit/club-portal/pkg/response"
)

const (
	// imageField is the multipart field carrying the uploaded image
	imageField = "image"
	// DefaultMaxUploadBytes caps a single uploaded image
	DefaultMaxUploadBytes int64 = 10 << 20
	// formOverheadBytes is allowed on top of the image for the text fields
	formOverheadBytes int64 = 1 << 20
)

var (
	maxUploadBytes   = DefaultMaxUploadBytes
	errImageTooLarge = errors.New("image is too large")
	errBodyTooLarge  = errors.New("request body is too large")
)

// SetMaxUploadBytes changes the image size limit. Non-positive values are ignored.
func SetMaxUploadBytes(n int64) {
	if n > 0 {
		maxUploadBytes = n
	}
}

// limitBody caps the request body before multipart parsing
func limitBody(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes+formOverheadBytes)
}

// bindForm caps the body and binds the multipart form into obj. On failure
// it writes the response and returns false.
func bindForm(c *gin.Context, obj any) bool {
	limitBody(c)
	err := c.ShouldBind(obj)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respondError(c, errBodyTooLarge, "")
		return false
	}
	c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
	return false
}

// readImage reads the optional image field. It returns (nil, nil) when the
// request carries no image.
func readImage(c *gin.Context) (*dto.ImageUpload, error) {
	header, err := c.FormFile(imageField)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if header.Size > maxUploadBytes {
		return nil, errImageTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxUploadBytes {
		return nil, errImageTooLarge
	}

	mimeType, err := media.DetectImage(data)
	if err != nil {
		return nil, service.ErrInvalidImage
	}

	return &dto.ImageUpload{Data: data, Filename: header.Filename, MimeType: mimeType}, nil
}

// auditImage records the uploaded file on the audit entry; the audit
// middleware never reads multipart bodies itself.
func auditImage(c *gin.Context, image *dto.ImageUpload) {
	if image == nil {
		return
	}
	middleware.SetAuditMetadata(c, map[string]any{
		"image_filename": image.Filename,
		"image_mime":     image.MimeType,
		"image_bytes":    len(image.Data),
	})
}
