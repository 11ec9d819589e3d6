package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gabriel-vasile/mimetype"

	"github.com/gronit/club-portal/pkg/config"
)

var (
	// ErrNotImage is returned when uploaded bytes are not a supported image
	ErrNotImage = errors.New("media: file is not a supported image")
	// ErrNotConfigured is returned when no image store credentials are set
	ErrNotConfigured = errors.New("media: image store not configured")
)

var allowedImageTypes = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/webp",
	"image/avif",
}

// Image is a stored image
type Image struct {
	URL      string
	PublicID string
	Width    int
	Height   int
	Format   string
}

// ImageStore uploads and deletes images
type ImageStore interface {
	Upload(ctx context.Context, data []byte, filename string) (*Image, error)
	Destroy(ctx context.Context, publicID string) error
}

// DetectImage sniffs data and returns its MIME type, or ErrNotImage
func DetectImage(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	for _, allowed := range allowedImageTypes {
		if mt.Is(allowed) {
			return allowed, nil
		}
	}
	return "", fmt.Errorf("%w: detected %s", ErrNotImage, mt.String())
}

// CloudinaryStore stores images in one Cloudinary folder
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryStore builds a store from credentials
func NewCloudinaryStore(cfg config.CloudinaryConfig) (*CloudinaryStore, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("media: init cloudinary: %w", err)
	}
	return &CloudinaryStore{cld: cld, folder: cfg.Folder}, nil
}

// Upload validates data as an image and uploads it into the configured folder
func (s *CloudinaryStore) Upload(ctx context.Context, data []byte, filename string) (*Image, error) {
	if _, err := DetectImage(data); err != nil {
		return nil, err
	}

	res, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder: s.folder,
	})
	if err != nil {
		return nil, fmt.Errorf("media: upload: %w", err)
	}
	if res.SecureURL == "" {
		return nil, fmt.Errorf("media: upload of %q returned no url", filename)
	}

	return &Image{
		URL:      res.SecureURL,
		PublicID: res.PublicID,
		Width:    res.Width,
		Height:   res.Height,
		Format:   res.Format,
	}, nil
}

// Destroy removes an image by public id. Missing images are not an error.
func (s *CloudinaryStore) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	res, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("media: destroy %s: %w", publicID, err)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("media: destroy %s: %s", publicID, res.Result)
	}
	return nil
}
