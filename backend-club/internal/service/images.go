package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gronit/club-portal/backend-club/internal/dto"
	"github.com/gronit/club-portal/pkg/logger"
	"github.com/gronit/club-portal/pkg/media"
)

func uploadImage(ctx context.Context, store media.ImageStore, upload *dto.ImageUpload) (*media.Image, error) {
	if upload == nil || len(upload.Data) == 0 {
		return nil, ErrImageRequired
	}
	img, err := store.Upload(ctx, upload.Data, upload.Filename)
	if err != nil {
		if errors.Is(err, media.ErrNotImage) {
			return nil, ErrInvalidImage
		}
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return img, nil
}

// destroyImage removes a stored image. Failures leave an orphan in the
// image store and are only logged.
func destroyImage(ctx context.Context, store media.ImageStore, publicID string) {
	if publicID == "" {
		return
	}
	if err := store.Destroy(ctx, publicID); err != nil {
		logger.WarnCtx(ctx, "failed to destroy image",
			zap.String("public_id", publicID),
			zap.Error(err),
		)
	}
}
