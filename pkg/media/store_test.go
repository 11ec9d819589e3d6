package media

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gronit/club-portal/pkg/config"
)

// 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
	0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4,
	0x89, 0x00, 0x00, 0x00, 0x0a, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae,
	0x42, 0x60, 0x82,
}

func TestDetectImage(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		mt, err := DetectImage(pngPixel)
		require.NoError(t, err)
		assert.Equal(t, "image/png", mt)
	})

	t.Run("gif", func(t *testing.T) {
		mt, err := DetectImage([]byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;"))
		require.NoError(t, err)
		assert.Equal(t, "image/gif", mt)
	})

	t.Run("text is rejected", func(t *testing.T) {
		_, err := DetectImage([]byte("just some notes about the event"))
		assert.True(t, errors.Is(err, ErrNotImage))
	})

	t.Run("pdf is rejected", func(t *testing.T) {
		_, err := DetectImage([]byte("%PDF-1.7\n"))
		assert.True(t, errors.Is(err, ErrNotImage))
	})
}

func TestNewCloudinaryStore_MissingCredentials(t *testing.T) {
	_, err := NewCloudinaryStore(config.CloudinaryConfig{CloudName: "gronit"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewCloudinaryStore(t *testing.T) {
	store, err := NewCloudinaryStore(config.CloudinaryConfig{
		CloudName: "gronit",
		APIKey:    "key",
		APISecret: "secret",
		Folder:    "gronit",
	})
	require.NoError(t, err)
	assert.Equal(t, "gronit", store.folder)
}
