package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaService_SaveHeroImageProbesDimensions(t *testing.T) {
	dir := t.TempDir()
	svc := NewMediaService(dir, "/static/uploads/", nil)
	svc.now = func() time.Time { return time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC) }

	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	hero, err := svc.SaveHeroImage(&buf)
	require.NoError(t, err)
	assert.Equal(t, 64, hero.Width)
	assert.Equal(t, 32, hero.Height)
	assert.Equal(t, "png", hero.Format)
	assert.True(t, strings.HasPrefix(hero.URL, "/static/uploads/20250901-"))
	assert.True(t, strings.HasSuffix(hero.URL, ".png"))

	_, err = os.Stat(filepath.Join(dir, filepath.Base(hero.URL)))
	assert.NoError(t, err)
}

func TestMediaService_RejectsUnknownFormat(t *testing.T) {
	svc := NewMediaService(t.TempDir(), "/static/uploads", nil)

	_, err := svc.SaveHeroImage(strings.NewReader("not an image"))
	assert.ErrorIs(t, err, ErrImageUnsupported)
}
