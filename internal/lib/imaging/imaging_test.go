package imaging

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestPNG(t *testing.T, dir string, w, h int) string {
	t.Helper()

	path := filepath.Join(dir, "test.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))

	return path
}

func TestAllowedFile(t *testing.T) {
	for _, name := range []string{"a.png", "b.JPG", "c.jpeg", "d.gif", "e.webp", "f.bmp", "g.tiff"} {
		assert.True(t, AllowedFile(name), name)
	}
	for _, name := range []string{"photo.exe", "a.pdf", "noext", "a.png.sh", "a.svg"} {
		assert.False(t, AllowedFile(name), name)
	}
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	path := writeTestPNG(t, dir, 640, 480)

	w, h, err := Probe(path)
	require.NoError(t, err)
	assert.Equal(t, 640, w)
	assert.Equal(t, 480, h)

	t.Run("not an image", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.png")
		require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))

		_, _, err := Probe(bad)
		assert.Error(t, err)
	})
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "photo.jpg", SanitizeFilename("photo.jpg"))
	assert.Equal(t, "my_photo.jpg", SanitizeFilename("my photo.jpg"))
	assert.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "cat.png", SanitizeFilename(`C:\Users\me\cat.png`))
	assert.Equal(t, "hidden.png", SanitizeFilename("..hidden.png"))
}
