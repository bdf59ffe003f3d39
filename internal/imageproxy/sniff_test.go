package imageproxy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"readingshelf/internal/testutil"
)

func TestSniff(t *testing.T) {
	t.Run("png", func(t *testing.T) {
		img, err := Sniff(testutil.PNG(30, 45), "image/png")
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, 30, img.Width)
		assert.Equal(t, 45, img.Height)
	})

	t.Run("jpeg with wrong header type", func(t *testing.T) {
		img, err := Sniff(testutil.JPEG(20, 30), "application/octet-stream")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.ContentType)
	})

	t.Run("jpeg with parameters on header", func(t *testing.T) {
		img, err := Sniff(testutil.JPEG(20, 30), "image/jpeg; charset=binary")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", img.ContentType)
	})

	t.Run("tracking pixel", func(t *testing.T) {
		_, err := Sniff(testutil.GIF(1, 1), "image/gif")
		assert.ErrorIs(t, err, ErrNotAnImage)
	})

	t.Run("html error page", func(t *testing.T) {
		_, err := Sniff([]byte("<!DOCTYPE html><html><body>Not found</body></html>"), "image/jpeg")
		assert.ErrorIs(t, err, ErrNotAnImage)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := Sniff(nil, "image/png")
		assert.ErrorIs(t, err, ErrNotAnImage)
	})

	t.Run("truncated png", func(t *testing.T) {
		data := testutil.PNG(10, 10)
		_, err := Sniff(data[:20], "image/png")
		assert.ErrorIs(t, err, ErrNotAnImage)
	})

	t.Run("svg", func(t *testing.T) {
		img, err := Sniff([]byte(`<?xml version="1.0"?><svg xmlns="http://www.w3.org/2000/svg"></svg>`), "text/xml")
		require.NoError(t, err)
		assert.Equal(t, "image/svg+xml", img.ContentType)
	})

	t.Run("declared svg without root", func(t *testing.T) {
		_, err := Sniff([]byte("plain text"), "image/svg+xml")
		assert.ErrorIs(t, err, ErrNotAnImage)
	})

	t.Run("undecodable format trusted from header", func(t *testing.T) {
		avif := append([]byte{0x00, 0x00, 0x00, 0x1c}, []byte("ftypavif\x00\x00\x00\x00avifmif1miaf")...)
		img, err := Sniff(avif, "image/avif")
		require.NoError(t, err)
		assert.Equal(t, "image/avif", img.ContentType)
	})
}
