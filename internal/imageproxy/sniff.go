package imageproxy

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"mime"
	"net/http"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const svgContentType = "image/svg+xml"

var ErrNotAnImage = errors.New("upstream body is not an image")

// Image is a sniffed upstream image.
type Image struct {
	URL         string
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// Sniff validates data as an image and settles its content type. The
// declared header type is trusted only when the bytes agree with it.
func Sniff(data []byte, declared string) (Image, error) {
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty body", ErrNotAnImage)
	}
	declared = mediaType(declared)
	detected := mediaType(http.DetectContentType(data))

	if declared == svgContentType || looksLikeSVG(data) {
		if !looksLikeSVG(data) {
			return Image{}, fmt.Errorf("%w: declared svg without svg root", ErrNotAnImage)
		}
		return Image{Data: data, ContentType: svgContentType}, nil
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	switch {
	case err == nil:
		if cfg.Width <= 1 && cfg.Height <= 1 {
			return Image{}, fmt.Errorf("%w: %dx%d %s pixel", ErrNotAnImage, cfg.Width, cfg.Height, format)
		}
		contentType := "image/" + format
		if strings.HasPrefix(declared, "image/") && declared == detected {
			contentType = declared
		}
		return Image{Data: data, ContentType: contentType, Width: cfg.Width, Height: cfg.Height}, nil

	case errors.Is(err, image.ErrFormat):
		// Formats without a registered decoder, such as avif or ico.
		switch {
		case strings.HasPrefix(detected, "image/"):
			return Image{Data: data, ContentType: detected}, nil
		case strings.HasPrefix(declared, "image/") && detected == "application/octet-stream":
			return Image{Data: data, ContentType: declared}, nil
		}
		return Image{}, fmt.Errorf("%w: detected %s", ErrNotAnImage, detected)

	default:
		return Image{}, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}
}

func looksLikeSVG(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

func mediaType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}
