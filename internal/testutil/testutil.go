package testutil

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// PNG returns an encoded w x h PNG.
func PNG(w, h int) []byte {
	var buf bytes.Buffer
	_ = png.Encode(&buf, solid(w, h))
	return buf.Bytes()
}

// JPEG returns an encoded w x h JPEG.
func JPEG(w, h int) []byte {
	var buf bytes.Buffer
	_ = jpeg.Encode(&buf, solid(w, h), nil)
	return buf.Bytes()
}

// GIF returns an encoded w x h GIF, the usual shape of a tracking pixel.
func GIF(w, h int) []byte {
	var buf bytes.Buffer
	_ = gif.Encode(&buf, solid(w, h), nil)
	return buf.Bytes()
}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 120, B: 40, A: 255})
		}
	}
	return img
}

// Route is one canned upstream response.
type Route struct {
	Status      int
	ContentType string
	Location    string
	Body        []byte
}

// Upstream is an httptest server serving canned routes and recording hits.
type Upstream struct {
	*httptest.Server

	mu      sync.Mutex
	routes  map[string]Route
	hits    map[string]int
	headers map[string]http.Header
}

// NewUpstream starts a server that answers 404 for unknown paths. It is
// closed when the test ends.
func NewUpstream(t testing.TB, routes map[string]Route) *Upstream {
	u := &Upstream{
		routes:  routes,
		hits:    make(map[string]int),
		headers: make(map[string]http.Header),
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Close)
	return u
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	u.mu.Lock()
	u.hits[r.URL.Path]++
	u.headers[r.URL.Path] = r.Header.Clone()
	route, ok := u.routes[r.URL.Path]
	u.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if route.ContentType != "" {
		w.Header().Set("Content-Type", route.ContentType)
	}
	if route.Location != "" {
		w.Header().Set("Location", route.Location)
	}
	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(route.Body)
}

// URL returns the absolute URL of path on this server.
func (u *Upstream) URL(path string) string {
	return u.Server.URL + path
}

func (u *Upstream) Hits(path string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.hits[path]
}

// LastHeader returns the headers of the last request to path.
func (u *Upstream) LastHeader(path string) http.Header {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.headers[path]
}

// NewRequest creates a new HTTP request for testing
func NewRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	var r *http.Request
	if bodyBytes != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	return r
}

// RecordResponse records the HTTP response for testing
type RecordResponse struct {
	Code   int
	Header http.Header
	Body   map[string]interface{}
	Raw    []byte
}

// RecordHTTPResponse records the HTTP response
func RecordHTTPResponse(w *httptest.ResponseRecorder) RecordResponse {
	result := w.Result()
	defer result.Body.Close()

	bodyBytes, _ := io.ReadAll(result.Body)

	var bodyMap map[string]interface{}
	if len(bodyBytes) > 0 && bytes.HasPrefix(bytes.TrimSpace(bodyBytes), []byte("{")) {
		_ = json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(&bodyMap)
	}

	return RecordResponse{
		Code:   result.StatusCode,
		Header: result.Header,
		Body:   bodyMap,
		Raw:    bodyBytes,
	}
}
