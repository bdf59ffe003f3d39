package imageproxy

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"readingshelf/internal/httpx"
)

// Path cleaning by the mux collapses "https://" to "https:/".
var collapsedScheme = regexp.MustCompile(`^(?i)(https?):/+`)

type HTTPHandler struct {
	resolver Resolver
	logger   *slog.Logger
}

func NewHTTPHandler(resolver Resolver, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{resolver: resolver, logger: logger}
}

// Proxy handles GET /v1/image-proxy
func (h *HTTPHandler) Proxy(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	h.serve(w, r, RequestFromQuery(r.URL.Query()))
}

// BookCover handles GET /v1/book-cover/{path...}
func (h *HTTPHandler) BookCover(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")

	target := r.PathValue("path")
	if unescaped, err := url.PathUnescape(target); err == nil {
		target = unescaped
	}
	target = strings.TrimSpace(target)
	if target == "" {
		writeImage(w, r, PlaceholderResult("No image"))
		return
	}
	target = collapsedScheme.ReplaceAllString(target, "$1://")
	if !strings.Contains(target, "://") {
		target = "https://" + strings.TrimLeft(target, "/")
	}

	h.serve(w, r, Request{URL: target, Title: coverStem(target)})
}

func (h *HTTPHandler) serve(w http.ResponseWriter, r *http.Request, req Request) {
	res, err := h.resolver.Resolve(r.Context(), req)
	if err != nil {
		if errors.Is(err, ErrMissingURL) {
			httpx.JSONErrorWithRequest(r, w, http.StatusBadRequest, "MISSING_URL", "No image URL provided", []httpx.ErrorDetail{
				{Field: "url", Message: "is required"},
			})
			return
		}
		h.logger.Error("cover resolution failed", "error", err, "request_id", httpx.RequestIDFrom(r))
		writeImage(w, r, PlaceholderResult(req.Title))
		return
	}
	writeImage(w, r, res)
}

func writeImage(w http.ResponseWriter, r *http.Request, res Result) {
	header := w.Header()
	header.Set("Content-Type", res.ContentType)
	header.Set("Content-Length", strconv.Itoa(len(res.Data)))
	header.Set("Cache-Control", res.CacheControl)
	header.Set("Cross-Origin-Resource-Policy", "cross-origin")
	header.Set("X-Image-Source", string(res.Source))
	if res.ContentType == svgContentType {
		header.Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; sandbox")
	}
	w.WriteHeader(http.StatusOK)
	if r.Method != http.MethodHead {
		_, _ = w.Write(res.Data)
	}
}

// coverStem turns ".../11297._SY75_.jpg" into "11297".
func coverStem(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p = u.Path
	}
	base := path.Base(p)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	if base == "/" || base == "." {
		return ""
	}
	return base
}
