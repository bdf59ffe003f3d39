package shelf

import (
	"log/slog"
	"net/http"

	"readingshelf/internal/httpx"
)

const shelfCacheControl = "s-maxage=21600, stale-while-revalidate=86400"

type failureResponse struct {
	Shelf
	Error string `json:"error"`
}

type HTTPHandler struct {
	service Reader
	logger  *slog.Logger
}

func NewHTTPHandler(service Reader, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{service: service, logger: logger}
}

// Get handles GET /v1/reading-shelf
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Shelf(r.Context())
	if err != nil {
		h.logger.Error("reading shelf unavailable", "error", err, "request_id", httpx.RequestIDFrom(r))
		httpx.WriteJSON(w, http.StatusInternalServerError, failureResponse{
			Shelf: Empty(),
			Error: "Failed to load reading data",
		})
		return
	}

	if s.CurrentlyReading == nil {
		s.CurrentlyReading = []Entry{}
	}
	if s.RecentlyRead == nil {
		s.RecentlyRead = []Entry{}
	}
	w.Header().Set("Cache-Control", shelfCacheControl)
	httpx.WriteJSON(w, http.StatusOK, s)
}
