package upstream

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"
)

// HostLimiter keeps one token bucket per upstream host.
type HostLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	limit    rate.Limit
	burst    int
}

// NewHostLimiter returns a limiter allowing rps requests per second per host.
// A non-positive rps disables limiting.
func NewHostLimiter(rps float64, burst int) *HostLimiter {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}
	if burst < 1 {
		burst = 1
	}
	return &HostLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (h *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if parsed.Host == "" {
		return &url.Error{Op: "parse", URL: rawURL, Err: errors.New("missing host in URL")}
	}
	return h.forHost(parsed.Host).Wait(ctx)
}

func (h *HostLimiter) forHost(host string) *rate.Limiter {
	h.mu.RLock()
	limiter, ok := h.limiters[host]
	h.mu.RUnlock()
	if ok {
		return limiter
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if limiter, ok := h.limiters[host]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(h.limit, h.burst)
	h.limiters[host] = limiter
	return limiter
}

// DefaultUserAgents is the browser identity pool used when none is configured.
var DefaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36 Edg/118.0.2088.76",
}

// UserAgentPool hands out identity strings round-robin. A pool of one is
// deterministic.
type UserAgentPool struct {
	agents []string
	next   atomic.Uint64
}

func NewUserAgentPool(agents []string) *UserAgentPool {
	var clean []string
	for _, a := range agents {
		if a != "" {
			clean = append(clean, a)
		}
	}
	if len(clean) == 0 {
		clean = DefaultUserAgents
	}
	return &UserAgentPool{agents: clean}
}

func (p *UserAgentPool) Next() string {
	n := p.next.Add(1) - 1
	return p.agents[n%uint64(len(p.agents))]
}

func (p *UserAgentPool) Len() int {
	return len(p.agents)
}
