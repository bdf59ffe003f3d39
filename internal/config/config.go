package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"readingshelf/internal/imageproxy"
	"readingshelf/internal/platform/upstream"
	"readingshelf/internal/shelf"
)

const DefaultFeedURL = "https://www.goodreads.com/user/updates_rss/1"

type Config struct {
	Addr string `validate:"required"`

	FeedURL        string        `validate:"required,url"`
	FeedRevalidate time.Duration `validate:"gt=0"`

	UpstreamTimeout time.Duration `validate:"gt=0"`
	UpstreamRPS     float64       `validate:"gte=0"`
	UpstreamRetries int           `validate:"gte=0,lte=10"`

	ImageMaxBytes      int64         `validate:"gt=0"`
	ImageCacheSize     int           `validate:"gte=0"`
	ImageCacheMaxBytes int64         `validate:"gte=0"`
	ImageCacheTTL      time.Duration `validate:"gte=0"`

	DefaultCoverURL string            `validate:"required,url"`
	DefaultReferer  string            `validate:"omitempty,url"`
	AllowedHosts    []string          `validate:"min=1,dive,required"`
	UserAgents      []string          `validate:"dive,required"`
	Overrides       map[string]string `validate:"dive,keys,required,endkeys,url"`

	CORSOrigins    []string `validate:"dive,required"`
	RateLimitRPS   float64  `validate:"gte=0"`
	RateLimitBurst int      `validate:"gte=0"`
	EnableHSTS     bool

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// Covers is the optional YAML file named by COVERS_FILE.
type Covers struct {
	AllowedHosts []string          `yaml:"allowed_hosts"`
	Overrides    map[string]string `yaml:"overrides"`
	UserAgents   []string          `yaml:"user_agents"`
}

var validate = validator.New()

// Load reads .env files, the environment and the optional covers file.
// Values already present in the environment always win over .env files.
func Load() (Config, error) {
	loadEnvFiles()

	var errs []error
	cfg := Config{
		Addr:               getEnv("APP_ADDR", ":8080"),
		FeedURL:            getEnv("FEED_URL", DefaultFeedURL),
		FeedRevalidate:     getDuration("FEED_REVALIDATE", shelf.DefaultRevalidate, &errs),
		UpstreamTimeout:    getDuration("UPSTREAM_TIMEOUT", 10*time.Second, &errs),
		UpstreamRPS:        getFloat("UPSTREAM_RPS", 2, &errs),
		UpstreamRetries:    getInt("UPSTREAM_RETRIES", 2, &errs),
		ImageMaxBytes:      int64(getInt("IMAGE_MAX_BYTES", 5<<20, &errs)),
		ImageCacheSize:     getInt("IMAGE_CACHE_SIZE", imageproxy.DefaultCacheSize, &errs),
		ImageCacheMaxBytes: int64(getInt("IMAGE_CACHE_MAX_BYTES", imageproxy.DefaultCacheMaxBytes, &errs)),
		ImageCacheTTL:      getDuration("IMAGE_CACHE_TTL", imageproxy.DefaultCacheTTL, &errs),
		DefaultCoverURL:    getEnv("DEFAULT_COVER_URL", imageproxy.DefaultCoverURL),
		DefaultReferer:     getEnv("DEFAULT_REFERER", imageproxy.DefaultReferer),
		AllowedHosts:       getList("ALLOWED_HOSTS", ",", imageproxy.DefaultAllowedHosts),
		UserAgents:         getList("USER_AGENTS", "|", upstream.DefaultUserAgents),
		Overrides:          copyMap(imageproxy.DefaultOverrides),
		CORSOrigins:        getList("CORS_ORIGINS", ",", []string{"*"}),
		RateLimitRPS:       getFloat("RATE_LIMIT_RPS", 10, &errs),
		RateLimitBurst:     getInt("RATE_LIMIT_BURST", 20, &errs),
		EnableHSTS:         getBool("ENABLE_HSTS", false, &errs),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "text")),
	}

	if path := os.Getenv("COVERS_FILE"); path != "" {
		covers, err := LoadCovers(path)
		if err != nil {
			errs = append(errs, err)
		} else {
			cfg.applyCovers(covers)
		}
	}

	// Curated and default covers must always be fetchable.
	cfg.AllowedHosts = mergeHosts(cfg.AllowedHosts, imageproxy.HostsOf(cfg.DefaultCoverURL))
	cfg.AllowedHosts = mergeHosts(cfg.AllowedHosts, imageproxy.HostsOf(overrideURLs(cfg.Overrides)...))

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks struct tags and reports every failing field.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.Join(msgs...)
}

// LoadCovers parses a covers YAML file.
func LoadCovers(path string) (Covers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Covers{}, fmt.Errorf("read covers file: %w", err)
	}
	var c Covers
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Covers{}, fmt.Errorf("parse covers file %s: %w", path, err)
	}
	return c, nil
}

// applyCovers merges file entries on top of the current values. Hosts and
// overrides add to the defaults; user agents replace them.
func (c *Config) applyCovers(covers Covers) {
	c.AllowedHosts = mergeHosts(c.AllowedHosts, covers.AllowedHosts)
	for title, u := range covers.Overrides {
		c.Overrides[title] = u
	}
	if len(covers.UserAgents) > 0 {
		c.UserAgents = covers.UserAgents
	}
}

func loadEnvFiles() {
	// Do not override environment provided by the runtime (e.g. Docker).
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int, errs *[]error) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid integer %q", key, v))
		return def
	}
	return n
}

func getFloat(key string, def float64, errs *[]error) float64 {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid number %q", key, v))
		return def
	}
	return f
}

func getBool(key string, def bool, errs *[]error) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid boolean %q", key, v))
		return def
	}
	return b
}

func getDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: invalid duration %q", key, v))
		return def
	}
	return d
}

func getList(key, sep string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return append([]string(nil), def...)
	}
	var out []string
	for _, part := range strings.Split(v, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func mergeHosts(hosts, extra []string) []string {
	seen := make(map[string]bool, len(hosts)+len(extra))
	out := make([]string, 0, len(hosts)+len(extra))
	for _, h := range append(append([]string(nil), hosts...), extra...) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func overrideURLs(overrides map[string]string) []string {
	out := make([]string, 0, len(overrides))
	for _, u := range overrides {
		out = append(out, u)
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
