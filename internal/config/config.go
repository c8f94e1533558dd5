// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...Option) initializer to build a Config with defaults.
// - Load layers a YAML file and PERFBOARD_* environment variables on top.
// - External errors are wrapped with this package's sentinel kinds.
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// UpstreamBaseURL is the dashboard backend API root, e.g. "http://host/api/".
	UpstreamBaseURL string `koanf:"upstream_base_url"`

	// UpstreamToken is a service bearer token used when a request carries none.
	UpstreamToken string `koanf:"upstream_token"`

	// UpstreamRole is the role granted to the service token.
	UpstreamRole string `koanf:"upstream_role"`

	// UpstreamTimeout bounds every backend request.
	UpstreamTimeout time.Duration `koanf:"upstream_timeout"`

	// PageSize is the page_size sent to paginated endpoints.
	PageSize int `koanf:"page_size"`

	// MaxPages caps how many pages one fetch may follow.
	MaxPages int `koanf:"max_pages"`

	// FetchConcurrency bounds parallel page requests.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// StrictISORollover makes the latest evaluation week honor 53-week years.
	StrictISORollover bool `koanf:"strict_iso_rollover"`

	// ReportRoles is a comma separated list of roles allowed to read reports.
	ReportRoles string `koanf:"report_roles"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsRefreshInterval sets how often runtime gauges are sampled.
	MetricsRefreshInterval time.Duration `koanf:"metrics_refresh_interval"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLatencyBuckets lists latency histogram bounds in milliseconds,
	// comma separated and increasing. Empty keeps the built-in buckets.
	MetricsLatencyBuckets string `koanf:"metrics_latency_buckets"`

	// MetricsLabels holds constant labels as comma separated key=value pairs.
	MetricsLabels string `koanf:"metrics_labels"`
}

// Option applies a configuration option to a Config.
type Option func(*Config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(c *Config) {
		if addr != "" {
			c.Addr = addr
		}
	}
}

// WithUpstream sets the backend root and service token.
func WithUpstream(baseURL, token string) Option {
	return func(c *Config) {
		if baseURL != "" {
			c.UpstreamBaseURL = baseURL
		}
		if token != "" {
			c.UpstreamToken = token
		}
	}
}

// WithUpstreamTimeout sets the per-request backend timeout.
func WithUpstreamTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.UpstreamTimeout = d
		}
	}
}

// New creates a Config with defaults and applies opts.
func New(opts ...Option) *Config {
	c := &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		UpstreamBaseURL:   "http://localhost:8000/api/",
		UpstreamRole:      "admin",
		UpstreamTimeout:   10 * time.Second,
		PageSize:          50,
		MaxPages:          200,
		FetchConcurrency:  4,
		StrictISORollover: false,
		ReportRoles:       "admin,manager",
		ShutdownTimeout:   10 * time.Second,

		MetricsEnabled:         true,
		MetricsRefreshInterval: 15 * time.Second,
		MetricsNamespace:       "perfboard",
		MetricsSubsystem:       "reports",
	}
	c.Apply(opts...)
	return c
}

// Apply applies opts in order.
func (c *Config) Apply(opts ...Option) {
	for _, opt := range opts {
		opt(c)
	}
}

// Roles returns ReportRoles split and lowercased.
func (c *Config) Roles() []string {
	var out []string
	for _, r := range strings.Split(c.ReportRoles, ",") {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// LatencyBuckets parses MetricsLatencyBuckets. It returns nil when unset.
func (c *Config) LatencyBuckets() ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(c.MetricsLatencyBuckets, ",") {
		if part = strings.TrimSpace(part); part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("%w: metrics_latency_buckets entry %q", ErrInvalidConfig, part)
		}
		if n := len(out); n > 0 && v <= out[n-1] {
			return nil, fmt.Errorf("%w: metrics_latency_buckets must increase", ErrInvalidConfig)
		}
		out = append(out, v)
	}
	return out, nil
}

// ConstLabels parses MetricsLabels. It returns nil when unset.
func (c *Config) ConstLabels() (map[string]string, error) {
	var out map[string]string
	for _, pair := range strings.Split(c.MetricsLabels, ",") {
		if pair = strings.TrimSpace(pair); pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)
		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("%w: metrics_labels pair %q", ErrInvalidConfig, pair)
		}
		if out == nil {
			out = make(map[string]string)
		}
		out[k] = v
	}
	return out, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.PageSize <= 0:
		return fmt.Errorf("%w: page_size must be positive", ErrInvalidConfig)
	case c.MaxPages <= 0:
		return fmt.Errorf("%w: max_pages must be positive", ErrInvalidConfig)
	case c.FetchConcurrency <= 0:
		return fmt.Errorf("%w: fetch_concurrency must be positive", ErrInvalidConfig)
	case c.UpstreamTimeout <= 0:
		return fmt.Errorf("%w: upstream_timeout must be positive", ErrInvalidConfig)
	case c.MetricsRefreshInterval <= 0:
		return fmt.Errorf("%w: metrics_refresh_interval must be positive", ErrInvalidConfig)
	case len(c.Roles()) == 0:
		return fmt.Errorf("%w: report_roles must name at least one role", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if _, err := c.LatencyBuckets(); err != nil {
		return err
	}
	if _, err := c.ConstLabels(); err != nil {
		return err
	}
	u, err := url.Parse(c.UpstreamBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: upstream_base_url %q must be an absolute http(s) URL", ErrInvalidConfig, c.UpstreamBaseURL)
	}
	return nil
}
