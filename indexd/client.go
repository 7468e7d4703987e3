package indexd

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds a single HTTP exchange with the indexer.
	DefaultTimeout = 60 * time.Second
	// DefaultPollInterval is the delay between approval status checks.
	DefaultPollInterval = 2 * time.Second

	userAgent = "sialo"
)

type options struct {
	timeout      time.Duration
	pollInterval time.Duration
	logger       *slog.Logger
	now          func() time.Time
	tlsConfig    *tls.Config
}

// Option configures a Builder or SDK.
type Option func(*options)

// WithTimeout sets the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
	}
}

// WithPollInterval sets how often WaitForApproval checks the status URL.
func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithClock overrides the time source used for request signing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithTLSConfig sets the TLS configuration for every indexer request,
// including the handshake. A tlsCfg passed to Register or Connect wins.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *options) {
		o.tlsConfig = cfg
	}
}

func buildOptions(opts []Option) options {
	o := options{
		timeout:      DefaultTimeout,
		pollInterval: DefaultPollInterval,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// TLSConfig returns the client TLS configuration used for indexer
// connections: the system root pool with standard server authentication.
func TLSConfig() *tls.Config {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if pool, err := x509.SystemCertPool(); err == nil {
		cfg.RootCAs = pool
	}
	return cfg
}

func normalizeURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https: %q", ErrInvalidURL, raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: missing host: %q", ErrInvalidURL, raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func newRestClient(baseURL string, tlsCfg *tls.Config, o options) *resty.Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(o.timeout).
		SetHeader("User-Agent", userAgent)

	if tlsCfg != nil {
		c.SetTLSClientConfig(tlsCfg)
	}

	c.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		r.SetHeader("X-Request-ID", uuid.NewString())
		return nil
	})

	logger := o.logger
	c.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("indexer request",
			"method", resp.Request.Method,
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
			"request_id", resp.Request.Header.Get("X-Request-ID"),
		)
		return nil
	})

	return c
}
