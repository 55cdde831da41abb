package did

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/pilacorp/go-dpp-verifier/did/config"
	"github.com/pilacorp/go-dpp-verifier/internal/logging"
	"github.com/pilacorp/go-dpp-verifier/internal/metrics"
)

const defaultConcurrency = 8

// Option configures the resolver.
type Option func(*options)

type options struct {
	cache            *Cache
	cacheSize        int
	timeout          time.Duration
	httpClient       *http.Client
	userAgent        string
	maxDocumentBytes int64
	validate         bool
	concurrency      int
	logger           *logrus.Entry
	metrics          *metrics.Metrics
}

func defaultOptions() options {
	cfg := config.Default()

	return options{
		cacheSize:        cfg.CacheSize,
		timeout:          cfg.Timeout,
		userAgent:        cfg.UserAgent,
		maxDocumentBytes: cfg.MaxDocumentBytes,
		validate:         cfg.ValidateDocuments,
		concurrency:      defaultConcurrency,
	}
}

// WithConfig applies a loaded configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cacheSize = cfg.CacheSize
		if cfg.Timeout > 0 {
			o.timeout = cfg.Timeout
		}
		if cfg.UserAgent != "" {
			o.userAgent = cfg.UserAgent
		}
		if cfg.MaxDocumentBytes > 0 {
			o.maxDocumentBytes = cfg.MaxDocumentBytes
		}
		o.validate = cfg.ValidateDocuments
	}
}

// WithCache makes the resolver use an existing cache, e.g. one shared by
// several resolvers. It takes precedence over WithCacheSize.
func WithCache(c *Cache) Option {
	return func(o *options) {
		if c != nil {
			o.cache = c
		}
	}
}

// WithCacheSize sets the capacity of the resolver's own cache.
func WithCacheSize(size int) Option {
	return func(o *options) {
		o.cacheSize = size
	}
}

// WithTimeout bounds every did:web fetch.
func WithTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.timeout = timeout
		}
	}
}

// WithHTTPClient overrides the HTTP client used for did:web requests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithMaxDocumentBytes limits the size of a fetched DID document.
func WithMaxDocumentBytes(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDocumentBytes = n
		}
	}
}

// WithDocumentValidation toggles JSON Schema validation of fetched documents.
func WithDocumentValidation(enabled bool) Option {
	return func(o *options) {
		o.validate = enabled
	}
}

// WithConcurrency bounds the parallelism of ResolveMany.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func (o *options) finalize() {
	if o.cache == nil {
		o.cache = NewCache(o.cacheSize)
	}
	if o.httpClient == nil {
		o.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if o.logger == nil {
		o.logger = logging.Component("did-resolver")
	}
}
