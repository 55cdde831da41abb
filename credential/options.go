package credential

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/pilacorp/go-dpp-verifier/common/model"
	"github.com/pilacorp/go-dpp-verifier/did"
	"github.com/pilacorp/go-dpp-verifier/internal/logging"
	"github.com/pilacorp/go-dpp-verifier/internal/metrics"
	"github.com/pilacorp/go-dpp-verifier/signature"
)

const defaultConcurrency = 4

// DIDResolver resolves a DID to its document. *did.Resolver implements it.
type DIDResolver interface {
	ResolveContext(ctx context.Context, did string) (*model.DIDDocument, error)
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithResolver sets the DID resolver. The default is did.Default().
func WithResolver(r DIDResolver) Option {
	return func(v *Verifier) {
		if r != nil {
			v.resolver = r
		}
	}
}

// WithSignatureVerifier sets the signature verifier.
func WithSignatureVerifier(s *signature.Verifier) Option {
	return func(v *Verifier) {
		if s != nil {
			v.signatures = s
		}
	}
}

// WithCanonicalizer sets how Data Integrity verify-data is serialized. The
// default is JSONCanonicalizer.
func WithCanonicalizer(c Canonicalizer) Option {
	return func(v *Verifier) {
		if c != nil {
			v.canonicalizer = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *logrus.Entry) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Verifier) {
		v.metrics = m
	}
}

// WithConcurrency bounds how many proofs, or credentials in VerifyBatch, are
// checked at once.
func WithConcurrency(n int) Option {
	return func(v *Verifier) {
		if n > 0 {
			v.concurrency = n
		}
	}
}

func (v *Verifier) applyDefaults() {
	if v.resolver == nil {
		v.resolver = did.Default()
	}
	if v.signatures == nil {
		v.signatures = signature.NewVerifier(signature.WithLogger(v.logger))
	}
	if v.canonicalizer == nil {
		v.canonicalizer = JSONCanonicalizer{}
	}
	if v.concurrency <= 0 {
		v.concurrency = defaultConcurrency
	}
}

func defaultLogger() *logrus.Entry {
	return logging.Component("credential-verifier")
}
