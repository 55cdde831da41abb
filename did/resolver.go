// Package did resolves Decentralized Identifiers to DID Documents. did:key is
// expanded offline; did:web is fetched over HTTPS. Resolved documents are kept
// in a bounded, non-evicting cache.
package did

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/multiformats/go-multibase"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pilacorp/go-dpp-verifier/common/base58"
	"github.com/pilacorp/go-dpp-verifier/common/model"
	"github.com/pilacorp/go-dpp-verifier/common/multicodec"
	"github.com/pilacorp/go-dpp-verifier/did/config"
	"github.com/pilacorp/go-dpp-verifier/internal/logging"
)

// Resolution is the outcome of one asynchronous resolution.
type Resolution struct {
	DID      string
	Document *model.DIDDocument
	Err      error
}

// Resolver resolves did:key and did:web identifiers.
type Resolver struct {
	opts  options
	group singleflight.Group
}

// NewResolver creates a resolver with its own cache unless WithCache is given.
func NewResolver(opts ...Option) *Resolver {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o.finalize()

	return &Resolver{opts: o}
}

// Cache returns the document cache used by the resolver.
func (r *Resolver) Cache() *Cache {
	return r.opts.cache
}

// ClearCache empties the document cache.
func (r *Resolver) ClearCache() {
	r.opts.cache.Clear()
}

// Resolve resolves did, blocking for at most the configured timeout. A nil
// document is always accompanied by an error describing the failure.
func (r *Resolver) Resolve(did string) (*model.DIDDocument, error) {
	return r.ResolveContext(context.Background(), did)
}

// ResolveContext resolves did, honouring ctx and the configured timeout.
func (r *Resolver) ResolveContext(ctx context.Context, did string) (doc *model.DIDDocument, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			doc, err = nil, fmt.Errorf("%w: %v", ErrResolution, rec)
		}
		if err != nil {
			r.opts.logger.WithField("did", did).WithError(err).Warn("failed to resolve DID")
		}
	}()

	if cached, ok := r.opts.cache.Get(did); ok {
		r.opts.metrics.IncrementCacheHit()
		return cached, nil
	}

	method, methodID, err := splitDID(did)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	switch method {
	case "key":
		doc, err = resolveKey(did, methodID)
	case "web":
		doc, err = r.fetchWeb(ctx, did, methodID)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}

	r.opts.metrics.ObserveResolution(method, start, err == nil)
	if err != nil {
		return nil, err
	}

	return r.opts.cache.Add(did, doc), nil
}

// ResolveAsync starts resolving did and returns a channel that receives
// exactly one Resolution.
func (r *Resolver) ResolveAsync(ctx context.Context, did string) <-chan Resolution {
	ch := make(chan Resolution, 1)

	go func() {
		doc, err := r.ResolveContext(ctx, did)
		ch <- Resolution{DID: did, Document: doc, Err: err}
		close(ch)
	}()

	return ch
}

// ResolveMany resolves dids concurrently. Results keep the order of dids.
func (r *Resolver) ResolveMany(ctx context.Context, dids []string) []Resolution {
	results := make([]Resolution, len(dids))

	var g errgroup.Group
	g.SetLimit(r.opts.concurrency)

	for i, did := range dids {
		i, did := i, did
		g.Go(func() error {
			doc, err := r.ResolveContext(ctx, did)
			results[i] = Resolution{DID: did, Document: doc, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// fetchWeb collapses concurrent fetches of the same did:web into one request.
// The shared fetch is bounded by the resolver timeout only, so one caller
// giving up does not fail the others.
func (r *Resolver) fetchWeb(ctx context.Context, did, methodID string) (*model.DIDDocument, error) {
	fetchCtx := context.WithoutCancel(ctx)
	ch := r.group.DoChan(did, func() (v interface{}, err error) {
		defer func() {
			if rec := recover(); rec != nil {
				v, err = nil, fmt.Errorf("%w: %v", ErrResolution, rec)
			}
		}()
		return r.resolveWeb(fetchCtx, did, methodID)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.DIDDocument), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrUpstream, ctx.Err())
	}
}

// deriveKeys fills in PublicKeyJwk for methods that only carry
// publicKeyMultibase or publicKeyBase58 material.
func (r *Resolver) deriveKeys(doc *model.DIDDocument) {
	for i := range doc.VerificationMethod {
		vm := &doc.VerificationMethod[i]
		if vm.PublicKeyJwk != nil {
			continue
		}

		jwk, err := jwkFromKeyMaterial(vm)
		if err != nil {
			r.opts.logger.WithField("verification_method", vm.ID).WithError(err).Debug("could not derive JWK from key material")
			continue
		}
		vm.PublicKeyJwk = jwk
	}
}

func jwkFromKeyMaterial(vm *model.VerificationMethodEntry) (*model.JWK, error) {
	var raw []byte

	switch {
	case vm.PublicKeyMultibase != "":
		_, data, err := multibase.Decode(vm.PublicKeyMultibase)
		if err != nil {
			return nil, fmt.Errorf("invalid publicKeyMultibase: %w", err)
		}
		if key, err := multicodec.ParseKey(data); err == nil {
			return key.JWK, nil
		}
		raw = data
	case vm.PublicKeyBase58 != "":
		data, err := base58.Decode(vm.PublicKeyBase58)
		if err != nil {
			return nil, fmt.Errorf("invalid publicKeyBase58: %w", err)
		}
		raw = data
	default:
		return nil, fmt.Errorf("no key material")
	}

	// Ed25519 2018/2020 suites may carry the bare 32-byte key.
	if vm.KeyType() == model.KeyTypeEd25519 && len(raw) == 32 {
		return &model.JWK{Kty: model.KtyOKP, Crv: model.CrvEd25519, X: base64.RawURLEncoding.EncodeToString(raw)}, nil
	}

	return nil, fmt.Errorf("unsupported key material for type %s", vm.Type)
}

// splitDID returns the method and method-specific id of did.
func splitDID(did string) (string, string, error) {
	parts := strings.SplitN(did, ":", 3)
	if len(parts) != 3 || parts[0] != "did" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDID, did)
	}

	method, methodID := parts[1], parts[2]
	if method == "" || methodID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidDID, did)
	}
	for _, c := range method {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') {
			return "", "", fmt.Errorf("%w: invalid method name %q", ErrInvalidDID, method)
		}
	}

	return method, methodID, nil
}

var (
	defaultResolver     *Resolver
	defaultResolverOnce sync.Once
)

// Default returns the process-wide resolver, configured from the environment.
func Default() *Resolver {
	defaultResolverOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			logging.WithError(err).Warn("invalid resolver configuration, using defaults")
			cfg = config.Default()
		}
		if err := logging.SetLevelString(cfg.LogLevel); err != nil {
			logging.WithError(err).Warn("invalid log level")
		}
		defaultResolver = NewResolver(WithConfig(cfg))
	})

	return defaultResolver
}

// ResolveDID resolves did with the process-wide resolver.
func ResolveDID(did string) (*model.DIDDocument, error) {
	return Default().Resolve(did)
}
