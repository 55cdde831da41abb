package did

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-dpp-verifier/common/base58"
	"github.com/pilacorp/go-dpp-verifier/common/model"
	"github.com/pilacorp/go-dpp-verifier/common/multicodec"
)

func TestWebDocumentURL(t *testing.T) {
	tests := []struct {
		did     string
		want    string
		wantErr error
	}{
		{did: "did:web:example.com", want: "https://example.com/.well-known/did.json"},
		{did: "did:web:example.com%3A8443", want: "https://example.com:8443/.well-known/did.json"},
		{did: "did:web:example.com:user:alice", want: "https://example.com/user/alice/did.json"},
		{did: "did:web:example.com%3A3000:issuers:acme", want: "https://example.com:3000/issuers/acme/did.json"},
		{did: "did:web:example.com::alice", wantErr: ErrInvalidDID},
		{did: "did:web:example.com%2Fevil", wantErr: ErrInvalidDID},
		{did: "did:web:user%40example.com", wantErr: ErrInvalidDID},
		{did: "did:key:z6Mk", wantErr: ErrUnsupportedMethod},
		{did: "web:example.com", wantErr: ErrInvalidDID},
	}

	for _, tt := range tests {
		t.Run(tt.did, func(t *testing.T) {
			got, err := WebDocumentURL(tt.did)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// newWebServer serves body at path and returns the did:web for the server
// together with a resolver that trusts its certificate.
func newWebServer(t *testing.T, path string, handler http.HandlerFunc, opts ...Option) (string, *Resolver) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(path, handler)
	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)

	did := "did:web:" + strings.ReplaceAll(u.Host, ":", "%3A")
	if path != defaultPath {
		segments := strings.TrimSuffix(strings.TrimPrefix(path, "/"), documentPath)
		did += ":" + strings.ReplaceAll(segments, "/", ":")
	}

	opts = append([]Option{WithHTTPClient(srv.Client())}, opts...)

	return did, NewResolver(opts...)
}

func webDocument(did string, pub ed25519.PublicKey) string {
	return fmt.Sprintf(`{
		"@context": ["https://www.w3.org/ns/did/v1", {"@vocab": "https://example.com/#"}],
		"id": %q,
		"verificationMethod": [{
			"id": "%s#key-1",
			"type": "Ed25519VerificationKey2020",
			"controller": %q,
			"publicKeyMultibase": %q
		}],
		"assertionMethod": ["%s#key-1"]
	}`, did, did, did, multicodec.Fingerprint(multicodec.Ed25519PubKey, pub), did)
}

func TestResolveWeb(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var (
		did      string
		accept   atomic.Value
		requests atomic.Int32
	)
	did, r := newWebServer(t, defaultPath, func(w http.ResponseWriter, req *http.Request) {
		requests.Add(1)
		accept.Store(req.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(webDocument(did, pub)))
	})

	doc, err := r.Resolve(did)
	require.NoError(t, err)
	require.NotNil(t, doc)

	assert.Equal(t, "application/json", accept.Load())
	assert.Equal(t, did, doc.ID)
	assert.Equal(t, []string{model.DIDContextV1}, doc.Context)

	vm := doc.GetVerificationMethod("#key-1")
	require.NotNil(t, vm)
	require.NotNil(t, vm.PublicKeyJwk, "multibase key is converted to a JWK")
	x, err := base64.RawURLEncoding.DecodeString(vm.PublicKeyJwk.X)
	require.NoError(t, err)
	assert.Equal(t, []byte(pub), x)

	again, err := r.Resolve(did)
	require.NoError(t, err)
	assert.Same(t, doc, again)
	assert.EqualValues(t, 1, requests.Load(), "second resolution is served from cache")
}

func TestResolveWebPathBased(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var did string
	did, r := newWebServer(t, "/issuers/acme/did.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(webDocument(did, pub)))
	})
	assert.True(t, strings.HasSuffix(did, ":issuers:acme"))

	doc, err := r.Resolve(did)
	require.NoError(t, err)
	assert.Len(t, doc.AssertionMethod, 1)
}

func TestResolveWebBase58Key(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var did string
	did, r := newWebServer(t, defaultPath, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"id": %q, "verificationMethod": [{"id": "%s#k", "type": "Ed25519VerificationKey2018", "controller": %q, "publicKeyBase58": %q}]}`,
			did, did, did, base58.Encode(pub))
	})

	doc, err := r.Resolve(did)
	require.NoError(t, err)

	vm := doc.GetVerificationMethod(did + "#k")
	require.NotNil(t, vm)
	require.NotNil(t, vm.PublicKeyJwk)
	assert.Equal(t, model.KeyTypeEd25519, vm.KeyType())
}

func TestResolveWebFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		opts    []Option
		wantErr error
	}{
		{
			name:    "not found",
			handler: http.NotFound,
			wantErr: ErrNotFound,
		},
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			wantErr: ErrUpstream,
		},
		{
			name:    "malformed json",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"id": `)) },
			wantErr: ErrDecode,
		},
		{
			name:    "schema violation",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"id": 42}`)) },
			wantErr: ErrDecode,
		},
		{
			name: "document too large",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"id": "did:web:x", "pad": "` + strings.Repeat("a", 256) + `"}`))
			},
			opts:    []Option{WithMaxDocumentBytes(64)},
			wantErr: ErrDecode,
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, req *http.Request) {
				select {
				case <-req.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			opts:    []Option{WithTimeout(50 * time.Millisecond)},
			wantErr: ErrUpstream,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			did, r := newWebServer(t, defaultPath, tt.handler, tt.opts...)

			doc, err := r.Resolve(did)
			assert.Nil(t, doc)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, r.Cache().Len(), "failures are not cached")
		})
	}
}

func TestResolveWebSparseDocument(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	var did string
	did, r := newWebServer(t, defaultPath, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"verificationMethod": [{"controller": %q, "publicKeyJwk": {"crv": "Ed25519", "x": %q}}, {"id": "%s#k"}]}`,
			did, base64.RawURLEncoding.EncodeToString(pub), did)
	})

	doc, err := r.Resolve(did)
	require.NoError(t, err)
	assert.Empty(t, doc.ID)
	require.Len(t, doc.VerificationMethod, 2)
	assert.Empty(t, doc.VerificationMethod[0].ID)
	assert.Empty(t, doc.VerificationMethod[0].Type)
	assert.NotNil(t, doc.GetVerificationMethod(did+"#k"))
}

func TestResolveWebWithoutValidation(t *testing.T) {
	var did string
	did, r := newWebServer(t, defaultPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "` + did + `", "verificationMethod": [{"id": "#k"}]}`))
	}, WithDocumentValidation(false))

	doc, err := r.Resolve(did)
	require.NoError(t, err)
	assert.Len(t, doc.VerificationMethod, 1)
}
