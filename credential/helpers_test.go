package credential

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-dpp-verifier/common/base58"
	"github.com/pilacorp/go-dpp-verifier/common/model"
	"github.com/pilacorp/go-dpp-verifier/common/multicodec"
)

// fakeResolver serves fixed documents and counts lookups.
type fakeResolver struct {
	mu    sync.Mutex
	docs  map[string]*model.DIDDocument
	calls atomic.Int32
}

func newFakeResolver(docs ...*model.DIDDocument) *fakeResolver {
	r := &fakeResolver{docs: map[string]*model.DIDDocument{}}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *fakeResolver) ResolveContext(_ context.Context, did string) (*model.DIDDocument, error) {
	r.calls.Add(1)

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[did]
	if !ok {
		return nil, errors.New("not found")
	}
	return doc, nil
}

type ed25519Issuer struct {
	did  string
	vmID string
	priv ed25519.PrivateKey
}

func newEd25519Issuer(t *testing.T) ed25519Issuer {
	t.Helper()

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	fp := multicodec.Fingerprint(multicodec.Ed25519PubKey, pub)
	did := "did:key:" + fp

	return ed25519Issuer{did: did, vmID: did + "#" + fp, priv: priv}
}

func testCredential(issuer interface{}) map[string]interface{} {
	return map[string]interface{}{
		"@context":  []interface{}{"https://www.w3.org/ns/credentials/v2"},
		"type":      []interface{}{"VerifiableCredential", "DigitalProductPassport"},
		"issuer":    issuer,
		"validFrom": "2025-01-01T00:00:00Z",
		"credentialSubject": map[string]interface{}{
			"id":          "https://example.com/products/123",
			"productName": "Étagère <oak>",
			"weightKg":    12.5,
		},
	}
}

// clone round-trips v through JSON so tests work on the decoded form a
// caller would pass in.
func clone(t *testing.T, v map[string]interface{}) map[string]interface{} {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

// signDataIntegrity attaches an Ed25519Signature2020 proof computed with c.
func signDataIntegrity(t *testing.T, c Canonicalizer, cred map[string]interface{}, issuer ed25519Issuer) map[string]interface{} {
	t.Helper()

	cred = clone(t, cred)
	proof := map[string]interface{}{
		"type":               Ed25519Signature2020,
		"created":            "2025-01-01T00:00:00Z",
		"verificationMethod": issuer.vmID,
		"proofPurpose":       "assertionMethod",
	}

	v := &Verifier{canonicalizer: c}
	data, err := v.verifyData(cred, proof)
	require.NoError(t, err)

	proof["proofValue"] = base58.EncodeMultibase(ed25519.Sign(issuer.priv, data))

	cred["proof"] = clone(t, proof)
	return cred
}
