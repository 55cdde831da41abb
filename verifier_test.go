package dppverifier

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pilacorp/go-dpp-verifier/common/model"
	"github.com/pilacorp/go-dpp-verifier/did"
	"github.com/pilacorp/go-dpp-verifier/signature"
)

const knownDIDKey = "did:key:z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK"

func TestVerifyCredentialWithoutProof(t *testing.T) {
	result := VerifyCredential(map[string]interface{}{"issuer": "did:web:example.com"})

	assert.True(t, result.Valid)
	assert.Nil(t, result.SignatureValid)
	assert.False(t, result.Verified())
	assert.Contains(t, result.Warnings, "No proof found in credential")
}

func TestVerifyCredentialsKeepsOrder(t *testing.T) {
	results := VerifyCredentials(context.Background(), []map[string]interface{}{
		{"issuer": "did:web:a.example"},
		{"issuer": "did:web:b.example", "proof": map[string]interface{}{"verificationMethod": "x"}},
	})

	require.Len(t, results, 2)
	assert.True(t, results[0].Valid)
	assert.False(t, results[1].Valid)
	assert.Equal(t, "did:web:b.example", *results[1].IssuerDID)
}

func TestResolveDIDSharesCache(t *testing.T) {
	ClearDIDCache()

	doc, err := ResolveDID(knownDIDKey)
	require.NoError(t, err)
	assert.Equal(t, knownDIDKey, doc.ID)

	cached, ok := did.Default().Cache().Get(knownDIDKey)
	require.True(t, ok)
	assert.Same(t, doc, cached)

	ClearDIDCache()
	assert.Equal(t, 0, did.Default().Cache().Len())

	doc, err = ResolveDID("not-a-did")
	assert.Nil(t, doc)
	assert.ErrorIs(t, err, did.ErrInvalidDID)
}

func TestVerifySignature(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	msg := []byte("passport")

	assert.True(t, VerifySignature(ed25519.Sign(priv, msg), msg, signature.RawKey(pub), signature.Ed25519))
	assert.False(t, VerifySignature(ed25519.Sign(priv, msg), []byte("other"), signature.RawKey(pub), signature.Ed25519))
	assert.True(t, VerifySignature(ed25519.Sign(priv, msg), msg, signature.RawKey(pub), "EdDSA"))

	ok, payload := VerifyJWS("a.b", &model.JWK{Kty: model.KtyOKP, Crv: model.CrvEd25519})
	assert.False(t, ok)
	assert.Nil(t, payload)
}
