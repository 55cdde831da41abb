package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocument = `{
	"@context": "https://www.w3.org/ns/did/v1",
	"id": "did:web:example.com",
	"verificationMethod": [
		{
			"id": "did:web:example.com#key-1",
			"type": "JsonWebKey2020",
			"controller": "did:web:example.com",
			"publicKeyJwk": {"kty": "OKP", "crv": "Ed25519", "x": "11qYAYKxCrfVS_7TyWQHOg7hcvPapiMlrwIaaPcHURo"}
		},
		{
			"id": "did:web:example.com#key-2",
			"type": "Ed25519VerificationKey2020",
			"controller": "did:web:example.com",
			"publicKeyMultibase": "z6MkhaXgBZDvotDkL5257faiztiGiC2QtKLGpbnnEGta2doK"
		}
	],
	"authentication": ["did:web:example.com#key-1"],
	"assertionMethod": [
		"#key-1",
		"did:web:example.com#missing",
		{
			"id": "did:web:example.com#key-3",
			"type": "JsonWebKey2020",
			"controller": "did:web:example.com",
			"publicKeyJwk": {"kty": "EC", "crv": "P-384", "x": "a", "y": "b"}
		}
	]
}`

func TestParseDIDDocument(t *testing.T) {
	doc, err := ParseDIDDocument([]byte(testDocument))
	require.NoError(t, err)

	assert.Equal(t, "did:web:example.com", doc.ID)
	assert.Equal(t, []string{DIDContextV1}, doc.Context)
	assert.Len(t, doc.VerificationMethod, 3)
	assert.Equal(t, []string{"did:web:example.com#key-1"}, doc.Authentication)
	assert.Equal(t, []string{"#key-1", "did:web:example.com#missing", "did:web:example.com#key-3"}, doc.AssertionMethod)
	assert.Equal(t, "did:web:example.com", doc.Raw["id"])
}

func TestParseDIDDocumentErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		errorMsg string
	}{
		{name: "not json", input: `{invalid}`, errorMsg: "failed to unmarshal DID document JSON"},
		{name: "not an object", input: `null`, errorMsg: "not a JSON object"},
		{name: "bad context", input: `{"id":"did:web:a","@context":42}`, errorMsg: "invalid @context type"},
		{name: "bad relationship", input: `{"id":"did:web:a","assertionMethod":[42]}`, errorMsg: "invalid assertionMethod entry at index 0"},
		{name: "bad id type", input: `{"id":7}`, errorMsg: "failed to unmarshal DID document JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseDIDDocument([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestContextList(t *testing.T) {
	doc, err := ParseDIDDocument([]byte(`{"id":"did:web:a","@context":["https://www.w3.org/ns/did/v1",{"@vocab":"x"},"https://w3id.org/security/suites/jws-2020/v1"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{DIDContextV1, "https://w3id.org/security/suites/jws-2020/v1"}, doc.Context)
	assert.Empty(t, doc.VerificationMethod)
}

func TestGetVerificationMethod(t *testing.T) {
	doc, err := ParseDIDDocument([]byte(testDocument))
	require.NoError(t, err)

	tests := []struct {
		name     string
		ref      string
		expected string
	}{
		{name: "full id", ref: "did:web:example.com#key-1", expected: "did:web:example.com#key-1"},
		{name: "fragment only", ref: "#key-2", expected: "did:web:example.com#key-2"},
		{name: "suffix", ref: "key-2", expected: "did:web:example.com#key-2"},
		{name: "other controller same fragment", ref: "did:web:other.com#key-1", expected: "did:web:example.com#key-1"},
		{name: "missing", ref: "#key-9", expected: ""},
		{name: "empty", ref: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := doc.GetVerificationMethod(tt.ref)
			if tt.expected == "" {
				assert.Nil(t, vm)
				return
			}
			require.NotNil(t, vm)
			assert.Equal(t, tt.expected, vm.ID)
		})
	}
}

func TestGetAssertionMethodsSkipsDangling(t *testing.T) {
	doc, err := ParseDIDDocument([]byte(testDocument))
	require.NoError(t, err)

	methods := doc.GetAssertionMethods()
	require.Len(t, methods, 2)
	assert.Equal(t, "did:web:example.com#key-1", methods[0].ID)
	assert.Equal(t, "did:web:example.com#key-3", methods[1].ID)

	auth := doc.GetAuthenticationMethods()
	require.Len(t, auth, 1)

	var nilDoc *DIDDocument
	assert.Nil(t, nilDoc.GetAssertionMethods())
	assert.Nil(t, nilDoc.GetVerificationMethod("#key-1"))
}

func TestKeyType(t *testing.T) {
	tests := []struct {
		name     string
		vm       *VerificationMethodEntry
		expected KeyType
	}{
		{name: "ed25519 jwk", vm: &VerificationMethodEntry{Type: JSONWebKey2020, PublicKeyJwk: &JWK{Kty: "OKP", Crv: "Ed25519"}}, expected: KeyTypeEd25519},
		{name: "p-256 jwk", vm: &VerificationMethodEntry{Type: JSONWebKey2020, PublicKeyJwk: &JWK{Kty: "EC", Crv: "P-256"}}, expected: KeyTypeP256},
		{name: "p-384 jwk", vm: &VerificationMethodEntry{Type: JSONWebKey2020, PublicKeyJwk: &JWK{Kty: "EC", Crv: "P-384"}}, expected: KeyTypeP384},
		{name: "secp256k1 jwk", vm: &VerificationMethodEntry{PublicKeyJwk: &JWK{Kty: "EC", Crv: "secp256k1"}}, expected: KeyTypeSecp256k1},
		{name: "ed25519 type", vm: &VerificationMethodEntry{Type: Ed25519VerificationKey2020}, expected: KeyTypeEd25519},
		{name: "ed25519 2018 type", vm: &VerificationMethodEntry{Type: Ed25519VerificationKey2018}, expected: KeyTypeEd25519},
		{name: "secp256k1 type", vm: &VerificationMethodEntry{Type: EcdsaSecp256k1VerificationKey2019}, expected: KeyTypeSecp256k1},
		{name: "unknown curve falls back to type", vm: &VerificationMethodEntry{Type: Ed25519VerificationKey2020, PublicKeyJwk: &JWK{Kty: "OKP", Crv: "X25519"}}, expected: KeyTypeEd25519},
		{name: "jwk type without key", vm: &VerificationMethodEntry{Type: JSONWebKey2020}, expected: KeyTypeUnknown},
		{name: "nil", vm: nil, expected: KeyTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.vm.KeyType())
		})
	}
}

func TestJWKToMap(t *testing.T) {
	jwk := &JWK{Kty: "OKP", Crv: "Ed25519", X: "abc"}
	assert.Equal(t, map[string]interface{}{"kty": "OKP", "crv": "Ed25519", "x": "abc"}, jwk.ToMap())

	var nilJWK *JWK
	assert.Nil(t, nilJWK.ToMap())
}
