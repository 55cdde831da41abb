package signature

import (
	"fmt"

	"github.com/pilacorp/go-dpp-verifier/common/model"
)

// Algorithm identifies a signature scheme.
type Algorithm string

const (
	Ed25519 Algorithm = "Ed25519"
	ES256   Algorithm = "ES256"
	ES384   Algorithm = "ES384"
	ES256K  Algorithm = "ES256K"
)

var algorithmNames = map[string]Algorithm{
	"Ed25519":   Ed25519,
	"EdDSA":     Ed25519,
	"ES256":     ES256,
	"P-256":     ES256,
	"ES384":     ES384,
	"P-384":     ES384,
	"ES256K":    ES256K,
	"secp256k1": ES256K,
}

// ParseAlgorithm maps an algorithm or curve name to an Algorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	if alg, ok := algorithmNames[name]; ok {
		return alg, nil
	}

	return "", fmt.Errorf("unsupported signature algorithm %q", name)
}

// AlgorithmForKeyType returns the algorithm that verifies signatures made
// with keys of type kt.
func AlgorithmForKeyType(kt model.KeyType) (Algorithm, bool) {
	switch kt {
	case model.KeyTypeEd25519:
		return Ed25519, true
	case model.KeyTypeP256:
		return ES256, true
	case model.KeyTypeP384:
		return ES384, true
	case model.KeyTypeSecp256k1:
		return ES256K, true
	}

	return "", false
}

// String returns the algorithm name.
func (a Algorithm) String() string {
	return string(a)
}
