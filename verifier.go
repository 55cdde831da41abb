// Package dppverifier checks the cryptographic trust of Digital Product
// Passport credentials. It wires the DID resolver, signature verifier and
// credential verifier into process-wide defaults; use the sub-packages
// directly for custom configuration.
package dppverifier

import (
	"context"
	"sync"

	"github.com/pilacorp/go-dpp-verifier/common/model"
	"github.com/pilacorp/go-dpp-verifier/credential"
	"github.com/pilacorp/go-dpp-verifier/did"
	"github.com/pilacorp/go-dpp-verifier/signature"
)

var (
	defaultVerifier     *credential.Verifier
	defaultVerifierOnce sync.Once
)

// Default returns the process-wide credential verifier. It shares the DID
// cache of did.Default().
func Default() *credential.Verifier {
	defaultVerifierOnce.Do(func() {
		defaultVerifier = credential.NewVerifier(credential.WithResolver(did.Default()))
	})

	return defaultVerifier
}

// VerifyCredential verifies the proofs of a parsed credential.
func VerifyCredential(cred map[string]interface{}) *credential.Result {
	return Default().Verify(cred)
}

// VerifyCredentialContext verifies the proofs of a parsed credential; ctx
// bounds DID resolution.
func VerifyCredentialContext(ctx context.Context, cred map[string]interface{}) *credential.Result {
	return Default().VerifyContext(ctx, cred)
}

// VerifyCredentials verifies creds concurrently, keeping their order.
func VerifyCredentials(ctx context.Context, creds []map[string]interface{}) []*credential.Result {
	return Default().VerifyBatch(ctx, creds)
}

// ResolveDID resolves a did:key or did:web identifier.
func ResolveDID(id string) (*model.DIDDocument, error) {
	return did.ResolveDID(id)
}

// ClearDIDCache empties the process-wide DID document cache.
func ClearDIDCache() {
	did.Default().ClearCache()
}

// VerifySignature verifies a raw signature.
func VerifySignature(sig, msg []byte, key signature.PublicKey, alg signature.Algorithm) bool {
	return signature.VerifySignature(sig, msg, key, alg)
}

// VerifyJWS verifies a compact JWS and returns its payload.
func VerifyJWS(token string, jwk *model.JWK) (bool, map[string]interface{}) {
	return signature.VerifyJWS(token, jwk)
}
