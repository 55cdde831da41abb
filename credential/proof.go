package credential

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/pilacorp/go-dpp-verifier/common/base58"
	"github.com/pilacorp/go-dpp-verifier/common/model"
)

// Proof types.
const (
	Ed25519Signature2020        = "Ed25519Signature2020"
	Ed25519Signature2018        = "Ed25519Signature2018"
	DataIntegrityProof          = "DataIntegrityProof"
	EcdsaSecp256k1Signature2019 = "EcdsaSecp256k1Signature2019"
	JSONWebSignature2020        = "JsonWebSignature2020"
	JwtProof2020                = "JwtProof2020"
)

// Proof is the part of an embedded proof the verifier reads.
type Proof struct {
	Type               string
	VerificationMethod string
	ProofValue         string
	JWS                string
	JWT                string

	raw map[string]interface{}
}

// proofCheck verifies one proof against the resolved verification method.
type proofCheck func(v *Verifier, cred map[string]interface{}, p Proof, vm *model.VerificationMethodEntry) (bool, error)

var proofChecks = map[string]proofCheck{
	Ed25519Signature2020:        (*Verifier).checkDataIntegrity,
	Ed25519Signature2018:        (*Verifier).checkDataIntegrity,
	DataIntegrityProof:          (*Verifier).checkDataIntegrity,
	EcdsaSecp256k1Signature2019: (*Verifier).checkDataIntegrity,
	JSONWebSignature2020:        (*Verifier).checkJWS,
	JwtProof2020:                (*Verifier).checkJWT,
}

// proofs normalizes the proof field into a list. A nil result means the
// credential carries no proof.
func proofs(raw interface{}) []Proof {
	var entries []interface{}

	switch p := raw.(type) {
	case nil:
		return nil
	case string:
		if p == "" {
			return nil
		}
		entries = []interface{}{p}
	case map[string]interface{}:
		if len(p) == 0 {
			return nil
		}
		entries = []interface{}{p}
	case []interface{}:
		entries = p
	case []map[string]interface{}:
		for _, m := range p {
			entries = append(entries, m)
		}
	default:
		entries = []interface{}{p}
	}

	if len(entries) == 0 {
		return nil
	}

	out := make([]Proof, 0, len(entries))
	for _, e := range entries {
		out = append(out, parseProof(e))
	}

	return out
}

func parseProof(entry interface{}) Proof {
	m, _ := entry.(map[string]interface{})

	p := Proof{raw: m}
	p.Type, _ = m["type"].(string)
	p.ProofValue, _ = m["proofValue"].(string)
	p.JWS, _ = m["jws"].(string)
	p.JWT, _ = m["jwt"].(string)

	switch vm := m["verificationMethod"].(type) {
	case string:
		p.VerificationMethod = vm
	case map[string]interface{}:
		p.VerificationMethod, _ = vm["id"].(string)
	}

	return p
}

// DID returns the DID the verification method belongs to, or "" when the
// reference is not a DID URL.
func (p Proof) DID() string {
	if !strings.HasPrefix(p.VerificationMethod, "did:") {
		return ""
	}

	did, _, _ := strings.Cut(p.VerificationMethod, "#")
	if strings.Count(did, ":") < 2 {
		return ""
	}

	return did
}

// lookupMethod finds the verification method a proof references. A reference
// without a fragment selects the document's first assertion method.
func lookupMethod(doc *model.DIDDocument, ref string) *model.VerificationMethodEntry {
	if !strings.Contains(ref, "#") {
		if methods := doc.GetAssertionMethods(); len(methods) > 0 {
			return methods[0]
		}
	}

	return doc.GetVerificationMethod(ref)
}

func (v *Verifier) checkDataIntegrity(cred map[string]interface{}, p Proof, vm *model.VerificationMethodEntry) (bool, error) {
	sig, err := decodeProofValue(p.ProofValue)
	if err != nil {
		return false, err
	}

	data, err := v.verifyData(cred, p.raw)
	if err != nil {
		return false, err
	}

	return v.signatures.VerifyFromMethod(sig, data, vm), nil
}

func (v *Verifier) checkJWS(_ map[string]interface{}, p Proof, vm *model.VerificationMethodEntry) (bool, error) {
	if p.JWS == "" {
		return false, fmt.Errorf("proof has no jws")
	}

	ok, _ := v.signatures.VerifyJWS(p.JWS, vm.PublicKeyJwk)
	return ok, nil
}

func (v *Verifier) checkJWT(_ map[string]interface{}, p Proof, vm *model.VerificationMethodEntry) (bool, error) {
	if p.JWT == "" {
		return false, fmt.Errorf("proof has no jwt")
	}

	ok, _ := v.signatures.VerifyJWS(p.JWT, vm.PublicKeyJwk)
	return ok, nil
}

// verifyData builds canonical(proof options) || canonical(credential), where
// proof options are the proof without proofValue and the credential is taken
// without its proof.
func (v *Verifier) verifyData(cred, proof map[string]interface{}) ([]byte, error) {
	options := make(map[string]interface{}, len(proof))
	for k, val := range proof {
		if k != "proofValue" {
			options[k] = val
		}
	}

	document := make(map[string]interface{}, len(cred))
	for k, val := range cred {
		if k != "proof" {
			document[k] = val
		}
	}

	optionsData, err := v.canonicalizer.Canonicalize(options)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize proof options: %w", err)
	}

	documentData, err := v.canonicalizer.Canonicalize(document)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize credential: %w", err)
	}

	return append(optionsData, documentData...), nil
}

// decodeProofValue decodes a multibase base58btc ('z') proof value, or plain
// base64 in standard or URL-safe unpadded form.
func decodeProofValue(value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("proof has no proofValue")
	}

	if value[0] == base58.MultibasePrefix {
		sig, err := base58.Decode(value[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid proofValue: %w", err)
		}
		return sig, nil
	}

	if sig, err := base64.StdEncoding.DecodeString(value); err == nil {
		return sig, nil
	}

	sig, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("invalid proofValue: %w", err)
	}

	return sig, nil
}
