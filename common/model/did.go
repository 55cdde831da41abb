package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DIDContextV1 is the base JSON-LD context of a DID Document.
const DIDContextV1 = "https://www.w3.org/ns/did/v1"

// Verification method types understood by the verifier.
const (
	Ed25519VerificationKey2018        = "Ed25519VerificationKey2018"
	Ed25519VerificationKey2020        = "Ed25519VerificationKey2020"
	JSONWebKey2020                    = "JsonWebKey2020"
	EcdsaSecp256k1VerificationKey2019 = "EcdsaSecp256k1VerificationKey2019"
	Multikey                          = "Multikey"
)

// DIDDocument represents the structure of a resolved DID Document.
type DIDDocument struct {
	ID                 string                    `json:"id"`
	Context            []string                  `json:"@context"`
	VerificationMethod []VerificationMethodEntry `json:"verificationMethod"`
	Authentication     []string                  `json:"authentication"`
	AssertionMethod    []string                  `json:"assertionMethod"`

	// Raw is the document as it was received.
	Raw map[string]interface{} `json:"-"`
}

// VerificationMethodEntry represents a single verification method in a DID Document.
type VerificationMethodEntry struct {
	ID                 string `json:"id"`
	Type               string `json:"type"`
	Controller         string `json:"controller"`
	PublicKeyJwk       *JWK   `json:"publicKeyJwk,omitempty"`
	PublicKeyMultibase string `json:"publicKeyMultibase,omitempty"`
	PublicKeyBase58    string `json:"publicKeyBase58,omitempty"`
}

// KeyType derives the key family of the method. The JWK takes precedence
// over the declared method type.
func (vm *VerificationMethodEntry) KeyType() KeyType {
	if vm == nil {
		return KeyTypeUnknown
	}

	if vm.PublicKeyJwk != nil {
		if kt := vm.PublicKeyJwk.KeyType(); kt != KeyTypeUnknown {
			return kt
		}
	}

	switch vm.Type {
	case Ed25519VerificationKey2020, Ed25519VerificationKey2018:
		return KeyTypeEd25519
	case EcdsaSecp256k1VerificationKey2019:
		return KeyTypeSecp256k1
	}

	return KeyTypeUnknown
}

// Fragment returns the part of the method id after '#', or the whole id.
func (vm *VerificationMethodEntry) Fragment() string {
	if i := strings.LastIndexByte(vm.ID, '#'); i >= 0 {
		return vm.ID[i+1:]
	}

	return vm.ID
}

// GetVerificationMethod finds a verification method by reference. A bare
// "#fragment" is expanded against the document id; otherwise methods match on
// exact id or on a shared suffix.
func (d *DIDDocument) GetVerificationMethod(ref string) *VerificationMethodEntry {
	if d == nil || ref == "" {
		return nil
	}

	if strings.HasPrefix(ref, "#") {
		ref = d.ID + ref
	}

	for i := range d.VerificationMethod {
		vm := &d.VerificationMethod[i]
		if vm.ID == ref {
			return vm
		}
		if vm.ID == "" {
			continue
		}
		if strings.HasSuffix(vm.ID, ref) {
			return vm
		}
		if frag := vm.Fragment(); frag != "" && strings.HasSuffix(ref, frag) {
			return vm
		}
	}

	return nil
}

// GetAssertionMethods returns the verification methods referenced by
// assertionMethod. Dangling references are skipped.
func (d *DIDDocument) GetAssertionMethods() []*VerificationMethodEntry {
	if d == nil {
		return nil
	}

	methods := make([]*VerificationMethodEntry, 0, len(d.AssertionMethod))
	for _, ref := range d.AssertionMethod {
		if vm := d.GetVerificationMethod(ref); vm != nil {
			methods = append(methods, vm)
		}
	}

	return methods
}

// GetAuthenticationMethods returns the verification methods referenced by
// authentication. Dangling references are skipped.
func (d *DIDDocument) GetAuthenticationMethods() []*VerificationMethodEntry {
	if d == nil {
		return nil
	}

	methods := make([]*VerificationMethodEntry, 0, len(d.Authentication))
	for _, ref := range d.Authentication {
		if vm := d.GetVerificationMethod(ref); vm != nil {
			methods = append(methods, vm)
		}
	}

	return methods
}

type rawDIDDocument struct {
	ID                 string                    `json:"id"`
	Context            interface{}               `json:"@context"`
	VerificationMethod []VerificationMethodEntry `json:"verificationMethod"`
	Authentication     []json.RawMessage         `json:"authentication"`
	AssertionMethod    []json.RawMessage         `json:"assertionMethod"`
}

// ParseDIDDocument parses a DID Document from its JSON representation.
// A string @context is coerced into a one-element list. Relationship entries
// may be references or embedded verification methods; embedded methods are
// appended to VerificationMethod.
func ParseDIDDocument(data []byte) (*DIDDocument, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DID document JSON: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("DID document is not a JSON object")
	}

	var doc rawDIDDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal DID document JSON: %w", err)
	}

	context, err := parseContext(doc.Context)
	if err != nil {
		return nil, err
	}

	result := &DIDDocument{
		ID:                 doc.ID,
		Context:            context,
		VerificationMethod: doc.VerificationMethod,
		Raw:                raw,
	}
	if result.VerificationMethod == nil {
		result.VerificationMethod = []VerificationMethodEntry{}
	}

	result.Authentication, err = result.parseRelationship("authentication", doc.Authentication)
	if err != nil {
		return nil, err
	}

	result.AssertionMethod, err = result.parseRelationship("assertionMethod", doc.AssertionMethod)
	if err != nil {
		return nil, err
	}

	return result, nil
}

func parseContext(context interface{}) ([]string, error) {
	switch c := context.(type) {
	case nil:
		return []string{}, nil
	case string:
		return []string{c}, nil
	case []interface{}:
		result := make([]string, 0, len(c))
		for _, entry := range c {
			// Inline context objects carry no resolvable URL.
			if s, ok := entry.(string); ok {
				result = append(result, s)
			}
		}
		return result, nil
	default:
		return nil, fmt.Errorf("invalid @context type %T", context)
	}
}

func (d *DIDDocument) parseRelationship(name string, entries []json.RawMessage) ([]string, error) {
	refs := make([]string, 0, len(entries))
	for i, entry := range entries {
		var ref string
		if err := json.Unmarshal(entry, &ref); err == nil {
			refs = append(refs, ref)
			continue
		}

		var vm VerificationMethodEntry
		if err := json.Unmarshal(entry, &vm); err != nil {
			return nil, fmt.Errorf("invalid %s entry at index %d: %w", name, i, err)
		}
		if !d.hasVerificationMethod(vm.ID) {
			d.VerificationMethod = append(d.VerificationMethod, vm)
		}
		refs = append(refs, vm.ID)
	}

	return refs, nil
}

func (d *DIDDocument) hasVerificationMethod(id string) bool {
	for i := range d.VerificationMethod {
		if id != "" && d.VerificationMethod[i].ID == id {
			return true
		}
	}

	return false
}
