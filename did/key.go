package did

import (
	"fmt"

	"github.com/pilacorp/go-dpp-verifier/common/base58"
	"github.com/pilacorp/go-dpp-verifier/common/model"
	"github.com/pilacorp/go-dpp-verifier/common/multicodec"
)

// resolveKey expands a did:key into its single-key DID Document. No I/O.
func resolveKey(did, methodID string) (*model.DIDDocument, error) {
	if methodID[0] != base58.MultibasePrefix {
		return nil, fmt.Errorf("%w %q for did:key", ErrUnsupportedEncoding, methodID[0])
	}

	keyBytes, err := base58.Decode(methodID[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDID, err)
	}

	vm, err := multicodec.Parse(did, keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}

	return &model.DIDDocument{
		ID:                 did,
		Context:            []string{model.DIDContextV1},
		VerificationMethod: []model.VerificationMethodEntry{*vm},
		Authentication:     []string{vm.ID},
		AssertionMethod:    []string{vm.ID},
		Raw: map[string]interface{}{
			"@context": []interface{}{model.DIDContextV1},
			"id":       did,
			"verificationMethod": []interface{}{
				map[string]interface{}{
					"id":           vm.ID,
					"type":         vm.Type,
					"controller":   vm.Controller,
					"publicKeyJwk": vm.PublicKeyJwk.ToMap(),
				},
			},
			"authentication":  []interface{}{vm.ID},
			"assertionMethod": []interface{}{vm.ID},
		},
	}, nil
}
