package did

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const didDocumentSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"properties": {
		"id": {"type": "string"},
		"@context": {
			"anyOf": [
				{"type": "string"},
				{"type": "array", "items": {"type": ["string", "object"]}}
			]
		},
		"verificationMethod": {
			"type": "array",
			"items": {"$ref": "#/definitions/verificationMethod"}
		},
		"authentication": {"$ref": "#/definitions/relationship"},
		"assertionMethod": {"$ref": "#/definitions/relationship"}
	},
	"definitions": {
		"verificationMethod": {
			"type": "object",
			"properties": {
				"id": {"type": "string"},
				"type": {"type": "string"},
				"controller": {"type": "string"},
				"publicKeyJwk": {
					"type": "object",
					"properties": {
						"kty": {"type": "string"},
						"crv": {"type": "string"},
						"x": {"type": "string"},
						"y": {"type": "string"}
					}
				},
				"publicKeyMultibase": {"type": "string"},
				"publicKeyBase58": {"type": "string"}
			}
		},
		"relationship": {
			"type": "array",
			"items": {
				"anyOf": [
					{"type": "string"},
					{"$ref": "#/definitions/verificationMethod"}
				]
			}
		}
	}
}`

var loadSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(didDocumentSchema))
})

// validateDocument checks the types of the fields the resolver reads. Missing
// fields are allowed and parse to empty values.
func validateDocument(data []byte) error {
	schema, err := loadSchema()
	if err != nil {
		return fmt.Errorf("failed to load DID document schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to validate DID document: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("DID document does not match schema: %s", strings.Join(msgs, "; "))
	}

	return nil
}
