package model

// KeyType is the key family of a verification method.
type KeyType string

const (
	KeyTypeUnknown   KeyType = ""
	KeyTypeEd25519   KeyType = "Ed25519"
	KeyTypeP256      KeyType = "P-256"
	KeyTypeP384      KeyType = "P-384"
	KeyTypeSecp256k1 KeyType = "secp256k1"
)

// JWK key types and curves.
const (
	KtyOKP = "OKP"
	KtyEC  = "EC"

	CrvEd25519   = "Ed25519"
	CrvP256      = "P-256"
	CrvP384      = "P-384"
	CrvSecp256k1 = "secp256k1"
)

// JWK represents a JSON Web Key structure
type JWK struct {
	Kty string `json:"kty"`           // Key type
	Crv string `json:"crv,omitempty"` // Curve
	X   string `json:"x,omitempty"`   // X coordinate
	Y   string `json:"y,omitempty"`   // Y coordinate
	Kid string `json:"kid,omitempty"`
	Alg string `json:"alg,omitempty"`
	Use string `json:"use,omitempty"`
}

// KeyType maps the kty/crv pair to a key family.
func (j *JWK) KeyType() KeyType {
	if j == nil {
		return KeyTypeUnknown
	}

	switch {
	case j.Kty == KtyOKP && j.Crv == CrvEd25519:
		return KeyTypeEd25519
	case j.Kty == KtyEC && j.Crv == CrvP256:
		return KeyTypeP256
	case j.Kty == KtyEC && j.Crv == CrvP384:
		return KeyTypeP384
	case j.Kty == KtyEC && j.Crv == CrvSecp256k1:
		return KeyTypeSecp256k1
	}

	return KeyTypeUnknown
}

// ToMap returns the JWK as a generic JSON object.
func (j *JWK) ToMap() map[string]interface{} {
	if j == nil {
		return nil
	}

	m := map[string]interface{}{"kty": j.Kty}
	for k, v := range map[string]string{"crv": j.Crv, "x": j.X, "y": j.Y, "kid": j.Kid, "alg": j.Alg, "use": j.Use} {
		if v != "" {
			m[k] = v
		}
	}

	return m
}
