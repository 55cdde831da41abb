package signature

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	jose "github.com/go-jose/go-jose/v3"

	"github.com/pilacorp/go-dpp-verifier/common/model"
)

// PublicKey is either RawKey or JWKKey.
type PublicKey interface {
	isPublicKey()
}

// RawKey holds raw public key bytes: 32 bytes for Ed25519, a SEC1 point
// (compressed or uncompressed) for the EC curves.
type RawKey []byte

// JWKKey holds a public key in JSON Web Key form.
type JWKKey model.JWK

func (RawKey) isPublicKey() {}
func (JWKKey) isPublicKey() {}

var errKeyType = errors.New("public key does not match algorithm")

func ed25519Key(key PublicKey) (ed25519.PublicKey, error) {
	var pub ed25519.PublicKey

	switch k := key.(type) {
	case RawKey:
		pub = ed25519.PublicKey(k)
	case JWKKey:
		jwk := model.JWK(k)
		if jwk.KeyType() != model.KeyTypeEd25519 {
			return nil, errKeyType
		}
		jk, err := joseKey(jwk)
		if err != nil {
			return nil, err
		}
		var ok bool
		if pub, ok = jk.(ed25519.PublicKey); !ok {
			return nil, errKeyType
		}
	default:
		return nil, errKeyType
	}

	if len(pub) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("ed25519: invalid key length %d", len(pub))
	}

	return pub, nil
}

func ecdsaKey(key PublicKey, curve elliptic.Curve) (*ecdsa.PublicKey, error) {
	var pub *ecdsa.PublicKey

	switch k := key.(type) {
	case RawKey:
		p, err := ecdsaKeyFromPoint(k, curve)
		if err != nil {
			return nil, err
		}
		pub = p
	case JWKKey:
		jk, err := joseKey(model.JWK(k))
		if err != nil {
			return nil, err
		}
		var ok bool
		if pub, ok = jk.(*ecdsa.PublicKey); !ok {
			return nil, errKeyType
		}
	default:
		return nil, errKeyType
	}

	if pub.Curve.Params().Name != curve.Params().Name {
		return nil, fmt.Errorf("%w: key is on %s, want %s", errKeyType, pub.Curve.Params().Name, curve.Params().Name)
	}

	return pub, nil
}

// ecdsaKeyFromPoint parses a SEC1 encoded point on curve.
func ecdsaKeyFromPoint(point []byte, curve elliptic.Curve) (*ecdsa.PublicKey, error) {
	size := (curve.Params().BitSize + 7) / 8

	switch {
	case len(point) == 1+size && (point[0] == 0x02 || point[0] == 0x03):
		x, y := elliptic.UnmarshalCompressed(curve, point)
		if x == nil {
			return nil, errors.New("ecdsa: invalid compressed point")
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	case len(point) == 1+2*size && point[0] == 0x04:
		crv := curve.Params().Name
		jk, err := joseKey(model.JWK{
			Kty: model.KtyEC,
			Crv: crv,
			X:   base64.RawURLEncoding.EncodeToString(point[1 : 1+size]),
			Y:   base64.RawURLEncoding.EncodeToString(point[1+size:]),
		})
		if err != nil {
			return nil, err
		}
		pub, ok := jk.(*ecdsa.PublicKey)
		if !ok {
			return nil, errKeyType
		}
		return pub, nil
	}

	return nil, fmt.Errorf("ecdsa: invalid point length %d", len(point))
}

// joseKey converts a JWK into a crypto public key.
func joseKey(jwk model.JWK) (interface{}, error) {
	data, err := json.Marshal(jwk)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JWK: %w", err)
	}

	var jk jose.JSONWebKey
	if err := jk.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("invalid JWK: %w", err)
	}
	if !jk.Valid() || !jk.IsPublic() {
		return nil, errors.New("invalid JWK: not a valid public key")
	}

	return jk.Key, nil
}

// secp256k1Key parses a secp256k1 key. go-jose has no secp256k1 support, so
// JWKs are rebuilt into an uncompressed point.
func secp256k1Key(key PublicKey) (*secp256k1.PublicKey, error) {
	switch k := key.(type) {
	case RawKey:
		pub, err := secp256k1.ParsePubKey(k)
		if err != nil {
			return nil, fmt.Errorf("secp256k1: %w", err)
		}
		return pub, nil
	case JWKKey:
		if k.Kty != model.KtyEC || k.Crv != model.CrvSecp256k1 {
			return nil, errKeyType
		}
		x, err := base64.RawURLEncoding.DecodeString(k.X)
		if err != nil {
			return nil, fmt.Errorf("secp256k1: invalid x: %w", err)
		}
		y, err := base64.RawURLEncoding.DecodeString(k.Y)
		if err != nil {
			return nil, fmt.Errorf("secp256k1: invalid y: %w", err)
		}
		if len(x) != 32 || len(y) != 32 {
			return nil, errors.New("secp256k1: invalid coordinate length")
		}
		point := make([]byte, 0, 65)
		point = append(point, 0x04)
		point = append(point, x...)
		point = append(point, y...)
		pub, err := secp256k1.ParsePubKey(point)
		if err != nil {
			return nil, fmt.Errorf("secp256k1: %w", err)
		}
		return pub, nil
	}

	return nil, errKeyType
}
