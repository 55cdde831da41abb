// Package multicodec identifies public keys wrapped in a multicodec prefix,
// as carried by did:key identifiers and publicKeyMultibase values.
package multicodec

import (
	"crypto/elliptic"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	mc "github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-varint"

	"github.com/pilacorp/go-dpp-verifier/common/base58"
	"github.com/pilacorp/go-dpp-verifier/common/model"
)

// Code is a multicodec table entry.
type Code = mc.Code

// Supported public key codes.
const (
	Ed25519PubKey   = mc.Ed25519Pub   // 0xed, prefix 0xed01
	P256PubKey      = mc.P256Pub      // 0x1200, prefix 0x8024
	P384PubKey      = mc.P384Pub      // 0x1201, prefix 0x8124
	Secp256k1PubKey = mc.Secp256k1Pub // 0xe7, prefix 0xe701
)

const (
	ed25519KeySize        = 32
	p256CompressedSize    = 33
	p384CompressedSize    = 49
	secp256k1CompressSize = 33
)

var (
	// ErrUnsupportedCodec is returned for a prefix that names no supported key type.
	ErrUnsupportedCodec = errors.New("multicodec: unsupported key codec")
	// ErrInvalidKeyLength is returned when the key payload has the wrong size.
	ErrInvalidKeyLength = errors.New("multicodec: invalid key length")
	// ErrInvalidKey is returned when a compressed point is not on the curve.
	ErrInvalidKey = errors.New("multicodec: invalid public key")
)

// Key is a public key recovered from a multicodec-prefixed byte string.
type Key struct {
	Code    Code
	KeyType model.KeyType
	Raw     []byte
	JWK     *model.JWK
}

// ParseKey reads the multicodec prefix of keyBytes and converts the key that
// follows into JWK form. Compressed EC points are decompressed.
func ParseKey(keyBytes []byte) (*Key, error) {
	code, n, err := varint.FromUvarint(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedCodec, err)
	}

	payload := keyBytes[n:]

	switch Code(code) {
	case Ed25519PubKey:
		if len(payload) != ed25519KeySize {
			return nil, fmt.Errorf("%w: ed25519 key has %d bytes, want %d", ErrInvalidKeyLength, len(payload), ed25519KeySize)
		}
		return &Key{
			Code:    Ed25519PubKey,
			KeyType: model.KeyTypeEd25519,
			Raw:     payload,
			JWK:     &model.JWK{Kty: model.KtyOKP, Crv: model.CrvEd25519, X: encodeSegment(payload)},
		}, nil
	case P256PubKey:
		return parseNISTKey(P256PubKey, elliptic.P256(), p256CompressedSize, model.CrvP256, model.KeyTypeP256, payload)
	case P384PubKey:
		return parseNISTKey(P384PubKey, elliptic.P384(), p384CompressedSize, model.CrvP384, model.KeyTypeP384, payload)
	case Secp256k1PubKey:
		if len(payload) != secp256k1CompressSize {
			return nil, fmt.Errorf("%w: secp256k1 key has %d bytes, want %d", ErrInvalidKeyLength, len(payload), secp256k1CompressSize)
		}
		pub, err := btcec.ParsePubKey(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return &Key{
			Code:    Secp256k1PubKey,
			KeyType: model.KeyTypeSecp256k1,
			Raw:     payload,
			JWK: &model.JWK{
				Kty: model.KtyEC,
				Crv: model.CrvSecp256k1,
				X:   encodeCoordinate(pub.X(), 32),
				Y:   encodeCoordinate(pub.Y(), 32),
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: 0x%x", ErrUnsupportedCodec, code)
}

func parseNISTKey(code Code, curve elliptic.Curve, size int, crv string, kt model.KeyType, payload []byte) (*Key, error) {
	if len(payload) != size {
		return nil, fmt.Errorf("%w: %s key has %d bytes, want %d", ErrInvalidKeyLength, crv, len(payload), size)
	}

	x, y := elliptic.UnmarshalCompressed(curve, payload)
	if x == nil {
		return nil, fmt.Errorf("%w: %s point does not decompress", ErrInvalidKey, crv)
	}

	byteLen := (curve.Params().BitSize + 7) / 8

	return &Key{
		Code:    code,
		KeyType: kt,
		Raw:     payload,
		JWK: &model.JWK{
			Kty: model.KtyEC,
			Crv: crv,
			X:   encodeCoordinate(x, byteLen),
			Y:   encodeCoordinate(y, byteLen),
		},
	}, nil
}

// Parse converts a multicodec key belonging to did into the verification
// method that did:key resolution exposes for it.
func Parse(did string, keyBytes []byte) (*model.VerificationMethodEntry, error) {
	key, err := ParseKey(keyBytes)
	if err != nil {
		return nil, err
	}

	methodType := model.JSONWebKey2020
	switch key.KeyType {
	case model.KeyTypeEd25519:
		methodType = model.Ed25519VerificationKey2020
	case model.KeyTypeSecp256k1:
		methodType = model.EcdsaSecp256k1VerificationKey2019
	}

	return &model.VerificationMethodEntry{
		ID:           did + "#" + strings.TrimPrefix(did, "did:key:"),
		Type:         methodType,
		Controller:   did,
		PublicKeyJwk: key.JWK,
	}, nil
}

// Fingerprint encodes a raw key with its multicodec prefix as a multibase
// base58btc string, the method-specific id of a did:key.
func Fingerprint(code Code, key []byte) string {
	prefix := varint.ToUvarint(uint64(code))
	buf := make([]byte, 0, len(prefix)+len(key))
	buf = append(buf, prefix...)
	buf = append(buf, key...)

	return base58.EncodeMultibase(buf)
}

func encodeSegment(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

func encodeCoordinate(v *big.Int, size int) string {
	return encodeSegment(v.FillBytes(make([]byte, size)))
}
