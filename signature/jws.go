package signature

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"

	"github.com/pilacorp/go-dpp-verifier/common/model"
)

// JWS "alg" header values and the algorithms they select.
var jwsAlgorithms = map[string]Algorithm{
	"EdDSA":  Ed25519,
	"ES256":  ES256,
	"ES384":  ES384,
	"ES256K": ES256K,
}

// Width in bytes of one of r or s in a JWS ECDSA signature.
var jwsCoordinateSize = map[Algorithm]int{
	ES256:  32,
	ES384:  48,
	ES256K: 32,
}

type jwsHeader struct {
	Alg string `json:"alg"`
	B64 *bool  `json:"b64,omitempty"`
}

// VerifyJWS verifies a compact JWS "header.payload.signature" against jwk and
// returns the decoded payload when it verifies. Detached and unencoded
// payloads are rejected, as are tokens outside their "exp"/"nbf" window.
func (v *Verifier) VerifyJWS(token string, jwk *model.JWK) (ok bool, payload map[string]interface{}) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Warnf("JWS verification panicked: %v", r)
			ok, payload = false, nil
		}
	}()

	if jwk == nil {
		return false, nil
	}

	payload, alg, sig, signingInput, err := parseJWS(token)
	if err != nil {
		v.logger.WithError(err).Debug("invalid JWS")
		return false, nil
	}

	if size, isECDSA := jwsCoordinateSize[alg]; isECDSA {
		if sig, err = rawToDER(sig, size); err != nil {
			v.logger.WithError(err).Debug("invalid JWS signature")
			return false, nil
		}
	}

	if !v.Verify(sig, signingInput, JWKKey(*jwk), alg) {
		return false, nil
	}

	if err := checkTimeClaims(payload, v.now(), v.leeway); err != nil {
		v.logger.WithError(err).Debug("JWS rejected")
		return false, nil
	}

	return true, payload
}

// checkTimeClaims rejects a payload whose "exp" is at or before now or whose
// "nbf" is after now, each widened by leeway. Absent claims pass; claims that
// are present but not numeric fail.
func checkTimeClaims(payload map[string]interface{}, now time.Time, leeway time.Duration) error {
	ts := float64(now.UnixNano()) / float64(time.Second)
	slack := leeway.Seconds()

	if raw, ok := payload["exp"]; ok {
		exp, isNum := raw.(float64)
		if !isNum {
			return errors.New("exp claim must be a number")
		}
		if exp <= ts-slack {
			return errors.New("token has expired")
		}
	}

	if raw, ok := payload["nbf"]; ok {
		nbf, isNum := raw.(float64)
		if !isNum {
			return errors.New("nbf claim must be a number")
		}
		if nbf > ts+slack {
			return errors.New("token is not yet valid")
		}
	}

	return nil
}

func parseJWS(token string) (map[string]interface{}, Algorithm, []byte, []byte, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, "", nil, nil, fmt.Errorf("expected 3 segments, got %d", len(parts))
	}
	if parts[1] == "" {
		return nil, "", nil, nil, errors.New("detached payload is not supported")
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("invalid header: %w", err)
	}

	var header jwsHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, "", nil, nil, fmt.Errorf("invalid header: %w", err)
	}
	if header.B64 != nil && !*header.B64 {
		return nil, "", nil, nil, errors.New("unencoded payload is not supported")
	}

	alg, ok := jwsAlgorithms[header.Alg]
	if !ok {
		return nil, "", nil, nil, fmt.Errorf("unsupported alg %q", header.Alg)
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("invalid payload: %w", err)
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil || payload == nil {
		return nil, "", nil, nil, errors.New("payload is not a JSON object")
	}

	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("invalid signature: %w", err)
	}

	return payload, alg, sig, []byte(parts[0] + "." + parts[1]), nil
}

// rawToDER converts a fixed-width r||s signature into ASN.1 DER.
func rawToDER(sig []byte, size int) ([]byte, error) {
	if len(sig) != 2*size {
		return nil, fmt.Errorf("ecdsa: invalid signature length %d, want %d", len(sig), 2*size)
	}

	r := new(big.Int).SetBytes(sig[:size])
	s := new(big.Int).SetBytes(sig[size:])

	var b cryptobyte.Builder
	b.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(r)
		b.AddASN1BigInt(s)
	})

	return b.Bytes()
}
