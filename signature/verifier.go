// Package signature verifies Ed25519, ECDSA P-256/P-384 and secp256k1
// signatures over raw messages and compact JWS tokens. Verification is total:
// malformed input yields false, never an error or a panic.
package signature

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"errors"
	"fmt"
	"time"

	_ "crypto/sha256"
	_ "crypto/sha512"

	decredecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/sirupsen/logrus"

	"github.com/pilacorp/go-dpp-verifier/common/model"
	"github.com/pilacorp/go-dpp-verifier/internal/logging"
)

var errInvalidSignature = errors.New("invalid signature")

// verifyFunc checks sig over msg and reports why it did not verify.
type verifyFunc func(sig, msg []byte, key PublicKey) error

var verifiers = map[Algorithm]verifyFunc{
	Ed25519: verifyEd25519,
	ES256:   verifyECDSA(elliptic.P256(), crypto.SHA256),
	ES384:   verifyECDSA(elliptic.P384(), crypto.SHA384),
	ES256K:  verifySecp256k1,
}

// Info is a signature together with everything needed to check it.
type Info struct {
	Algorithm Algorithm
	Signature []byte
	Message   []byte
	KeyID     string
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithLogger sets the logger used to report rejected signatures.
func WithLogger(l *logrus.Entry) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// WithLeeway sets the clock skew tolerated when checking JWS "exp" and "nbf"
// claims.
func WithLeeway(d time.Duration) Option {
	return func(v *Verifier) {
		if d >= 0 {
			v.leeway = d
		}
	}
}

// WithClock sets the time source used for JWS time claims.
func WithClock(now func() time.Time) Option {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// Verifier checks signatures. It holds no key material and is safe for
// concurrent use.
type Verifier struct {
	logger *logrus.Entry
	leeway time.Duration
	now    func() time.Time
}

// NewVerifier creates a Verifier.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{logger: logging.Component("signature"), now: time.Now}
	for _, opt := range opts {
		opt(v)
	}

	return v
}

// Verify reports whether sig is a valid alg signature over msg by key. alg
// may also be a curve alias such as "P-256". ECDSA signatures are expected in
// ASN.1 DER form.
func (v *Verifier) Verify(sig, msg []byte, key PublicKey, alg Algorithm) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.WithField("algorithm", alg).Warnf("signature verification panicked: %v", r)
			ok = false
		}
	}()

	canonical, known := algorithmNames[string(alg)]
	if !known {
		v.logger.WithField("algorithm", alg).Debug("unsupported signature algorithm")
		return false
	}
	verify, found := verifiers[canonical]
	if !found {
		v.logger.WithField("algorithm", alg).Debug("unsupported signature algorithm")
		return false
	}
	if key == nil {
		return false
	}

	if err := verify(sig, msg, key); err != nil {
		v.logger.WithField("algorithm", alg).WithError(err).Debug("signature rejected")
		return false
	}

	return true
}

// VerifyFromMethod verifies sig with the key of a DID verification method.
// The algorithm follows from the method's key type. Methods without a JWK are
// rejected.
func (v *Verifier) VerifyFromMethod(sig, msg []byte, vm *model.VerificationMethodEntry) bool {
	if vm == nil || vm.PublicKeyJwk == nil {
		if vm != nil {
			v.logger.WithField("verification_method", vm.ID).Debug("verification method has no publicKeyJwk")
		}
		return false
	}

	alg, ok := AlgorithmForKeyType(vm.KeyType())
	if !ok {
		v.logger.WithField("verification_method", vm.ID).Debugf("unsupported key type %q", vm.Type)
		return false
	}

	return v.Verify(sig, msg, JWKKey(*vm.PublicKeyJwk), alg)
}

// VerifyInfo verifies a signature described by info.
func (v *Verifier) VerifyInfo(info Info, key PublicKey) bool {
	return v.Verify(info.Signature, info.Message, key, info.Algorithm)
}

func verifyEd25519(sig, msg []byte, key PublicKey) error {
	pub, err := ed25519Key(key)
	if err != nil {
		return err
	}
	if len(sig) != ed25519.SignatureSize {
		return fmt.Errorf("ed25519: invalid signature length %d", len(sig))
	}
	if !ed25519.Verify(pub, msg, sig) {
		return errInvalidSignature
	}

	return nil
}

func verifyECDSA(curve elliptic.Curve, hash crypto.Hash) verifyFunc {
	return func(sig, msg []byte, key PublicKey) error {
		pub, err := ecdsaKey(key, curve)
		if err != nil {
			return err
		}

		h := hash.New()
		h.Write(msg)
		if !ecdsa.VerifyASN1(pub, h.Sum(nil), sig) {
			return errInvalidSignature
		}

		return nil
	}
}

func verifySecp256k1(sig, msg []byte, key PublicKey) error {
	pub, err := secp256k1Key(key)
	if err != nil {
		return err
	}

	parsed, err := decredecdsa.ParseDERSignature(sig)
	if err != nil {
		return fmt.Errorf("secp256k1: %w", err)
	}

	h := crypto.SHA256.New()
	h.Write(msg)
	if !parsed.Verify(h.Sum(nil), pub) {
		return errInvalidSignature
	}

	return nil
}

var defaultVerifier = NewVerifier()

// VerifySignature verifies sig with a process-wide Verifier.
func VerifySignature(sig, msg []byte, key PublicKey, alg Algorithm) bool {
	return defaultVerifier.Verify(sig, msg, key, alg)
}

// VerifyJWS verifies a compact JWS with a process-wide Verifier.
func VerifyJWS(token string, jwk *model.JWK) (bool, map[string]interface{}) {
	return defaultVerifier.VerifyJWS(token, jwk)
}
