// Package credential verifies the embedded proofs of a Verifiable Credential:
// it resolves the issuer's DID, finds the referenced verification method and
// checks the signature. Verification never fails with an error; problems are
// reported in the Result.
package credential

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pilacorp/go-dpp-verifier/internal/metrics"
	"github.com/pilacorp/go-dpp-verifier/signature"
)

// Messages reported in Result.Errors and Result.Warnings.
const (
	MsgNoProof              = "No proof found in credential"
	MsgNoDID                = "Could not extract DID from verification method"
	MsgUnresolvableDID      = "Could not resolve DID: %s"
	MsgUnsupportedProofType = "Unsupported proof type: %s"
	MsgSignatureFailed      = "Signature verification failed"
	msgVerificationPanicked = "Verification aborted: %v"
)

// Verifier checks credential proofs. It is safe for concurrent use.
type Verifier struct {
	resolver      DIDResolver
	signatures    *signature.Verifier
	canonicalizer Canonicalizer
	logger        *logrus.Entry
	metrics       *metrics.Metrics
	concurrency   int
}

// NewVerifier creates a Verifier. Without options it uses the process-wide
// DID resolver and JSON canonicalization.
func NewVerifier(opts ...Option) *Verifier {
	v := &Verifier{logger: defaultLogger()}
	for _, opt := range opts {
		opt(v)
	}
	v.applyDefaults()

	return v
}

// Verify verifies cred.
func (v *Verifier) Verify(cred map[string]interface{}) *Result {
	return v.VerifyContext(context.Background(), cred)
}

// VerifyContext verifies cred. ctx bounds DID resolution.
func (v *Verifier) VerifyContext(ctx context.Context, cred map[string]interface{}) (result *Result) {
	result = newResult()

	defer func() {
		if r := recover(); r != nil {
			v.logger.Warnf("credential verification panicked: %v", r)
			result.addError(fmt.Sprintf(msgVerificationPanicked, r))
		}
		v.metrics.IncrementVerification(outcome(result))
	}()

	if issuer := issuerDID(cred); issuer != "" {
		result.IssuerDID = &issuer
	}

	proofList := proofs(cred["proof"])
	if len(proofList) == 0 {
		result.addWarning(MsgNoProof)
		return result
	}

	outcomes := make([]proofOutcome, len(proofList))

	var g errgroup.Group
	g.SetLimit(v.concurrency)
	for i, p := range proofList {
		i, p := i, p
		g.Go(func() error {
			outcomes[i] = v.checkProof(ctx, cred, p)
			return nil
		})
	}
	_ = g.Wait()

	checked, verified := 0, 0
	for _, o := range outcomes {
		result.VerificationMethod = o.method
		for _, msg := range o.errors {
			result.addError(msg)
		}
		for _, msg := range o.warnings {
			result.addWarning(msg)
		}
		if o.checked {
			checked++
			if o.verified {
				verified++
			}
		}
	}

	sigValid := checked > 0 && verified == checked
	result.SignatureValid = &sigValid

	return result
}

// VerifyBatch verifies creds concurrently. Results keep the order of creds.
func (v *Verifier) VerifyBatch(ctx context.Context, creds []map[string]interface{}) []*Result {
	results := make([]*Result, len(creds))

	var g errgroup.Group
	g.SetLimit(v.concurrency)
	for i, cred := range creds {
		i, cred := i, cred
		g.Go(func() error {
			results[i] = v.VerifyContext(ctx, cred)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

type proofOutcome struct {
	method   string
	checked  bool
	verified bool
	errors   []string
	warnings []string
}

func (v *Verifier) checkProof(ctx context.Context, cred map[string]interface{}, p Proof) (out proofOutcome) {
	out.method = p.VerificationMethod

	defer func() {
		if r := recover(); r != nil {
			v.logger.WithField("verification_method", p.VerificationMethod).Warnf("proof verification panicked: %v", r)
			out.errors = append(out.errors, fmt.Sprintf(msgVerificationPanicked, r))
		}
	}()

	log := v.logger.WithField("verification_method", p.VerificationMethod).WithField("proof_type", p.Type)

	did := p.DID()
	if did == "" {
		out.errors = append(out.errors, MsgNoDID)
		return out
	}

	doc, err := v.resolver.ResolveContext(ctx, did)
	if err != nil || doc == nil {
		log.WithError(err).Debug("could not resolve DID")
		out.errors = append(out.errors, fmt.Sprintf(MsgUnresolvableDID, did))
		return out
	}

	vm := lookupMethod(doc, p.VerificationMethod)
	if vm == nil {
		log.Debug("verification method not found in DID document")
		out.errors = append(out.errors, fmt.Sprintf(MsgUnresolvableDID, did))
		return out
	}

	check, ok := proofChecks[p.Type]
	if !ok {
		out.warnings = append(out.warnings, fmt.Sprintf(MsgUnsupportedProofType, p.Type))
		return out
	}

	out.checked = true
	verified, err := check(v, cred, p, vm)
	if err != nil {
		log.WithError(err).Debug("proof could not be checked")
	}
	if !verified {
		out.errors = append(out.errors, MsgSignatureFailed)
		return out
	}

	out.verified = true
	return out
}

func issuerDID(cred map[string]interface{}) string {
	switch issuer := cred["issuer"].(type) {
	case string:
		return issuer
	case map[string]interface{}:
		id, _ := issuer["id"].(string)
		return id
	}

	return ""
}

func outcome(r *Result) string {
	switch {
	case r.Verified():
		return metrics.OutcomeVerified
	case r.SignatureValid == nil && r.Valid:
		return metrics.OutcomeUnsigned
	case slices.Contains(r.Errors, MsgSignatureFailed):
		return metrics.OutcomeSigFailure
	}

	return metrics.OutcomeInvalid
}
