package credential

// Result is the outcome of verifying one credential.
type Result struct {
	// Valid is false as soon as any structural or cryptographic error was found.
	Valid bool `json:"valid"`
	// SignatureValid is nil when the credential carried no proof.
	SignatureValid *bool   `json:"signatureValid"`
	IssuerDID      *string `json:"issuerDid,omitempty"`
	// VerificationMethod is the method referenced by the last proof.
	VerificationMethod string   `json:"verificationMethod,omitempty"`
	Errors             []string `json:"errors"`
	Warnings           []string `json:"warnings"`
}

func newResult() *Result {
	return &Result{Valid: true, Errors: []string{}, Warnings: []string{}}
}

// Verified reports whether the credential is valid and its signature was
// positively verified. An unsigned credential is never verified.
func (r *Result) Verified() bool {
	return r != nil && r.Valid && r.SignatureValid != nil && *r.SignatureValid
}

func (r *Result) addError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Valid = false
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
