package did

// ResolutionError categorises resolver failures.
type ResolutionError string

const (
	ErrInvalidDID          ResolutionError = "invalid DID"
	ErrUnsupportedMethod   ResolutionError = "unsupported DID method"
	ErrUnsupportedEncoding ResolutionError = "unsupported multibase encoding"
	ErrInvalidKey          ResolutionError = "invalid did:key public key"
	ErrNotFound            ResolutionError = "DID document not found"
	ErrUpstream            ResolutionError = "DID document fetch failed"
	ErrDecode              ResolutionError = "invalid DID document"
	ErrResolution          ResolutionError = "DID resolution failed"
)

func (e ResolutionError) Error() string { return string(e) }
